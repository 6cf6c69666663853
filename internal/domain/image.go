package domain

import "time"

// Image entity types for the polymorphic (entity_type, entity_id) key.
const (
	ImageEntityMemory = "memory"
	ImageEntityAlbum  = "album"
)

// Image is a polymorphic attachment with an explicit sort order.
// Sort order drives display order and must be preserved exactly.
type Image struct {
	ImageID    string    `json:"id"`
	EntityType string    `json:"-"`
	EntityID   string    `json:"-"`
	PhotoURL   string    `json:"url"`
	SortOrder  int       `json:"sort"`
	CreatedAt  time.Time `json:"created"`
}
