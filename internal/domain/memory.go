package domain

import "time"

// Privacy scopes for a memory post.
const (
	PrivacyDepartment = "department"
	PrivacyBatch      = "batch"
	PrivacyPublic     = "public"
)

// Memory is a single post: headline, caption, creator and an optional
// album container. Images and participants hang off it via their own
// tables.
type Memory struct {
	MemoryID    string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	CreatedBy   string    `json:"created_by"`
	CreatorName string    `json:"created_by_name,omitempty"`
	AlbumID     *string   `json:"album_id,omitempty"`
	CreatedAt   time.Time `json:"created"`

	Images       []Image   `json:"images,omitempty"`
	Participants []Student `json:"participants,omitempty"`
	// Privacy is derived from the containing album's type for display;
	// memories in group albums, unrecognized album types, or no album
	// at all are labeled public.
	Privacy string `json:"privacy,omitempty"`
}

// PrivacyFromAlbumType maps an album type to the display privacy label.
// Anything other than department or batch defaults to public.
func PrivacyFromAlbumType(albumType string) string {
	switch albumType {
	case AlbumTypeDepartment:
		return PrivacyDepartment
	case AlbumTypeBatch:
		return PrivacyBatch
	}
	return PrivacyPublic
}

// MemoryParticipant tags a student in a memory, unique per pair. Only
// students eligible under the memory's privacy scope are inserted.
type MemoryParticipant struct {
	MemoryID  string `json:"memory_id"`
	StudentID string `json:"student_id"`
}
