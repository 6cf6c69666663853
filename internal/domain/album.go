package domain

import "time"

// Album types. Group albums are the public tier.
const (
	AlbumTypeDepartment = "department"
	AlbumTypeBatch      = "batch"
	AlbumTypeGroup      = "group"
)

// Default album titles used by the memory publisher. Looked up by
// (type, creator, title) and created on first publish in a scope.
const (
	DefaultDepartmentAlbumTitle = "Department Memories"
	DefaultBatchAlbumTitle      = "Batch Memories"
	DefaultGroupAlbumTitle      = "Shared Memories"
)

// Album is a named container of memories with an audience type and a
// creating student.
type Album struct {
	AlbumID     string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	CreatedBy   string    `json:"created_by"`
	CreatorName string    `json:"creator_name,omitempty"`
	CreatedAt   time.Time `json:"created"`
}

// ValidAlbumType reports whether t is one of the known album types.
func ValidAlbumType(t string) bool {
	switch t {
	case AlbumTypeDepartment, AlbumTypeBatch, AlbumTypeGroup:
		return true
	}
	return false
}

type CreateAlbumRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required"`
}
