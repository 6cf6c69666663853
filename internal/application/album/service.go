// Package album handles user-created albums and their feeds.
package album

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yearbook-api/internal/domain"
	"github.com/yearbook-api/internal/pkg/id"
)

type AlbumStore interface {
	Create(ctx context.Context, a *domain.Album) error
	Get(ctx context.Context, albumID string) (*domain.Album, error)
	List(ctx context.Context) ([]domain.Album, error)
	Delete(ctx context.Context, albumID string) error
}

type MemoryStore interface {
	ListByAlbumIDs(ctx context.Context, albumIDs []string) ([]domain.Memory, error)
	ListParticipants(ctx context.Context, memoryIDs []string) (map[string][]domain.Student, error)
}

type ImageStore interface {
	ListByEntities(ctx context.Context, entityType string, entityIDs []string) (map[string][]domain.Image, error)
}

// Detail is an album with its memories loaded.
type Detail struct {
	domain.Album
	Memories []domain.Memory `json:"memories"`
}

type Service interface {
	Create(ctx context.Context, creatorStudentID string, req domain.CreateAlbumRequest) (*domain.Album, error)
	List(ctx context.Context) ([]domain.Album, error)
	Get(ctx context.Context, albumID string) (*Detail, error)
	Delete(ctx context.Context, albumID string) error
}

type ServiceDeps struct {
	AlbumRepo  AlbumStore
	MemoryRepo MemoryStore
	ImageRepo  ImageStore
}

type service struct {
	albums   AlbumStore
	memories MemoryStore
	images   ImageStore
}

func NewService(deps ServiceDeps) Service {
	return &service{albums: deps.AlbumRepo, memories: deps.MemoryRepo, images: deps.ImageRepo}
}

func (s *service) Create(ctx context.Context, creatorStudentID string, req domain.CreateAlbumRequest) (*domain.Album, error) {
	if creatorStudentID == "" {
		return nil, fmt.Errorf("account has no linked student record: %w", domain.ErrBadRequest)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrBadRequest)
	}
	if !domain.ValidAlbumType(req.Type) {
		return nil, fmt.Errorf("type must be department, batch or group: %w", domain.ErrBadRequest)
	}

	a := &domain.Album{
		AlbumID:     id.New(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Type:        req.Type,
		CreatedBy:   creatorStudentID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.albums.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) List(ctx context.Context) ([]domain.Album, error) {
	return s.albums.List(ctx)
}

// Get returns the album with its memories, each eager-loaded with
// images and tagged participants.
func (s *service) Get(ctx context.Context, albumID string) (*Detail, error) {
	a, err := s.albums.Get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	ms, err := s.memories.ListByAlbumIDs(ctx, []string{a.AlbumID})
	if err != nil {
		return nil, err
	}
	if len(ms) > 0 {
		ids := make([]string, len(ms))
		for i := range ms {
			ids[i] = ms[i].MemoryID
		}
		imgs, err := s.images.ListByEntities(ctx, domain.ImageEntityMemory, ids)
		if err != nil {
			return nil, err
		}
		parts, err := s.memories.ListParticipants(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range ms {
			ms[i].Images = imgs[ms[i].MemoryID]
			ms[i].Participants = parts[ms[i].MemoryID]
		}
	} else {
		ms = []domain.Memory{}
	}
	return &Detail{Album: *a, Memories: ms}, nil
}

// Delete removes an album. Memories inside it are detached, not
// deleted. Moderation-only; route-level role checks gate the caller.
func (s *service) Delete(ctx context.Context, albumID string) error {
	return s.albums.Delete(ctx, albumID)
}
