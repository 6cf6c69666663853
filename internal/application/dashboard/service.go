// Package dashboard composes the grouped read-side feed: per audience
// tier, recent albums with their memories plus recent standalone
// memories, all eager-loaded in batched queries.
package dashboard

import (
	"context"

	"github.com/yearbook-api/internal/domain"
)

// tierLimit caps albums and standalone memories fetched per tier.
const tierLimit = 20

type UserStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

type AlbumStore interface {
	ListRecentDepartment(ctx context.Context, department string, limit int) ([]domain.Album, error)
	ListRecentBatch(ctx context.Context, graduationYear, limit int) ([]domain.Album, error)
	ListRecentGroup(ctx context.Context, limit int) ([]domain.Album, error)
}

type MemoryStore interface {
	ListByAlbumIDs(ctx context.Context, albumIDs []string) ([]domain.Memory, error)
	ListStandaloneDepartment(ctx context.Context, department string, limit int) ([]domain.Memory, error)
	ListStandaloneBatch(ctx context.Context, graduationYear, limit int) ([]domain.Memory, error)
	ListStandalonePublic(ctx context.Context, limit int) ([]domain.Memory, error)
	ListParticipants(ctx context.Context, memoryIDs []string) (map[string][]domain.Student, error)
}

type ImageStore interface {
	ListByEntities(ctx context.Context, entityType string, entityIDs []string) (map[string][]domain.Image, error)
}

// AlbumFeed is an album with its memories nested for display.
type AlbumFeed struct {
	domain.Album
	Memories []domain.Memory `json:"memories"`
}

// Tier groups one audience scope's feed: albums with nested memories,
// and standalone memories outside any album.
type Tier struct {
	Albums   []AlbumFeed     `json:"albums"`
	Memories []domain.Memory `json:"memories"`
}

// Dashboard is the full grouped feed for one user. Department and
// Batch are nil when the linked student record lacks that attribute.
type Dashboard struct {
	User       *domain.Profile `json:"user"`
	Department *Tier           `json:"department,omitempty"`
	Batch      *Tier           `json:"batch,omitempty"`
	BatchLabel string          `json:"batch_label,omitempty"`
	Public     *Tier           `json:"public"`
}

type Service interface {
	Build(ctx context.Context, userID string) (*Dashboard, error)
}

type ServiceDeps struct {
	UserRepo   UserStore
	AlbumRepo  AlbumStore
	MemoryRepo MemoryStore
	ImageRepo  ImageStore
}

type service struct {
	users    UserStore
	albums   AlbumStore
	memories MemoryStore
	images   ImageStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:    deps.UserRepo,
		albums:   deps.AlbumRepo,
		memories: deps.MemoryRepo,
		images:   deps.ImageRepo,
	}
}

func (s *service) Build(ctx context.Context, userID string) (*Dashboard, error) {
	p, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{User: p}

	var albums []domain.Album
	var standalone []domain.Memory
	tiers := []struct {
		enabled    bool
		listAlbums func() ([]domain.Album, error)
		listSolo   func() ([]domain.Memory, error)
		attach     func(*Tier)
	}{
		{
			enabled:    p.Department != "",
			listAlbums: func() ([]domain.Album, error) { return s.albums.ListRecentDepartment(ctx, p.Department, tierLimit) },
			listSolo: func() ([]domain.Memory, error) {
				return s.memories.ListStandaloneDepartment(ctx, p.Department, tierLimit)
			},
			attach: func(t *Tier) { d.Department = t },
		},
		{
			enabled:    p.GraduationYear != 0,
			listAlbums: func() ([]domain.Album, error) { return s.albums.ListRecentBatch(ctx, p.GraduationYear, tierLimit) },
			listSolo: func() ([]domain.Memory, error) {
				return s.memories.ListStandaloneBatch(ctx, p.GraduationYear, tierLimit)
			},
			attach: func(t *Tier) { d.Batch = t },
		},
		{
			enabled:    true,
			listAlbums: func() ([]domain.Album, error) { return s.albums.ListRecentGroup(ctx, tierLimit) },
			listSolo:   func() ([]domain.Memory, error) { return s.memories.ListStandalonePublic(ctx, tierLimit) },
			attach:     func(t *Tier) { d.Public = t },
		},
	}

	type tierData struct {
		albums []domain.Album
		solo   []domain.Memory
		attach func(*Tier)
	}
	var fetched []tierData
	for _, tier := range tiers {
		if !tier.enabled {
			continue
		}
		as, err := tier.listAlbums()
		if err != nil {
			return nil, err
		}
		ms, err := tier.listSolo()
		if err != nil {
			return nil, err
		}
		fetched = append(fetched, tierData{albums: as, solo: ms, attach: tier.attach})
		albums = append(albums, as...)
		standalone = append(standalone, ms...)
	}

	// One batched fetch of album-contained memories across every tier,
	// then one batched fetch of images and participants over all of it.
	albumIDs := make([]string, len(albums))
	for i := range albums {
		albumIDs[i] = albums[i].AlbumID
	}
	contained, err := s.memories.ListByAlbumIDs(ctx, albumIDs)
	if err != nil {
		return nil, err
	}

	all := append(append([]domain.Memory{}, standalone...), contained...)
	memoryIDs := make([]string, len(all))
	for i := range all {
		memoryIDs[i] = all[i].MemoryID
	}
	imgs := map[string][]domain.Image{}
	parts := map[string][]domain.Student{}
	if len(memoryIDs) > 0 {
		if imgs, err = s.images.ListByEntities(ctx, domain.ImageEntityMemory, memoryIDs); err != nil {
			return nil, err
		}
		if parts, err = s.memories.ListParticipants(ctx, memoryIDs); err != nil {
			return nil, err
		}
	}
	decorate := func(ms []domain.Memory) []domain.Memory {
		for i := range ms {
			ms[i].Images = imgs[ms[i].MemoryID]
			ms[i].Participants = parts[ms[i].MemoryID]
		}
		return ms
	}

	byAlbum := make(map[string][]domain.Memory, len(albums))
	for _, m := range decorate(contained) {
		if m.AlbumID != nil {
			byAlbum[*m.AlbumID] = append(byAlbum[*m.AlbumID], m)
		}
	}

	for _, td := range fetched {
		t := &Tier{Albums: make([]AlbumFeed, 0, len(td.albums)), Memories: decorate(td.solo)}
		if t.Memories == nil {
			t.Memories = []domain.Memory{}
		}
		for _, a := range td.albums {
			t.Albums = append(t.Albums, AlbumFeed{Album: a, Memories: byAlbum[a.AlbumID]})
		}
		td.attach(t)
	}

	if p.GraduationYear != 0 {
		d.BatchLabel = domain.BatchLabel(p.GraduationYear)
	}
	return d, nil
}
