// Package memory implements publishing and reading of memory posts.
//
// Publishing resolves the poster's audience scope, places the post in
// the scope's default album, uploads attachments, and tags only those
// students eligible for the scope, reporting every skipped tag and why.
package memory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yearbook-api/internal/domain"
	s3infra "github.com/yearbook-api/internal/infrastructure/s3"
	"github.com/yearbook-api/internal/pkg/id"
)

type StudentStore interface {
	Get(ctx context.Context, studentID string) (*domain.Student, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Student, error)
}

type MemoryStore interface {
	CreateWithAssets(ctx context.Context, m *domain.Memory, images []domain.Image, participantIDs []string) error
	Get(ctx context.Context, memoryID string) (*domain.Memory, error)
	Delete(ctx context.Context, memoryID string) error
	ListByStudent(ctx context.Context, studentID string) ([]domain.Memory, error)
	ListParticipants(ctx context.Context, memoryIDs []string) (map[string][]domain.Student, error)
}

type AlbumStore interface {
	GetOrCreateDefault(ctx context.Context, albumType, createdBy, title, newID string, now time.Time) (*domain.Album, error)
}

type ImageStore interface {
	ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.Image, error)
	ListByEntities(ctx context.Context, entityType string, entityIDs []string) (map[string][]domain.Image, error)
}

// Uploader is the object-storage dependency. A nil Uploader means the
// collaborator is not configured; publishing with raw files then fails
// with ErrUnavailable.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// FileUpload is one raw multipart file to push to object storage.
type FileUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

type PublishRequest struct {
	Headline         string
	Caption          string
	Privacy          string
	ImageURLs        []string
	TaggedStudentIDs []string
	Files            []FileUpload
}

// PublishResult reports what was persisted and which tags were dropped.
// Skipped IDs are split by cause so clients can tell users exactly why
// a tag did not stick.
type PublishResult struct {
	Memory            *domain.Memory `json:"memory"`
	ImagesAdded       int            `json:"images_added"`
	Uploaded          int            `json:"uploaded"`
	Linked            int            `json:"linked"`
	Tagged            []string       `json:"tagged"`
	SkippedMissing    []string       `json:"skipped_missing"`
	SkippedOutOfScope []string       `json:"skipped_out_of_scope"`
}

type Service interface {
	Publish(ctx context.Context, posterStudentID string, req PublishRequest) (*PublishResult, error)
	Get(ctx context.Context, memoryID string) (*domain.Memory, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Memory, error)
	Delete(ctx context.Context, memoryID, requesterStudentID string, isAdmin bool) error
}

type ServiceDeps struct {
	StudentRepo StudentStore
	MemoryRepo  MemoryStore
	AlbumRepo   AlbumStore
	ImageRepo   ImageStore
	Uploader    Uploader
}

type service struct {
	students StudentStore
	memories MemoryStore
	albums   AlbumStore
	images   ImageStore
	uploader Uploader
}

func NewService(deps ServiceDeps) Service {
	return &service{
		students: deps.StudentRepo,
		memories: deps.MemoryRepo,
		albums:   deps.AlbumRepo,
		images:   deps.ImageRepo,
		uploader: deps.Uploader,
	}
}

// defaultAlbum maps a privacy scope to the default container looked up
// per creator: first publish in a scope creates it, later ones reuse it.
func defaultAlbum(privacy string) (albumType, title string) {
	switch privacy {
	case domain.PrivacyDepartment:
		return domain.AlbumTypeDepartment, domain.DefaultDepartmentAlbumTitle
	case domain.PrivacyBatch:
		return domain.AlbumTypeBatch, domain.DefaultBatchAlbumTitle
	default:
		return domain.AlbumTypeGroup, domain.DefaultGroupAlbumTitle
	}
}

func (s *service) Publish(ctx context.Context, posterStudentID string, req PublishRequest) (*PublishResult, error) {
	headline := strings.TrimSpace(req.Headline)
	caption := strings.TrimSpace(req.Caption)
	if headline == "" {
		return nil, fmt.Errorf("headline is required: %w", domain.ErrBadRequest)
	}
	if caption == "" {
		return nil, fmt.Errorf("caption is required: %w", domain.ErrBadRequest)
	}
	switch req.Privacy {
	case domain.PrivacyDepartment, domain.PrivacyBatch, domain.PrivacyPublic:
	default:
		return nil, fmt.Errorf("privacy must be department, batch or public: %w", domain.ErrBadRequest)
	}
	if posterStudentID == "" {
		return nil, fmt.Errorf("account has no linked student record: %w", domain.ErrBadRequest)
	}

	poster, err := s.students.Get(ctx, posterStudentID)
	if err != nil {
		return nil, fmt.Errorf("account has no linked student record: %w", domain.ErrBadRequest)
	}
	if req.Privacy == domain.PrivacyDepartment && poster.Department == "" {
		return nil, fmt.Errorf("department scope requires a department on record: %w", domain.ErrBadRequest)
	}
	if req.Privacy == domain.PrivacyBatch && poster.GraduationYear == 0 {
		return nil, fmt.Errorf("batch scope requires a graduation year on record: %w", domain.ErrBadRequest)
	}
	if len(req.Files) > 0 && s.uploader == nil {
		return nil, fmt.Errorf("object storage is not configured: %w", domain.ErrUnavailable)
	}

	now := time.Now().UTC()
	albumType, title := defaultAlbum(req.Privacy)
	album, err := s.albums.GetOrCreateDefault(ctx, albumType, poster.StudentID, title, id.New(), now)
	if err != nil {
		return nil, err
	}

	// Uploads happen before the transactional write: a failed upload
	// aborts the publish with nothing persisted.
	urls := make([]string, 0, len(req.Files)+len(req.ImageURLs))
	uploaded := 0
	for _, f := range req.Files {
		key := s3infra.MemoryImageKey(poster.StudentID, f.Filename)
		ct := f.ContentType
		if ct == "" {
			ct = s3infra.DetectContentType(f.Filename)
		}
		url, err := s.uploader.Upload(ctx, key, f.Reader, ct)
		if err != nil {
			return nil, fmt.Errorf("upload %s: %w", f.Filename, err)
		}
		urls = append(urls, url)
		uploaded++
	}
	linked := 0
	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
			linked++
		}
	}

	memoryID := id.New()
	images := make([]domain.Image, 0, len(urls))
	for i, u := range urls {
		images = append(images, domain.Image{
			ImageID:    id.New(),
			EntityType: domain.ImageEntityMemory,
			EntityID:   memoryID,
			PhotoURL:   u,
			SortOrder:  i,
			CreatedAt:  now,
		})
	}

	eligible, skippedMissing, skippedOutOfScope, err := s.partitionTags(ctx, poster, req.Privacy, req.TaggedStudentIDs)
	if err != nil {
		return nil, err
	}

	m := &domain.Memory{
		MemoryID:  memoryID,
		Title:     headline,
		Content:   caption,
		CreatedBy: poster.StudentID,
		AlbumID:   &album.AlbumID,
		CreatedAt: now,
	}
	if err := s.memories.CreateWithAssets(ctx, m, images, eligible); err != nil {
		return nil, err
	}

	m.Images = images
	m.Privacy = domain.PrivacyFromAlbumType(album.Type)
	return &PublishResult{
		Memory:            m,
		ImagesAdded:       len(images),
		Uploaded:          uploaded,
		Linked:            linked,
		Tagged:            eligible,
		SkippedMissing:    skippedMissing,
		SkippedOutOfScope: skippedOutOfScope,
	}, nil
}

// partitionTags splits candidate student IDs into eligible, missing and
// out-of-scope. Self-tags and duplicates are silently dropped first.
func (s *service) partitionTags(ctx context.Context, poster *domain.Student, privacy string, tagged []string) (eligible, missing, outOfScope []string, err error) {
	eligible = []string{}
	missing = []string{}
	outOfScope = []string{}

	seen := map[string]bool{poster.StudentID: true}
	candidates := make([]string, 0, len(tagged))
	for _, t := range tagged {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return eligible, missing, outOfScope, nil
	}

	found, err := s.students.GetByIDs(ctx, candidates)
	if err != nil {
		return nil, nil, nil, err
	}
	byID := make(map[string]domain.Student, len(found))
	for _, st := range found {
		byID[st.StudentID] = st
	}

	for _, c := range candidates {
		st, ok := byID[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		if inScope(poster, &st, privacy) {
			eligible = append(eligible, c)
		} else {
			outOfScope = append(outOfScope, c)
		}
	}
	return eligible, missing, outOfScope, nil
}

func inScope(poster, candidate *domain.Student, privacy string) bool {
	switch privacy {
	case domain.PrivacyDepartment:
		return candidate.Department == poster.Department
	case domain.PrivacyBatch:
		return candidate.GraduationYear == poster.GraduationYear
	}
	return true
}

func (s *service) Get(ctx context.Context, memoryID string) (*domain.Memory, error) {
	m, err := s.memories.Get(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	if m.Images, err = s.images.ListByEntity(ctx, domain.ImageEntityMemory, m.MemoryID); err != nil {
		return nil, err
	}
	parts, err := s.memories.ListParticipants(ctx, []string{m.MemoryID})
	if err != nil {
		return nil, err
	}
	m.Participants = parts[m.MemoryID]
	return m, nil
}

// ListByStudent returns a student's memories newest first, each labeled
// with the privacy derived from its album and eager-loaded with images
// and participants.
func (s *service) ListByStudent(ctx context.Context, studentID string) ([]domain.Memory, error) {
	if _, err := s.students.Get(ctx, studentID); err != nil {
		return nil, err
	}
	ms, err := s.memories.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return ms, nil
	}

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
	return ms, nil
}

// Delete removes a memory and its images. Only the creator or an admin
// may delete.
func (s *service) Delete(ctx context.Context, memoryID, requesterStudentID string, isAdmin bool) error {
	m, err := s.memories.Get(ctx, memoryID)
	if err != nil {
		return err
	}
	if !isAdmin && m.CreatedBy != requesterStudentID {
		return fmt.Errorf("only the creator may delete a memory: %w", domain.ErrForbidden)
	}
	return s.memories.Delete(ctx, memoryID)
}
