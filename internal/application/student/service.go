// Package student serves the student directory and profile editing.
package student

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yearbook-api/internal/domain"
	s3infra "github.com/yearbook-api/internal/infrastructure/s3"
)

// searchLimit caps name-search results.
const searchLimit = 50

// minSearchLen keeps single-character patterns from scanning the
// whole directory.
const minSearchLen = 2

type StudentStore interface {
	Get(ctx context.Context, studentID string) (*domain.Student, error)
	List(ctx context.Context) ([]domain.Student, error)
	ListByYear(ctx context.Context, year int) ([]domain.Student, error)
	SearchByName(ctx context.Context, name string, limit int) ([]domain.Student, error)
}

type UserStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest, photoURL string, now time.Time) error
}

type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// AvatarUpload is an optional profile photo accompanying a profile update.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

type Service interface {
	List(ctx context.Context) ([]domain.Student, error)
	ListByYear(ctx context.Context, year int) ([]domain.Student, error)
	Search(ctx context.Context, name string) ([]domain.Student, error)
	Get(ctx context.Context, studentID string) (*domain.Student, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest, avatar *AvatarUpload) (*domain.Profile, error)
}

type ServiceDeps struct {
	StudentRepo StudentStore
	UserRepo    UserStore
	Uploader    Uploader
}

type service struct {
	students StudentStore
	users    UserStore
	uploader Uploader
}

func NewService(deps ServiceDeps) Service {
	return &service{students: deps.StudentRepo, users: deps.UserRepo, uploader: deps.Uploader}
}

func (s *service) List(ctx context.Context) ([]domain.Student, error) {
	return s.students.List(ctx)
}

func (s *service) ListByYear(ctx context.Context, year int) ([]domain.Student, error) {
	if year <= 0 {
		return nil, fmt.Errorf("year must be positive: %w", domain.ErrBadRequest)
	}
	return s.students.ListByYear(ctx, year)
}

func (s *service) Search(ctx context.Context, name string) ([]domain.Student, error) {
	name = strings.TrimSpace(name)
	if len(name) < minSearchLen {
		return nil, fmt.Errorf("search term must be at least %d characters: %w", minSearchLen, domain.ErrBadRequest)
	}
	return s.students.SearchByName(ctx, name, searchLimit)
}

func (s *service) Get(ctx context.Context, studentID string) (*domain.Student, error) {
	return s.students.Get(ctx, studentID)
}

// UpdateProfile applies display name, bio and motto changes and, when an
// avatar file is supplied, uploads it and stores the resulting URL on
// both the user and the linked student record.
func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest, avatar *AvatarUpload) (*domain.Profile, error) {
	photoURL := ""
	if avatar != nil {
		if s.uploader == nil {
			return nil, fmt.Errorf("object storage is not configured: %w", domain.ErrUnavailable)
		}
		key := s3infra.AvatarKey(userID, avatar.Filename)
		ct := avatar.ContentType
		if ct == "" {
			ct = s3infra.DetectContentType(avatar.Filename)
		}
		url, err := s.uploader.Upload(ctx, key, avatar.Reader, ct)
		if err != nil {
			return nil, fmt.Errorf("upload avatar: %w", err)
		}
		photoURL = url
	}

	if err := s.users.UpdateProfile(ctx, userID, req, photoURL, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.users.GetProfile(ctx, userID)
}
