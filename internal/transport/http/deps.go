package http

import (
	jwtinfra "github.com/yearbook-api/internal/infrastructure/jwt"
	"github.com/yearbook-api/internal/infrastructure/postgres"
	s3infra "github.com/yearbook-api/internal/infrastructure/s3"
	"github.com/yearbook-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *postgres.UserRepo
	StudentRepo *postgres.StudentRepo
	OTPRepo     *postgres.OTPRepo
	AlbumRepo   *postgres.AlbumRepo
	MemoryRepo  *postgres.MemoryRepo
	ImageRepo   *postgres.ImageRepo

	// S3Store may be nil when object storage is not configured; image
	// uploads are then rejected while URL-linked images keep working.
	S3Store     *s3infra.Store
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}
