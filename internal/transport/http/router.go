package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yearbook-api/internal/application/album"
	"github.com/yearbook-api/internal/application/dashboard"
	"github.com/yearbook-api/internal/application/memory"
	"github.com/yearbook-api/internal/application/registration"
	"github.com/yearbook-api/internal/application/student"
	"github.com/yearbook-api/internal/config"
	"github.com/yearbook-api/internal/domain"
	"github.com/yearbook-api/internal/transport/http/handler"
	appmiddleware "github.com/yearbook-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	// An interface holding a nil *Store is not nil, so only assign when
	// object storage is actually configured.
	var memoryUploader memory.Uploader
	var avatarUploader student.Uploader
	if deps.S3Store != nil {
		memoryUploader = deps.S3Store
		avatarUploader = deps.S3Store
	}

	registrationSvc := registration.NewService(registration.ServiceDeps{
		UserRepo:      deps.UserRepo,
		OTPRepo:       deps.OTPRepo,
		Mailer:        deps.Mailer,
		TokenProvider: deps.JWTProvider,
		AllowedDomain: cfg.AllowedEmailDomain,
		OTPTTL:        time.Duration(cfg.OTPTTLMinutes) * time.Minute,
		MaxAttempts:   cfg.OTPMaxAttempts,
	})
	memorySvc := memory.NewService(memory.ServiceDeps{
		StudentRepo: deps.StudentRepo,
		MemoryRepo:  deps.MemoryRepo,
		AlbumRepo:   deps.AlbumRepo,
		ImageRepo:   deps.ImageRepo,
		Uploader:    memoryUploader,
	})
	studentSvc := student.NewService(student.ServiceDeps{
		StudentRepo: deps.StudentRepo,
		UserRepo:    deps.UserRepo,
		Uploader:    avatarUploader,
	})
	albumSvc := album.NewService(album.ServiceDeps{
		AlbumRepo:  deps.AlbumRepo,
		MemoryRepo: deps.MemoryRepo,
		ImageRepo:  deps.ImageRepo,
	})
	dashboardSvc := dashboard.NewService(dashboard.ServiceDeps{
		UserRepo:   deps.UserRepo,
		AlbumRepo:  deps.AlbumRepo,
		MemoryRepo: deps.MemoryRepo,
		ImageRepo:  deps.ImageRepo,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(registrationSvc, deps.UserRepo)
	memoryH := handler.NewMemoryHandler(memorySvc, deps.UserRepo)
	studentH := handler.NewStudentHandler(studentSvc)
	albumH := handler.NewAlbumHandler(albumSvc, deps.UserRepo)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/otp/request", authH.RequestOTP)
		r.With(sensitiveRL.Limit).Post("/auth/otp/verify", authH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/auth/register/complete", authH.CompleteRegistration)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)

		r.Get("/memories/{id}", memoryH.Get)
		r.Get("/memories/student/{studentId}", memoryH.ListByStudent)
		r.Get("/students", studentH.List)
		r.Get("/students/year/{year}", studentH.ListByYear)
		r.Get("/students/search", studentH.Search)
		r.Get("/students/{id}", studentH.Get)
		r.Get("/albums", albumH.List)
		r.Get("/albums/{id}", albumH.Get)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", authH.Me)
			r.Get("/dashboard", dashboardH.Get)

			r.Post("/memories", memoryH.Publish)
			r.Delete("/memories/{id}", memoryH.Delete)
			r.Put("/students/me/profile", studentH.UpdateProfile)
			r.Post("/albums", albumH.Create)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Delete("/albums/{id}", albumH.Delete)
			})
		})
	})

	return r
}
