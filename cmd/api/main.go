package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/yearbook-api/internal/config"
	jwtinfra "github.com/yearbook-api/internal/infrastructure/jwt"
	"github.com/yearbook-api/internal/infrastructure/postgres"
	s3infra "github.com/yearbook-api/internal/infrastructure/s3"
	"github.com/yearbook-api/internal/infrastructure/smtp"
	transporthttp "github.com/yearbook-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	// S3 store (optional — uploads are rejected when unconfigured).
	var s3Store *s3infra.Store
	if cfg.AWSAccessKeyID != "" || cfg.AWSEndpointURL != "" {
		s3Store = s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName, cfg.S3PublicBaseURL)
	} else {
		log.Println("WARN: object storage not configured, image uploads disabled")
	}

	mailer := smtp.NewMailer(cfg)

	deps := &transporthttp.Deps{
		UserRepo:    postgres.NewUserRepo(db),
		StudentRepo: postgres.NewStudentRepo(db),
		OTPRepo:     postgres.NewOTPRepo(db),
		AlbumRepo:   postgres.NewAlbumRepo(db),
		MemoryRepo:  postgres.NewMemoryRepo(db),
		ImageRepo:   postgres.NewImageRepo(db),
		S3Store:     s3Store,
		Mailer:      mailer,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
