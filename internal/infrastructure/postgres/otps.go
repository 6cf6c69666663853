package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yearbook-api/internal/domain"
)

// OTPRepo manages the per-email OTP challenge rows.
type OTPRepo struct {
	db *DB
}

func NewOTPRepo(db *DB) *OTPRepo { return &OTPRepo{db: db} }

func (r *OTPRepo) Get(ctx context.Context, email string) (*domain.OTPVerification, error) {
	var v domain.OTPVerification
	err := r.db.QueryRowContext(ctx, `
		SELECT email, otp_hash, expires_at, attempts, created_at
		FROM otp_verifications WHERE email = $1`, email).
		Scan(&v.Email, &v.OTPHash, &v.ExpiresAt, &v.Attempts, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no pending verification: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &v, nil
}

// Upsert atomically replaces the challenge for email: a new hash and
// expiry, attempts back to 0. The unique email key serializes
// concurrent requests so exactly one row exists afterward.
func (r *OTPRepo) Upsert(ctx context.Context, email, otpHash string, expiresAt, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otp_verifications (email, otp_hash, expires_at, attempts, created_at)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (email) DO UPDATE SET
			otp_hash = EXCLUDED.otp_hash,
			expires_at = EXCLUDED.expires_at,
			attempts = 0,
			created_at = EXCLUDED.created_at`,
		email, otpHash, expiresAt, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *OTPRepo) IncrementAttempts(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE otp_verifications SET attempts = attempts + 1 WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_verifications WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
