package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yearbook-api/internal/domain"
)

// UserRepo provides typed operations on the users table, including the
// transactional account-creation write that completes a registration.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, display_name, role, avatar_url, student_id, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role,
		&u.AvatarURL, &u.StudentID, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, userID))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetProfile returns the user joined with its linked student record.
func (r *UserRepo) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return r.profile(ctx, `u.id = $1`, userID)
}

// GetProfileByEmail is GetProfile keyed by email, used by login.
func (r *UserRepo) GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.profile(ctx, `u.email = $1`, email)
}

func (r *UserRepo) profile(ctx context.Context, where string, arg any) (*domain.Profile, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.display_name, u.role, u.avatar_url,
		       u.student_id, u.last_login_at, u.created_at, u.updated_at,
		       COALESCE(s.first_name, ''), COALESCE(s.last_name, ''),
		       COALESCE(s.department, ''), COALESCE(s.graduation_year, 0)
		FROM users u
		LEFT JOIN students s ON u.student_id = s.student_id
		WHERE ` + where

	var p domain.Profile
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&p.UserID, &p.Email, &p.PasswordHash, &p.DisplayName, &p.Role, &p.AvatarURL,
		&p.StudentID, &p.LastLoginAt, &p.CreatedAt, &p.UpdatedAt,
		&p.FirstName, &p.LastName, &p.Department, &p.GraduationYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if p.GraduationYear != 0 {
		p.Batch = domain.BatchLabel(p.GraduationYear)
	}
	return &p, nil
}

// RecordLogin stamps last_login_at on a successful login.
func (r *UserRepo) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2, updated_at = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateProfile applies display-name and avatar changes to the user row
// and mirrors bio/motto/photo onto the linked student row when present.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest, photoURL string, now time.Time) error {
	return r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
		if err != nil {
			return err
		}
		displayName := u.DisplayName
		if req.DisplayName != nil {
			displayName = *req.DisplayName
		}
		avatarURL := u.AvatarURL
		if photoURL != "" {
			avatarURL = photoURL
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET display_name = $2, avatar_url = $3, updated_at = $4 WHERE id = $1`,
			userID, displayName, avatarURL, now); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		if u.StudentID == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE students SET
				bio = COALESCE($2, bio),
				motto = COALESCE($3, motto),
				photo_url = CASE WHEN $4 = '' THEN photo_url ELSE $4 END,
				updated_at = $5
			WHERE student_id = $1`,
			*u.StudentID, req.Bio, req.Motto, photoURL, now)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

// NewAccount carries all rows written when a registration completes.
type NewAccount struct {
	UserID       string
	Email        string
	PasswordHash string
	DisplayName  string
	Role         string
	Student      domain.Student
	Now          time.Time
}

// CreateAccount performs the whole registration-completion write as one
// transaction: reference rows, the student upsert (coalescing fields an
// existing record already has), the user insert, and consumption of the
// OTP challenge. Unique-constraint races on email or student linkage
// surface as ErrConflict; the constraint is the ultimate authority.
func (r *UserRepo) CreateAccount(ctx context.Context, acct NewAccount) (*domain.User, error) {
	var u *domain.User
	err := r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		st := acct.Student
		if st.Department != "" {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO departments (code, name) VALUES ($1, $1)
				ON CONFLICT (code) DO NOTHING`, st.Department); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		if st.GraduationYear != 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO yearbooks (graduation_year) VALUES ($1)
				ON CONFLICT (graduation_year) DO NOTHING`, st.GraduationYear); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}

		// Insert-or-merge: an existing student row keeps any non-empty
		// fields it already has, so out-of-band enrichment survives.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO students (student_id, first_name, last_name, email, department, graduation_year, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (student_id) DO UPDATE SET
				email = CASE WHEN students.email = '' THEN EXCLUDED.email ELSE students.email END,
				first_name = CASE WHEN students.first_name = '' THEN EXCLUDED.first_name ELSE students.first_name END,
				last_name = CASE WHEN students.last_name = '' THEN EXCLUDED.last_name ELSE students.last_name END,
				department = COALESCE(students.department, EXCLUDED.department),
				graduation_year = COALESCE(students.graduation_year, EXCLUDED.graduation_year),
				updated_at = EXCLUDED.updated_at`,
			st.StudentID, st.FirstName, st.LastName, st.Email, st.Department, st.GraduationYear, acct.Now); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		row := tx.QueryRowContext(ctx, `
			INSERT INTO users (id, email, password_hash, display_name, role, avatar_url, student_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, '', $6, $7, $7)
			RETURNING `+userColumns,
			acct.UserID, acct.Email, acct.PasswordHash, acct.DisplayName, acct.Role, st.StudentID, acct.Now)
		created, err := scanUser(row)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("email or student already registered: %w", domain.ErrConflict)
			}
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM otp_verifications WHERE email = $1`, acct.Email); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		u = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}
