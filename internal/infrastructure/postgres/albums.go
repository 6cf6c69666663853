package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yearbook-api/internal/domain"
)

// AlbumRepo provides operations on album containers.
type AlbumRepo struct {
	db *DB
}

func NewAlbumRepo(db *DB) *AlbumRepo { return &AlbumRepo{db: db} }

const albumSelect = `
	SELECT a.id, a.title, a.description, a.type, a.created_by, a.created_at,
	       COALESCE(s.first_name || ' ' || s.last_name, '')
	FROM albums a
	LEFT JOIN students s ON a.created_by = s.student_id`

func scanAlbum(row interface{ Scan(...any) error }) (*domain.Album, error) {
	var a domain.Album
	err := row.Scan(&a.AlbumID, &a.Title, &a.Description, &a.Type, &a.CreatedBy, &a.CreatedAt, &a.CreatorName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("album: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &a, nil
}

func (r *AlbumRepo) Create(ctx context.Context, a *domain.Album) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO albums (id, title, description, type, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.AlbumID, a.Title, a.Description, a.Type, a.CreatedBy, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("album already exists: %w", domain.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *AlbumRepo) Get(ctx context.Context, albumID string) (*domain.Album, error) {
	return scanAlbum(r.db.QueryRowContext(ctx, albumSelect+` WHERE a.id = $1`, albumID))
}

// Delete removes an album; contained memories detach and survive as
// standalone posts via the FK's ON DELETE SET NULL.
func (r *AlbumRepo) Delete(ctx context.Context, albumID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM albums WHERE id = $1`, albumID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("album: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *AlbumRepo) List(ctx context.Context) ([]domain.Album, error) {
	return r.queryAlbums(ctx, albumSelect+` ORDER BY a.created_at DESC`)
}

// GetOrCreateDefault resolves the shared per-creator-per-scope album,
// creating it on first use. Losing an insert race to a concurrent
// publish is fine: the winner's row is re-read.
func (r *AlbumRepo) GetOrCreateDefault(ctx context.Context, albumType, createdBy, title, newID string, now time.Time) (*domain.Album, error) {
	lookup := albumSelect + ` WHERE a.type = $1 AND a.created_by = $2 AND a.title = $3`
	a, err := scanAlbum(r.db.QueryRowContext(ctx, lookup, albumType, createdBy, title))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO albums (id, title, description, type, created_by, created_at)
		VALUES ($1, $2, '', $3, $4, $5)
		ON CONFLICT (type, created_by, title) DO NOTHING`,
		newID, title, albumType, createdBy, now); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanAlbum(r.db.QueryRowContext(ctx, lookup, albumType, createdBy, title))
}

// ListRecentDepartment returns the most recent department albums whose
// creator belongs to the given department.
func (r *AlbumRepo) ListRecentDepartment(ctx context.Context, department string, limit int) ([]domain.Album, error) {
	query := albumSelect + `
		WHERE a.type = $1
		  AND a.created_by IN (SELECT student_id FROM students WHERE department = $2)
		ORDER BY a.created_at DESC
		LIMIT $3`
	return r.queryAlbums(ctx, query, domain.AlbumTypeDepartment, department, limit)
}

// ListRecentBatch returns the most recent batch albums whose creator
// graduates in the given year.
func (r *AlbumRepo) ListRecentBatch(ctx context.Context, graduationYear, limit int) ([]domain.Album, error) {
	query := albumSelect + `
		WHERE a.type = $1
		  AND a.created_by IN (SELECT student_id FROM students WHERE graduation_year = $2)
		ORDER BY a.created_at DESC
		LIMIT $3`
	return r.queryAlbums(ctx, query, domain.AlbumTypeBatch, graduationYear, limit)
}

// ListRecentGroup returns the most recent group (public) albums, unscoped.
func (r *AlbumRepo) ListRecentGroup(ctx context.Context, limit int) ([]domain.Album, error) {
	query := albumSelect + ` WHERE a.type = $1 ORDER BY a.created_at DESC LIMIT $2`
	return r.queryAlbums(ctx, query, domain.AlbumTypeGroup, limit)
}

func (r *AlbumRepo) queryAlbums(ctx context.Context, query string, args ...any) ([]domain.Album, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
