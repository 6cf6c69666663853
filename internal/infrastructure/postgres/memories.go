package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yearbook-api/internal/domain"
)

// MemoryRepo provides operations on memory posts and their participant tags.
type MemoryRepo struct {
	db *DB
}

func NewMemoryRepo(db *DB) *MemoryRepo { return &MemoryRepo{db: db} }

const memorySelect = `
	SELECT m.id, m.title, m.content, m.created_by, m.album_id, m.created_at,
	       COALESCE(s.first_name || ' ' || s.last_name, '')
	FROM memories m
	LEFT JOIN students s ON m.created_by = s.student_id`

func scanMemory(row interface{ Scan(...any) error }) (*domain.Memory, error) {
	var m domain.Memory
	err := row.Scan(&m.MemoryID, &m.Title, &m.Content, &m.CreatedBy, &m.AlbumID, &m.CreatedAt, &m.CreatorName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("memory: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &m, nil
}

// CreateWithAssets writes the memory, its image rows and its eligible
// participant tags as one transaction, so concurrent readers never see
// a partially published post. Image insert order follows the slice;
// sort_order values are taken as given. Duplicate participant inserts
// are no-ops.
func (r *MemoryRepo) CreateWithAssets(ctx context.Context, m *domain.Memory, images []domain.Image, participantIDs []string) error {
	return r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO memories (id, title, content, created_by, album_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			m.MemoryID, m.Title, m.Content, m.CreatedBy, m.AlbumID, m.CreatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		for _, img := range images {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO images (id, entity_type, entity_id, photo_url, sort_order, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				img.ImageID, img.EntityType, img.EntityID, img.PhotoURL, img.SortOrder, img.CreatedAt); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		for _, studentID := range participantIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO memory_participants (memory_id, student_id)
				VALUES ($1, $2)
				ON CONFLICT (memory_id, student_id) DO NOTHING`,
				m.MemoryID, studentID); err != nil {
				return fmt.Errorf("db error: %w", err)
			}
		}
		return nil
	})
}

func (r *MemoryRepo) Get(ctx context.Context, memoryID string) (*domain.Memory, error) {
	return scanMemory(r.db.QueryRowContext(ctx, memorySelect+` WHERE m.id = $1`, memoryID))
}

// Delete removes a memory; participant rows cascade at the store level
// and image rows are removed alongside.
func (r *MemoryRepo) Delete(ctx context.Context, memoryID string) error {
	return r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM images WHERE entity_type = $1 AND entity_id = $2`,
			domain.ImageEntityMemory, memoryID); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = $1`, memoryID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("memory: %w", domain.ErrNotFound)
		}
		return nil
	})
}

// ListByStudent returns a student's memories annotated with the
// containing album's type for the privacy label.
func (r *MemoryRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Memory, error) {
	query := `
		SELECT m.id, m.title, m.content, m.created_by, m.album_id, m.created_at,
		       COALESCE(s.first_name || ' ' || s.last_name, ''),
		       COALESCE(a.type, '')
		FROM memories m
		LEFT JOIN students s ON m.created_by = s.student_id
		LEFT JOIN albums a ON m.album_id = a.id
		WHERE m.created_by = $1
		ORDER BY m.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.Memory
	for rows.Next() {
		var m domain.Memory
		var albumType string
		if err := rows.Scan(&m.MemoryID, &m.Title, &m.Content, &m.CreatedBy, &m.AlbumID,
			&m.CreatedAt, &m.CreatorName, &albumType); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Privacy = domain.PrivacyFromAlbumType(albumType)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// ListByAlbumIDs fetches the memories of all given albums in one query;
// callers group by album ID in memory.
func (r *MemoryRepo) ListByAlbumIDs(ctx context.Context, albumIDs []string) ([]domain.Memory, error) {
	if len(albumIDs) == 0 {
		return nil, nil
	}
	query := memorySelect + `
		WHERE m.album_id IN (` + inPlaceholders(1, len(albumIDs)) + `)
		ORDER BY m.created_at DESC`
	args := make([]any, len(albumIDs))
	for i, id := range albumIDs {
		args[i] = id
	}
	return r.queryMemories(ctx, query, args...)
}

// ListStandaloneDepartment returns recent album-less memories created
// by students of the given department.
func (r *MemoryRepo) ListStandaloneDepartment(ctx context.Context, department string, limit int) ([]domain.Memory, error) {
	query := memorySelect + `
		WHERE m.album_id IS NULL
		  AND m.created_by IN (SELECT student_id FROM students WHERE department = $1)
		ORDER BY m.created_at DESC
		LIMIT $2`
	return r.queryMemories(ctx, query, department, limit)
}

// ListStandaloneBatch returns recent album-less memories created by
// students graduating in the given year.
func (r *MemoryRepo) ListStandaloneBatch(ctx context.Context, graduationYear, limit int) ([]domain.Memory, error) {
	query := memorySelect + `
		WHERE m.album_id IS NULL
		  AND m.created_by IN (SELECT student_id FROM students WHERE graduation_year = $1)
		ORDER BY m.created_at DESC
		LIMIT $2`
	return r.queryMemories(ctx, query, graduationYear, limit)
}

// ListStandalonePublic returns recent album-less memories, unscoped.
func (r *MemoryRepo) ListStandalonePublic(ctx context.Context, limit int) ([]domain.Memory, error) {
	query := memorySelect + `
		WHERE m.album_id IS NULL
		ORDER BY m.created_at DESC
		LIMIT $1`
	return r.queryMemories(ctx, query, limit)
}

// ListParticipants returns the tagged students of each given memory,
// grouped by memory ID.
func (r *MemoryRepo) ListParticipants(ctx context.Context, memoryIDs []string) (map[string][]domain.Student, error) {
	if len(memoryIDs) == 0 {
		return map[string][]domain.Student{}, nil
	}
	query := `
		SELECT mp.memory_id, s.student_id, s.first_name, s.last_name, s.email,
		       COALESCE(s.department, ''), COALESCE(s.graduation_year, 0),
		       s.bio, s.motto, s.photo_url, s.created_at, s.updated_at
		FROM memory_participants mp
		JOIN students s ON mp.student_id = s.student_id
		WHERE mp.memory_id IN (` + inPlaceholders(1, len(memoryIDs)) + `)
		ORDER BY mp.memory_id, s.student_id`
	args := make([]any, len(memoryIDs))
	for i, id := range memoryIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Student)
	for rows.Next() {
		var memoryID string
		var s domain.Student
		if err := rows.Scan(&memoryID, &s.StudentID, &s.FirstName, &s.LastName, &s.Email,
			&s.Department, &s.GraduationYear, &s.Bio, &s.Motto, &s.PhotoURL,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[memoryID] = append(out[memoryID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *MemoryRepo) queryMemories(ctx context.Context, query string, args ...any) ([]domain.Memory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
