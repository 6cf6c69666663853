package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/yearbook-api/internal/domain"
)

// StudentRepo provides read and lookup operations on student records.
type StudentRepo struct {
	db *DB
}

func NewStudentRepo(db *DB) *StudentRepo { return &StudentRepo{db: db} }

const studentColumns = `student_id, first_name, last_name, email, COALESCE(department, ''), COALESCE(graduation_year, 0), bio, motto, photo_url, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (*domain.Student, error) {
	var s domain.Student
	err := row.Scan(&s.StudentID, &s.FirstName, &s.LastName, &s.Email, &s.Department,
		&s.GraduationYear, &s.Bio, &s.Motto, &s.PhotoURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("student: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func (r *StudentRepo) Get(ctx context.Context, studentID string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_id = $1`
	return scanStudent(r.db.QueryRowContext(ctx, query, studentID))
}

func (r *StudentRepo) List(ctx context.Context) ([]domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY student_id ASC`
	return r.queryStudents(ctx, query)
}

func (r *StudentRepo) ListByYear(ctx context.Context, year int) ([]domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE graduation_year = $1 ORDER BY student_id ASC`
	return r.queryStudents(ctx, query, year)
}

// SearchByName matches first, last or full name case-insensitively.
func (r *StudentRepo) SearchByName(ctx context.Context, name string, limit int) ([]domain.Student, error) {
	pattern := "%" + strings.ToLower(name) + "%"
	query := `
		SELECT ` + studentColumns + ` FROM students
		WHERE LOWER(first_name) LIKE $1
		   OR LOWER(last_name) LIKE $1
		   OR LOWER(first_name || ' ' || last_name) LIKE $1
		ORDER BY LOWER(first_name || ' ' || last_name)
		LIMIT $2`
	return r.queryStudents(ctx, query, pattern, limit)
}

// GetByIDs returns the students that exist among ids, preserving no
// particular order. Missing IDs are simply absent from the result.
func (r *StudentRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_id IN (` + inPlaceholders(1, len(ids)) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryStudents(ctx, query, args...)
}

func (r *StudentRepo) queryStudents(ctx context.Context, query string, args ...any) ([]domain.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []domain.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
