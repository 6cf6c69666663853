package postgres

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var testDBSeq atomic.Int64

// setupDB opens a fresh in-memory sqlite database with the yearbook
// schema. The production migrations target Postgres; this mirror keeps
// the repository SQL honest without a running server.
func setupDB(t *testing.T) *DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_tests_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	raw, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	raw.SetMaxOpenConns(4)
	raw.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = raw.Close() })

	schema := []string{
		`CREATE TABLE students (
			student_id      TEXT PRIMARY KEY,
			first_name      TEXT NOT NULL DEFAULT '',
			last_name       TEXT NOT NULL DEFAULT '',
			email           TEXT NOT NULL DEFAULT '',
			department      TEXT,
			graduation_year INT,
			bio             TEXT NOT NULL DEFAULT '',
			motto           TEXT NOT NULL DEFAULT '',
			photo_url       TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE departments (code TEXT PRIMARY KEY, name TEXT NOT NULL DEFAULT '')`,
		`CREATE TABLE yearbooks (graduation_year INT PRIMARY KEY)`,
		`CREATE TABLE users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			display_name  TEXT NOT NULL DEFAULT '',
			role          TEXT NOT NULL DEFAULT 'student',
			avatar_url    TEXT NOT NULL DEFAULT '',
			student_id    TEXT UNIQUE REFERENCES students (student_id),
			last_login_at TIMESTAMP,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE otp_verifications (
			email      TEXT PRIMARY KEY,
			otp_hash   TEXT NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			attempts   INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE albums (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type        TEXT NOT NULL,
			created_by  TEXT NOT NULL REFERENCES students (student_id),
			created_at  TIMESTAMP NOT NULL,
			UNIQUE (type, created_by, title)
		)`,
		`CREATE TABLE memories (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL REFERENCES students (student_id),
			album_id   TEXT REFERENCES albums (id) ON DELETE SET NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE images (
			id          TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id   TEXT NOT NULL,
			photo_url   TEXT NOT NULL,
			sort_order  INT NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE memory_participants (
			memory_id  TEXT NOT NULL REFERENCES memories (id) ON DELETE CASCADE,
			student_id TEXT NOT NULL REFERENCES students (student_id),
			PRIMARY KEY (memory_id, student_id)
		)`,
	}
	for _, stmt := range schema {
		_, err := raw.Exec(stmt)
		require.NoError(t, err)
	}
	return &DB{DB: raw}
}
