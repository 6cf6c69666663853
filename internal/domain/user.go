package domain

import "time"

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// User is an authentication identity. It may exist without a linked
// Student record; memory publishing requires the link.
type User struct {
	UserID       string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	Role         string     `json:"role"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	StudentID    *string    `json:"student_id,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created"`
	UpdatedAt    time.Time  `json:"updated"`
}

// Profile is the denormalized user view returned by login, /auth/me and
// the dashboard: the user joined with its student record, if linked.
type Profile struct {
	User
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Department     string `json:"department,omitempty"`
	GraduationYear int    `json:"graduation_year,omitempty"`
	Batch          string `json:"batch,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
