package domain

import (
	"fmt"
	"time"
)

// ProgramYears is the length of the undergraduate program, used to turn
// a two-digit batch into a graduation year and back.
const ProgramYears = 4

// BatchLabel renders the 2-digit cohort label, e.g. 2026 -> "'22".
func BatchLabel(graduationYear int) string {
	return fmt.Sprintf("'%02d", (graduationYear-ProgramYears)%100)
}

// Student is the institutional record keyed by the 9-digit student ID.
// The ID encodes the batch in its first 2 digits and the department in
// its 5th digit.
type Student struct {
	StudentID      string    `json:"student_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email,omitempty"`
	Department     string    `json:"department,omitempty"`
	GraduationYear int       `json:"graduation_year,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	Motto          string    `json:"motto,omitempty"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	CreatedAt      time.Time `json:"created"`
	UpdatedAt      time.Time `json:"updated"`
}

// FullName joins the non-empty name parts with a single space.
func (s *Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Motto       *string `json:"motto"`
}
