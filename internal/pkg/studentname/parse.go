// Package studentname parses the institutional account-name convention
// "Firstname [Middlename...] Lastname STUDENTID", where STUDENTID is a
// 9-digit code carrying the batch in its first two digits and the
// department in its fifth.
package studentname

import "strings"

const studentIDLength = 9

// departmentByDigit maps the 5th digit of a student ID to its
// department code. Unmapped digits leave Department empty and callers
// must reject the registration.
var departmentByDigit = map[byte]string{
	'4': "CSE",
	'5': "CEE",
}

// Parsed holds the identity fields recovered from an account name.
type Parsed struct {
	FullName   string
	FirstName  string
	LastName   string
	StudentID  string
	Batch      string // first two digits of the ID, e.g. "22"
	Department string // empty when the department digit is unmapped
}

// Parse extracts identity fields from a free-text account name. It
// returns ok=false unless the string has at least two whitespace-
// separated tokens and the final token is exactly nine decimal digits.
func Parse(s string) (Parsed, bool) {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return Parsed{}, false
	}

	id := parts[len(parts)-1]
	if !isStudentID(id) {
		return Parsed{}, false
	}

	nameParts := parts[:len(parts)-1]
	p := Parsed{
		FullName:  strings.Join(nameParts, " "),
		FirstName: nameParts[0],
		StudentID: id,
		Batch:     id[:2],
	}
	if len(nameParts) > 1 {
		p.LastName = nameParts[len(nameParts)-1]
	}
	p.Department = departmentByDigit[id[4]]
	return p, true
}

// BatchGraduationYear interprets a two-digit batch as the 20YY intake
// year; callers derive the graduation year from a program length.
func (p Parsed) BatchGraduationYear(programYears int) int {
	return 2000 + int(p.Batch[0]-'0')*10 + int(p.Batch[1]-'0') + programYears
}

func isStudentID(s string) bool {
	if len(s) != studentIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
