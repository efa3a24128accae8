package models

import "time"

// Level is a CEFR-style proficiency band shared by students and courses.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Student represents a learner registered in the school.
type Student struct {
	ID             string    `db:"id" json:"id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	Level          Level     `db:"level" json:"level"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last names.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Level     Level
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
