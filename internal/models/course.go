package models

import "time"

// Course is a class offering with a bounded number of seats.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Level       Level     `db:"level" json:"level"`
	MaxStudents int       `db:"max_students" json:"max_students"`
	Price       float64   `db:"price" json:"price"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail adds seat usage and the teacher's name.
type CourseDetail struct {
	Course
	EnrolledCount int     `db:"enrolled_count" json:"enrolled_count"`
	TeacherName   *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// SeatsLeft returns the remaining capacity, never below zero.
func (d CourseDetail) SeatsLeft() int {
	if left := d.MaxStudents - d.EnrolledCount; left > 0 {
		return left
	}
	return 0
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Search    string
	Level     Level
	TeacherID string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
