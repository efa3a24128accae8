package models

import "time"

// PaymentStatus tracks whether an enrollment has been paid for.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

// Valid reports whether the status is one of the known values.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Enrollment links one student to one course.
type Enrollment struct {
	ID             string        `db:"id" json:"id"`
	StudentID      string        `db:"student_id" json:"student_id"`
	CourseID       string        `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time     `db:"enrollment_date" json:"enrollment_date"`
	PaymentStatus  PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail is an enrollment joined with student and course names.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string  `db:"student_name" json:"student_name"`
	StudentEmail string  `db:"student_email" json:"student_email"`
	CourseName   string  `db:"course_name" json:"course_name"`
	CoursePrice  float64 `db:"course_price" json:"course_price"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID     string
	CourseID      string
	PaymentStatus PaymentStatus
	Page          int
	PageSize      int
}
