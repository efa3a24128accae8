package dto

import "time"

// BulkIDsRequest carries the ids targeted by a bulk operation.
type BulkIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

// BulkUpdateResponse reports how many rows a bulk toggle changed.
type BulkUpdateResponse struct {
	Updated int64 `json:"updated"`
}

// BulkDeleteResponse reports how many rows a bulk delete removed.
type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// RegisterUserRequest creates a non-admin operator account.
type RegisterUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	FullName string `json:"full_name" validate:"max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// StudentRequest is the payload for creating or replacing a student.
type StudentRequest struct {
	FirstName      string     `json:"first_name" validate:"required,max=100"`
	LastName       string     `json:"last_name" validate:"required,max=100"`
	Email          string     `json:"email" validate:"required,email,max=255"`
	Phone          string     `json:"phone" validate:"max=50"`
	Level          string     `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	EnrollmentDate *time.Time `json:"enrollment_date"`
	Active         *bool      `json:"active"`
}

// TeacherRequest is the payload for creating or replacing a teacher.
type TeacherRequest struct {
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email,max=255"`
	Phone          string `json:"phone" validate:"max=50"`
	Specialization string `json:"specialization" validate:"max=255"`
	Bio            string `json:"bio"`
	Active         *bool  `json:"active"`
}

// CourseRequest is the payload for creating or replacing a course.
type CourseRequest struct {
	Name        string    `json:"name" validate:"required,max=255"`
	Description string    `json:"description"`
	Level       string    `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	MaxStudents int       `json:"max_students" validate:"required,gt=0"`
	Price       float64   `json:"price" validate:"gte=0"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	TeacherID   *string   `json:"teacher_id" validate:"omitempty,uuid"`
	Active      *bool     `json:"active"`
}

// EnrollmentRequest enrolls a student in a course.
type EnrollmentRequest struct {
	StudentID     string `json:"student_id" validate:"required,uuid"`
	CourseID      string `json:"course_id" validate:"required,uuid"`
	PaymentStatus string `json:"payment_status" validate:"omitempty,oneof=Pending Paid Refunded"`
}

// PaymentStatusRequest changes the payment status of an enrollment.
type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=Pending Paid Refunded"`
}
