package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors returned by repositories for conditions callers act on.
var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrCourseFull        = errors.New("course is full")
	ErrAlreadyEnrolled   = errors.New("student already enrolled in course")
	ErrHasEnrollments    = errors.New("record still has enrollments")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
)

func pqCode(err error) (pq.ErrorCode, string) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code, pqErr.Constraint
	}
	return "", ""
}

func isUniqueViolation(err error) (string, bool) {
	code, constraint := pqCode(err)
	return constraint, code == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	code, _ := pqCode(err)
	return code == pqForeignKeyViolation
}
