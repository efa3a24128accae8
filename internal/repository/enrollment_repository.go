package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/pkg/database"
)

const enrollmentDetailSelect = `SELECT e.id, e.student_id, e.course_id, e.enrollment_date, e.payment_status, e.created_at, e.updated_at,
        s.first_name || ' ' || s.last_name AS student_name, s.email AS student_email,
        c.name AS course_name, c.price AS course_price
    FROM course_enrollments e
    JOIN students s ON s.id = e.student_id
    JOIN courses c ON c.id = e.course_id`

// EnrollmentRepository manages course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateWithinCapacity inserts the enrollment only while the course has a free
// seat. The course row stays locked until commit so concurrent enrollments for
// the same course are serialised.
func (r *EnrollmentRepository) CreateWithinCapacity(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	if enrollment.PaymentStatus == "" {
		enrollment.PaymentStatus = models.PaymentPending
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	return database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		var maxStudents int
		if err := tx.GetContext(ctx, &maxStudents, `SELECT max_students FROM courses WHERE id = $1 FOR UPDATE`, enrollment.CourseID); err != nil {
			if err == sql.ErrNoRows {
				return ErrCourseNotFound
			}
			return fmt.Errorf("lock course: %w", err)
		}

		var studentExists bool
		if err := tx.GetContext(ctx, &studentExists, `SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)`, enrollment.StudentID); err != nil {
			return fmt.Errorf("check student: %w", err)
		}
		if !studentExists {
			return ErrStudentNotFound
		}

		var enrolled int
		if err := tx.GetContext(ctx, &enrolled, `SELECT COUNT(*) FROM course_enrollments WHERE course_id = $1`, enrollment.CourseID); err != nil {
			return fmt.Errorf("count enrollments: %w", err)
		}
		if enrolled >= maxStudents {
			return ErrCourseFull
		}

		const insert = `INSERT INTO course_enrollments (id, student_id, course_id, enrollment_date, payment_status, created_at, updated_at)
            VALUES (:id, :student_id, :course_id, :enrollment_date, :payment_status, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
			if _, dup := isUniqueViolation(err); dup {
				return ErrAlreadyEnrolled
			}
			return fmt.Errorf("insert enrollment: %w", err)
		}
		return nil
	})
}

// List returns enrollments joined with student and course names.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var b filterBuilder
	if filter.StudentID != "" {
		b.add("e.student_id = ?", filter.StudentID)
	}
	if filter.CourseID != "" {
		b.add("e.course_id = ?", filter.CourseID)
	}
	if filter.PaymentStatus != "" {
		b.add("e.payment_status = ?", filter.PaymentStatus)
	}
	where := b.where()
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s %s ORDER BY e.enrollment_date DESC LIMIT %d OFFSET %d", enrollmentDetailSelect, where, limit, offset)
	enrollments := []models.EnrollmentDetail{}
	if err := r.db.SelectContext(ctx, &enrollments, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM course_enrollments e "+where, b.args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns a single enrollment with joined names.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	var enrollment models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &enrollment, enrollmentDetailSelect+" WHERE e.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// UpdatePaymentStatus changes the payment status of an enrollment.
func (r *EnrollmentRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE course_enrollments SET payment_status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete withdraws an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
