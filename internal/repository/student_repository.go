package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himilaisan-astr/elts-backend/internal/models"
)

const studentColumns = `s.id, s.first_name, s.last_name, s.email, s.phone, s.level, s.enrollment_date, s.active, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var b filterBuilder
	if filter.Search != "" {
		b.add("(LOWER(s.first_name || ' ' || s.last_name) LIKE ? OR LOWER(s.email) LIKE ?)", likePattern(filter.Search))
	}
	if filter.Level != "" {
		b.add("s.level = ?", filter.Level)
	}
	if filter.Active != nil {
		b.add("s.active = ?", *filter.Active)
	}
	base := "FROM students s " + b.where()

	order := orderBy(map[string]string{
		"last_name":       "s.last_name",
		"email":           "s.email",
		"level":           "s.level",
		"enrollment_date": "s.enrollment_date",
		"created_at":      "s.created_at",
	}, filter.SortBy, filter.SortOrder, "created_at")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", studentColumns, base, order, limit, offset)
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, b.args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students s WHERE s.id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ListByCourse returns the students enrolled in a course ordered by name.
func (r *StudentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + ` FROM students s
        JOIN course_enrollments e ON e.student_id = s.id
        WHERE e.course_id = $1
        ORDER BY s.last_name, s.first_name`
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}

// ExistsByEmail checks if a student with the email exists optionally excluding an ID.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	if student.EnrollmentDate.IsZero() {
		student.EnrollmentDate = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, first_name, last_name, email, phone, level, enrollment_date, active, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :email, :phone, :level, :enrollment_date, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if _, dup := isUniqueViolation(err); dup {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
        level = :level, enrollment_date = :enrollment_date, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if _, dup := isUniqueViolation(err); dup {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// SetActive toggles the active flag for the given students.
func (r *StudentRepository) SetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	return setActive(ctx, r.db, "students", ids, active)
}

// Delete removes students that have no enrollments.
func (r *StudentRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	return deleteUnenrolled(ctx, r.db, "students", "student_id", ids)
}
