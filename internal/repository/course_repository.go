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

const courseDetailSelect = `SELECT c.id, c.name, c.description, c.level, c.max_students, c.price, c.start_date, c.end_date,
        c.teacher_id, c.active, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM course_enrollments e WHERE e.course_id = c.id) AS enrolled_count,
        CASE WHEN t.id IS NULL THEN NULL ELSE t.first_name || ' ' || t.last_name END AS teacher_name
    FROM courses c
    LEFT JOIN teachers t ON t.id = c.teacher_id`

// CourseRepository handles persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List retrieves courses with seat usage based on filter.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	var b filterBuilder
	if filter.Search != "" {
		b.add("(LOWER(c.name) LIKE ? OR LOWER(c.description) LIKE ?)", likePattern(filter.Search))
	}
	if filter.Level != "" {
		b.add("c.level = ?", filter.Level)
	}
	if filter.TeacherID != "" {
		b.add("c.teacher_id = ?", filter.TeacherID)
	}
	if filter.Active != nil {
		b.add("c.active = ?", *filter.Active)
	}
	where := b.where()

	order := orderBy(map[string]string{
		"name":       "c.name",
		"level":      "c.level",
		"price":      "c.price",
		"start_date": "c.start_date",
		"created_at": "c.created_at",
	}, filter.SortBy, filter.SortOrder, "created_at")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s %s ORDER BY %s LIMIT %d OFFSET %d", courseDetailSelect, where, order, limit, offset)
	courses := []models.CourseDetail{}
	if err := r.db.SelectContext(ctx, &courses, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses c "+where, b.args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course with its enrolled count.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, courseDetailSelect+" WHERE c.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// TeacherExists reports whether the teacher id is present.
func (r *CourseRepository) TeacherExists(ctx context.Context, teacherID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM teachers WHERE id = $1)`, teacherID); err != nil {
		return false, fmt.Errorf("check teacher exists: %w", err)
	}
	return exists, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, name, description, level, max_students, price, start_date, end_date, teacher_id, active, created_at, updated_at)
        VALUES (:id, :name, :description, :level, :max_students, :price, :start_date, :end_date, :teacher_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, description = :description, level = :level, max_students = :max_students,
        price = :price, start_date = :start_date, end_date = :end_date, teacher_id = :teacher_id, active = :active,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SetActive toggles the active flag for the given courses.
func (r *CourseRepository) SetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	return setActive(ctx, r.db, "courses", ids, active)
}

// Delete removes courses that have no enrollments.
func (r *CourseRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	return deleteUnenrolled(ctx, r.db, "courses", "course_id", ids)
}
