package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/himilaisan-astr/elts-backend/internal/models"
)

const teacherColumns = `id, first_name, last_name, email, phone, specialization, bio, active, created_at, updated_at`

// TeacherRepository provides persistence for teacher entities.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a new repository instance.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers filtered by search/active flag.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var b filterBuilder
	if filter.Search != "" {
		b.add("(LOWER(first_name || ' ' || last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(specialization) LIKE ?)", likePattern(filter.Search))
	}
	if filter.Active != nil {
		b.add("active = ?", *filter.Active)
	}
	base := "FROM teachers " + b.where()

	order := orderBy(map[string]string{
		"last_name":      "last_name",
		"email":          "email",
		"specialization": "specialization",
		"created_at":     "created_at",
	}, filter.SortBy, filter.SortOrder, "created_at")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", teacherColumns, base, order, limit, offset)
	teachers := []models.Teacher{}
	if err := r.db.SelectContext(ctx, &teachers, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, b.args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher by identifier.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, "SELECT "+teacherColumns+" FROM teachers WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// ExistsByEmail checks for an existing teacher email optionally excluding an ID.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1)"
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
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, first_name, last_name, email, phone, specialization, bio, active, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :email, :phone, :specialization, :bio, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		if _, dup := isUniqueViolation(err); dup {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
        specialization = :specialization, bio = :bio, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		if _, dup := isUniqueViolation(err); dup {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// SetActive toggles the active flag for the given teachers.
func (r *TeacherRepository) SetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	return setActive(ctx, r.db, "teachers", ids, active)
}

// Delete removes teachers. Their courses keep running without a teacher.
func (r *TeacherRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete teachers: %w", err)
	}
	return res.RowsAffected()
}
