package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
)

// DashboardRepository aggregates counters for the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats counts students, teachers, courses and paid enrollments, and sums the
// price of courses paid for since monthStart.
func (r *DashboardRepository) Stats(ctx context.Context, monthStart time.Time) (*dto.DashboardStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students) AS total_students,
        (SELECT COUNT(*) FROM teachers) AS total_teachers,
        (SELECT COUNT(*) FROM courses) AS total_courses,
        (SELECT COUNT(*) FROM course_enrollments WHERE payment_status = $1) AS active_enrollments,
        (SELECT COALESCE(SUM(c.price), 0) FROM course_enrollments e JOIN courses c ON c.id = e.course_id
            WHERE e.payment_status = $1 AND e.enrollment_date >= $2) AS revenue_this_month`
	var stats dto.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query, models.PaymentPaid, monthStart); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}
