package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	monthStart := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.payment_status = $1 AND e.enrollment_date >= $2")).
		WithArgs("Paid", monthStart).
		WillReturnRows(sqlmock.NewRows([]string{"total_students", "total_teachers", "total_courses", "active_enrollments", "revenue_this_month"}).
			AddRow(42, 5, 7, 30, 4500.5))

	stats, err := repo.Stats(context.Background(), monthStart)
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalStudents)
	assert.Equal(t, 30, stats.ActiveEnrollments)
	assert.InDelta(t, 4500.5, stats.RevenueThisMonth, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
