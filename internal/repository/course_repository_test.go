package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himilaisan-astr/elts-backend/internal/models"
)

var courseRowColumns = []string{"id", "name", "description", "level", "max_students", "price", "start_date", "end_date",
	"teacher_id", "active", "created_at", "updated_at", "enrolled_count", "teacher_name"}

func TestCourseFindByIDIncludesSeatUsage(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN teachers t ON t.id = c.teacher_id WHERE c.id = $1")).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow("c-1", "General English", "", "Beginner", 10, 150.0, now, now, "t-1", true, now, now, 7, "Jane Doe"))

	course, err := repo.FindByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 7, course.EnrolledCount)
	assert.Equal(t, 3, course.SeatsLeft())
	require.NotNil(t, course.TeacherName)
	assert.Equal(t, "Jane Doe", *course.TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseListByTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.teacher_id = $1 ORDER BY c.price ASC LIMIT 20 OFFSET 0")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow("c-1", "IELTS Prep", "", "Advanced", 8, 300.0, now, now, nil, true, now, now, 0, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses c WHERE c.teacher_id = $1")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{TeacherID: "t-1", SortBy: "price", SortOrder: "ASC"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Nil(t, courses[0].TeacherName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseTeacherExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM teachers WHERE id = $1)")).
		WithArgs("t-404").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.TeacherExists(context.Background(), "t-404")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseDeleteRejectedWhileEnrolled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments WHERE course_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), []string{"c-1"})
	assert.ErrorIs(t, err, ErrHasEnrollments)
	assert.NoError(t, mock.ExpectationsWereMet())
}
