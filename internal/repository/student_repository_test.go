package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himilaisan-astr/elts-backend/internal/models"
)

var studentRowColumns = []string{"id", "first_name", "last_name", "email", "phone", "level", "enrollment_date", "active", "created_at", "updated_at"}

func TestStudentListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	active := true
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s WHERE (LOWER(s.first_name || ' ' || s.last_name) LIKE $1 OR LOWER(s.email) LIKE $1) AND s.level = $2 AND s.active = $3 ORDER BY s.last_name ASC LIMIT 10 OFFSET 10")).
		WithArgs("%ana%", "Beginner", true).
		WillReturnRows(sqlmock.NewRows(studentRowColumns).
			AddRow("s-1", "Ana", "Lima", "ana@example.com", "", "Beginner", now, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE")).
		WithArgs("%ana%", "Beginner", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	students, total, err := repo.List(context.Background(), models.StudentFilter{
		Search: " Ana ", Level: models.LevelBeginner, Active: &active,
		Page: 2, PageSize: 10, SortBy: "last_name", SortOrder: "asc",
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, models.LevelBeginner, students[0].Level)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentListIgnoresUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 ORDER BY s.created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(studentRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	students, total, err := repo.List(context.Background(), models.StudentFilter{SortBy: "password; DROP TABLE"})
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentExistsByEmailExcludesSelf(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE LOWER(email) = LOWER($1) AND id <> $2 LIMIT 1")).
		WithArgs("ana@example.com", "s-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.ExistsByEmail(context.Background(), "ana@example.com", "s-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "students_email_key"})

	err := repo.Create(context.Background(), &models.Student{FirstName: "Ana", LastName: "Lima", Email: "ana@example.com", Level: models.LevelBeginner})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentSetActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET active = $1, updated_at = $2 WHERE id = ANY($3)")).
		WithArgs(false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	updated, err := repo.SetActive(context.Background(), []string{"s-1", "s-2"}, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentDeleteRejectedWhileEnrolled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments WHERE student_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	deleted, err := repo.Delete(context.Background(), []string{"s-1", "s-2"})
	assert.ErrorIs(t, err, ErrHasEnrollments)
	assert.Zero(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentDeleteRemovesUnenrolled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments WHERE student_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), []string{"s-1", "s-2"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentDeleteForeignKeyBackstop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM course_enrollments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students")).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	_, err := repo.Delete(context.Background(), []string{"s-1"})
	assert.ErrorIs(t, err, ErrHasEnrollments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentDeleteEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	deleted, err := repo.Delete(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCourse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("JOIN course_enrollments e ON e.student_id = s.id")).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(studentRowColumns).
			AddRow("s-2", "Bo", "Alves", "bo@example.com", "", "Advanced", now, true, now, now).
			AddRow("s-1", "Ana", "Lima", "ana@example.com", "", "Beginner", now, true, now, now))

	students, err := repo.ListByCourse(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Bo Alves", students[0].FullName())
	assert.NoError(t, mock.ExpectationsWereMet())
}
