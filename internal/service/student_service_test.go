package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/internal/repository"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	enrolled   map[string]bool
	lastFilter models.StudentFilter
	listTotal  int
}

func newMockStudentRepo(students ...models.Student) *mockStudentRepo {
	repo := &mockStudentRepo{students: map[string]models.Student{}, enrolled: map[string]bool{}}
	for _, s := range students {
		repo.students[s.ID] = s
	}
	return repo
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	for id, s := range m.students {
		if s.Email == email && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) SetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	var n int64
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			s.Active = active
			m.students[id] = s
			n++
		}
	}
	return n, nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	for _, id := range ids {
		if m.enrolled[id] {
			return 0, repository.ErrHasEnrollments
		}
	}
	var n int64
	for _, id := range ids {
		if _, ok := m.students[id]; ok {
			delete(m.students, id)
			n++
		}
	}
	return n, nil
}

type spyInvalidator struct {
	patterns []string
}

func (s *spyInvalidator) Invalidate(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

const (
	studentAna = "2b1f3c4e-9d6a-4b7e-8f1a-0c2d3e4f5a6b"
	studentBo  = "7c8d9e0f-1a2b-4c3d-9e4f-5a6b7c8d9e0f"
)

func TestStudentServiceList(t *testing.T) {
	repo := newMockStudentRepo(models.Student{ID: studentAna})
	repo.listTotal = 41
	svc := NewStudentService(repo, nil, nil, nil)

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{Page: 3, PageSize: 20, Level: models.LevelAdvanced})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, &models.Pagination{Page: 3, PageSize: 20, TotalCount: 41}, pagination)
	assert.Equal(t, models.LevelAdvanced, repo.lastFilter.Level)
}

func TestStudentServiceCreate(t *testing.T) {
	repo := newMockStudentRepo()
	cache := &spyInvalidator{}
	svc := NewStudentService(repo, cache, nil, nil)

	student, err := svc.Create(context.Background(), dto.StudentRequest{
		FirstName: " Ana ", LastName: "Lima", Email: "Ana@Example.com", Level: "Beginner",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", student.FirstName)
	assert.Equal(t, "ana@example.com", student.Email)
	assert.True(t, student.Active)
	assert.False(t, student.EnrollmentDate.IsZero())
	assert.Equal(t, []string{"dash:*"}, cache.patterns)
}

func TestStudentServiceCreateRejects(t *testing.T) {
	repo := newMockStudentRepo(models.Student{ID: studentAna, Email: "ana@example.com"})
	svc := NewStudentService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.StudentRequest{FirstName: "A", LastName: "L", Email: "ana@example.com", Level: "Beginner"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(ctx, dto.StudentRequest{FirstName: "A", LastName: "L", Email: "x@example.com", Level: "Fluent"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStudentServiceUpdateKeepsOwnEmail(t *testing.T) {
	repo := newMockStudentRepo(models.Student{ID: studentAna, Email: "ana@example.com", Active: true})
	svc := NewStudentService(repo, nil, nil, nil)

	inactive := false
	student, err := svc.Update(context.Background(), studentAna, dto.StudentRequest{
		FirstName: "Ana", LastName: "Souza", Email: "ana@example.com", Level: "Intermediate", Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Souza", student.LastName)
	assert.False(t, student.Active)

	_, err = svc.Update(context.Background(), studentBo, dto.StudentRequest{FirstName: "B", LastName: "A", Email: "bo@example.com", Level: "Beginner"})
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)
}

func TestStudentServiceActivation(t *testing.T) {
	repo := newMockStudentRepo(models.Student{ID: studentAna, Active: true}, models.Student{ID: studentBo, Active: true})
	svc := NewStudentService(repo, nil, nil, nil)
	ctx := context.Background()

	student, err := svc.SetActive(ctx, studentAna, false)
	require.NoError(t, err)
	assert.False(t, student.Active)

	_, err = svc.SetActive(ctx, "3f3f3f3f-3f3f-4f3f-8f3f-3f3f3f3f3f3f", true)
	assert.ErrorIs(t, err, appErrors.ErrStudentNotFound)

	updated, err := svc.BulkSetActive(ctx, []string{studentAna, studentBo}, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	_, err = svc.BulkSetActive(ctx, []string{"not-a-uuid"}, true)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.BulkSetActive(ctx, nil, true)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStudentServiceDelete(t *testing.T) {
	repo := newMockStudentRepo(models.Student{ID: studentAna}, models.Student{ID: studentBo})
	repo.enrolled[studentBo] = true
	cache := &spyInvalidator{}
	svc := NewStudentService(repo, cache, nil, nil)
	ctx := context.Background()

	err := svc.Delete(ctx, studentBo)
	assert.ErrorIs(t, err, appErrors.ErrHasEnrollments)
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	_, err = svc.BulkDelete(ctx, []string{studentAna, studentBo})
	assert.ErrorIs(t, err, appErrors.ErrHasEnrollments)
	assert.Len(t, repo.students, 2, "bulk delete is all-or-nothing")

	require.NoError(t, svc.Delete(ctx, studentAna))
	assert.ErrorIs(t, svc.Delete(ctx, studentAna), appErrors.ErrStudentNotFound)
	assert.Equal(t, []string{"dash:*"}, cache.patterns)
}
