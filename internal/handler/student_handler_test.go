package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

type fakeStudentService struct {
	filter    models.StudentFilter
	created   dto.StudentRequest
	bulkIDs   []string
	bulkState *bool
	getCalls  int
	err       error
}

func (f *fakeStudentService) List(_ context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	f.filter = filter
	return []models.Student{{ID: studentID, FirstName: "Ana"}}, models.NewPagination(filter.Page, filter.PageSize, 1), f.err
}

func (f *fakeStudentService) Get(_ context.Context, id string) (*models.Student, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Student{ID: id}, nil
}

func (f *fakeStudentService) Create(_ context.Context, req dto.StudentRequest) (*models.Student, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Student{ID: studentID, FirstName: req.FirstName, Email: req.Email}, nil
}

func (f *fakeStudentService) Update(_ context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	return &models.Student{ID: id, FirstName: req.FirstName}, f.err
}

func (f *fakeStudentService) SetActive(_ context.Context, id string, active bool) (*models.Student, error) {
	f.bulkState = &active
	return &models.Student{ID: id, Active: active}, f.err
}

func (f *fakeStudentService) BulkSetActive(_ context.Context, ids []string, active bool) (int64, error) {
	f.bulkIDs = ids
	f.bulkState = &active
	return int64(len(ids)), f.err
}

func (f *fakeStudentService) Delete(context.Context, string) error {
	return f.err
}

func (f *fakeStudentService) BulkDelete(_ context.Context, ids []string) (int64, error) {
	f.bulkIDs = ids
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(ids)), nil
}

func TestStudentHandlerListParsesFilters(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc)

	rec := perform(http.MethodGet, "/students", "/students?search=+ana+&level=Beginner&active=false&page=2&limit=5&sort=email&order=asc", "", h.List)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana", svc.filter.Search)
	assert.Equal(t, models.LevelBeginner, svc.filter.Level)
	require.NotNil(t, svc.filter.Active)
	assert.False(t, *svc.filter.Active)
	assert.Equal(t, 2, svc.filter.Page)
	assert.Equal(t, 5, svc.filter.PageSize)
	assert.Equal(t, "email", svc.filter.SortBy)
	assert.Equal(t, "asc", svc.filter.SortOrder)

	env := decode(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestStudentHandlerRejectsMalformedID(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc)

	rec := perform(http.MethodGet, "/students/:id", "/students/42", "", h.Get)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, appErrors.ErrStudentNotFound.Code, decode(t, rec).Error.Code)
	assert.Zero(t, svc.getCalls)
}

func TestStudentHandlerCreate(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc)
	body := `{"first_name":"Ana","last_name":"Silva","email":"ana@example.com","level":"Beginner"}`

	rec := perform(http.MethodPost, "/students", "/students", body, h.Create)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ana@example.com", svc.created.Email)
	var student models.Student
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &student))
	assert.Equal(t, studentID, student.ID)
}

func TestStudentHandlerCreateInvalidJSON(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{})

	rec := perform(http.MethodPost, "/students", "/students", `{"first_name":`, h.Create)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, rec).Error.Code)
}

func TestStudentHandlerCreateConflict(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{err: appErrors.Clone(appErrors.ErrConflict, "email already exists")})
	body := `{"first_name":"Ana","last_name":"Silva","email":"ana@example.com","level":"Beginner"}`

	rec := perform(http.MethodPost, "/students", "/students", body, h.Create)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStudentHandlerDeactivate(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc)

	rec := perform(http.MethodPut, "/students/:id/deactivate", "/students/"+studentID+"/deactivate", "", h.Deactivate)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.bulkState)
	assert.False(t, *svc.bulkState)
}

func TestStudentHandlerBulkActivate(t *testing.T) {
	svc := &fakeStudentService{}
	h := NewStudentHandler(svc)

	rec := perform(http.MethodPut, "/students/bulk-activate", "/students/bulk-activate", `{"ids":["a","b","c"]}`, h.BulkActivate)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"a", "b", "c"}, svc.bulkIDs)
	require.NotNil(t, svc.bulkState)
	assert.True(t, *svc.bulkState)

	var resp dto.BulkUpdateResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &resp))
	assert.Equal(t, int64(3), resp.Updated)
}

func TestStudentHandlerDelete(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{})

	rec := perform(http.MethodDelete, "/students/:id", "/students/"+studentID, "", h.Delete)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStudentHandlerDeleteWithEnrollments(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{err: appErrors.Clone(appErrors.ErrHasEnrollments, "student has enrollments")})

	rec := perform(http.MethodDelete, "/students/:id", "/students/"+studentID, "", h.Delete)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, appErrors.ErrHasEnrollments.Code, decode(t, rec).Error.Code)
}

func TestStudentHandlerBulkDelete(t *testing.T) {
	h := NewStudentHandler(&fakeStudentService{})

	rec := perform(http.MethodPost, "/students/bulk-delete", "/students/bulk-delete", `{"ids":["a","b"]}`, h.BulkDelete)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.BulkDeleteResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &resp))
	assert.Equal(t, int64(2), resp.Deleted)
}
