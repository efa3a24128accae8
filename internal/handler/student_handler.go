package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
	"github.com/himilaisan-astr/elts-backend/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Student, error)
	BulkSetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int64, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name or email"
// @Param level query string false "Filter by level"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort column"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Level:     models.Level(c.Query("level")),
		Active:    queryBool(c, "active"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrStudentNotFound)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	created(c, student.ID, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrStudentNotFound)
	if !ok {
		return
	}
	var req dto.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Activate godoc
// @Summary Activate student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/activate [put]
func (h *StudentHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate godoc
// @Summary Deactivate student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/deactivate [put]
func (h *StudentHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *StudentHandler) setActive(c *gin.Context, active bool) {
	id, ok := pathID(c, appErrors.ErrStudentNotFound)
	if !ok {
		return
	}
	student, err := h.students.SetActive(c.Request.Context(), id, active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// BulkActivate godoc
// @Summary Activate many students
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Student IDs"
// @Success 200 {object} response.Envelope
// @Router /students/bulk-activate [put]
func (h *StudentHandler) BulkActivate(c *gin.Context) {
	bulkToggle(c, h.students.BulkSetActive, true)
}

// BulkDeactivate godoc
// @Summary Deactivate many students
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Student IDs"
// @Success 200 {object} response.Envelope
// @Router /students/bulk-deactivate [put]
func (h *StudentHandler) BulkDeactivate(c *gin.Context) {
	bulkToggle(c, h.students.BulkSetActive, false)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrStudentNotFound)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkDelete godoc
// @Summary Delete many students
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Student IDs"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/bulk-delete [post]
func (h *StudentHandler) BulkDelete(c *gin.Context) {
	bulkDelete(c, h.students.BulkDelete)
}
