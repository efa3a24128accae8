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

var errTeacherNotFound = appErrors.Clone(appErrors.ErrNotFound, "teacher not found")

type teacherService interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, req dto.TeacherRequest) (*models.Teacher, error)
	Update(ctx context.Context, id string, req dto.TeacherRequest) (*models.Teacher, error)
	SetActive(ctx context.Context, id string, active bool) (*models.Teacher, error)
	BulkSetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int64, error)
}

// TeacherHandler wires teacher services to HTTP routes.
type TeacherHandler struct {
	teachers teacherService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers teacherService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name, email or specialization"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter := models.TeacherFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Active:    queryBool(c, "active"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	teachers, pagination, err := h.teachers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// Get godoc
// @Summary Get teacher
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	id, ok := pathID(c, errTeacherNotFound)
	if !ok {
		return
	}
	teacher, err := h.teachers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req dto.TeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	created(c, teacher.ID, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param payload body dto.TeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	id, ok := pathID(c, errTeacherNotFound)
	if !ok {
		return
	}
	var req dto.TeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Activate godoc
// @Summary Activate teacher
// @Tags Teachers
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/activate [put]
func (h *TeacherHandler) Activate(c *gin.Context) { h.setActive(c, true) }

// Deactivate godoc
// @Summary Deactivate teacher
// @Tags Teachers
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/deactivate [put]
func (h *TeacherHandler) Deactivate(c *gin.Context) { h.setActive(c, false) }

func (h *TeacherHandler) setActive(c *gin.Context, active bool) {
	id, ok := pathID(c, errTeacherNotFound)
	if !ok {
		return
	}
	teacher, err := h.teachers.SetActive(c.Request.Context(), id, active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// BulkActivate godoc
// @Summary Activate many teachers
// @Tags Teachers
// @Accept json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Teacher IDs"
// @Success 200 {object} response.Envelope
// @Router /teachers/bulk-activate [put]
func (h *TeacherHandler) BulkActivate(c *gin.Context) {
	bulkToggle(c, h.teachers.BulkSetActive, true)
}

// BulkDeactivate godoc
// @Summary Deactivate many teachers
// @Tags Teachers
// @Accept json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Teacher IDs"
// @Success 200 {object} response.Envelope
// @Router /teachers/bulk-deactivate [put]
func (h *TeacherHandler) BulkDeactivate(c *gin.Context) {
	bulkToggle(c, h.teachers.BulkSetActive, false)
}

// Delete godoc
// @Summary Delete teacher
// @Description Courses taught by the teacher keep running without one.
// @Tags Teachers
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, errTeacherNotFound)
	if !ok {
		return
	}
	if err := h.teachers.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkDelete godoc
// @Summary Delete many teachers
// @Tags Teachers
// @Accept json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Teacher IDs"
// @Success 200 {object} response.Envelope
// @Router /teachers/bulk-delete [post]
func (h *TeacherHandler) BulkDelete(c *gin.Context) {
	bulkDelete(c, h.teachers.BulkDelete)
}
