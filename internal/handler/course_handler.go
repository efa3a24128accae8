package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/internal/service"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
	"github.com/himilaisan-astr/elts-backend/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.CourseDetail, error)
	Students(ctx context.Context, id string) ([]models.Student, error)
	Create(ctx context.Context, req dto.CourseRequest) (*models.CourseDetail, error)
	Update(ctx context.Context, id string, req dto.CourseRequest) (*models.CourseDetail, error)
	SetActive(ctx context.Context, id string, active bool) (*models.CourseDetail, error)
	BulkSetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int64, error)
}

type rosterExporter interface {
	CourseRoster(ctx context.Context, courseID string, format service.ExportFormat) (*service.ExportResult, error)
}

// CourseHandler exposes course endpoints including roster downloads.
type CourseHandler struct {
	courses courseService
	exports rosterExporter
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses courseService, exports rosterExporter) *CourseHandler {
	return &CourseHandler{courses: courses, exports: exports}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name"
// @Param level query string false "Filter by level"
// @Param teacher_id query string false "Filter by teacher"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Level:     models.Level(c.Query("level")),
		TeacherID: c.Query("teacher_id"),
		Active:    queryBool(c, "active"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course with enrolled count
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrCourseNotFound)
	if !ok {
		return
	}
	course, err := h.courses.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Students godoc
// @Summary Students enrolled in a course
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/students [get]
func (h *CourseHandler) Students(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrCourseNotFound)
	if !ok {
		return
	}
	students, err := h.courses.Students(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Roster godoc
// @Summary Download course roster
// @Tags Courses
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /courses/{id}/roster [get]
func (h *CourseHandler) Roster(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrCourseNotFound)
	if !ok {
		return
	}
	result, err := h.exports.CourseRoster(c.Request.Context(), id, service.ExportFormat(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope "teacher not found"
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	created(c, course.ID, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrCourseNotFound)
	if !ok {
		return
	}
	var req dto.CourseRequest
	if !bindJSON(c, &req) {
		return
	}
	course, err := h.courses.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Activate godoc
// @Summary Activate course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/activate [put]
func (h *CourseHandler) Activate(c *gin.Context) { h.setActive(c, true) }

// Deactivate godoc
// @Summary Deactivate course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/deactivate [put]
func (h *CourseHandler) Deactivate(c *gin.Context) { h.setActive(c, false) }

func (h *CourseHandler) setActive(c *gin.Context, active bool) {
	id, ok := pathID(c, appErrors.ErrCourseNotFound)
	if !ok {
		return
	}
	course, err := h.courses.SetActive(c.Request.Context(), id, active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// BulkActivate godoc
// @Summary Activate many courses
// @Tags Courses
// @Accept json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Course IDs"
// @Success 200 {object} response.Envelope
// @Router /courses/bulk-activate [put]
func (h *CourseHandler) BulkActivate(c *gin.Context) {
	bulkToggle(c, h.courses.BulkSetActive, true)
}

// BulkDeactivate godoc
// @Summary Deactivate many courses
// @Tags Courses
// @Accept json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Course IDs"
// @Success 200 {object} response.Envelope
// @Router /courses/bulk-deactivate [put]
func (h *CourseHandler) BulkDeactivate(c *gin.Context) {
	bulkToggle(c, h.courses.BulkSetActive, false)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, appErrors.ErrCourseNotFound)
	if !ok {
		return
	}
	if err := h.courses.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkDelete godoc
// @Summary Delete many courses
// @Tags Courses
// @Accept json
// @Security BearerAuth
// @Param payload body dto.BulkIDsRequest true "Course IDs"
// @Success 200 {object} response.Envelope
// @Router /courses/bulk-delete [post]
func (h *CourseHandler) BulkDelete(c *gin.Context) {
	bulkDelete(c, h.courses.BulkDelete)
}
