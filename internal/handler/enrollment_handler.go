package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
	"github.com/himilaisan-astr/elts-backend/pkg/response"
)

var errEnrollmentNotFound = appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")

type enrollmentService interface {
	Create(ctx context.Context, req dto.EnrollmentRequest) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error)
	UpdatePaymentStatus(ctx context.Context, id string, req dto.PaymentStatusRequest) (*models.EnrollmentDetail, error)
	Delete(ctx context.Context, id string) error
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Filter by student"
// @Param course_id query string false "Filter by course"
// @Param payment_status query string false "Pending, Paid or Refunded"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		StudentID:     c.Query("student_id"),
		CourseID:      c.Query("course_id"),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Create godoc
// @Summary Enroll a student in a course
// @Description Fails with COURSE_FULL once the course has no seats left.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.EnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req dto.EnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	created(c, enrollment.ID, enrollment)
}

// UpdatePaymentStatus godoc
// @Summary Update payment status
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body dto.PaymentStatusRequest true "Payment status"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/payment-status [put]
func (h *EnrollmentHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := pathID(c, errEnrollmentNotFound)
	if !ok {
		return
	}
	var req dto.PaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.UpdatePaymentStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Delete godoc
// @Summary Withdraw enrollment
// @Tags Enrollments
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, errEnrollmentNotFound)
	if !ok {
		return
	}
	if err := h.enrollments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
