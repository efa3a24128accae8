package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/internal/repository"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

type enrollmentRepository interface {
	CreateWithinCapacity(ctx context.Context, enrollment *models.Enrollment) error
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	Delete(ctx context.Context, id string) error
}

type enrollmentMetrics interface {
	RecordEnrollment(outcome string)
}

// EnrollmentService enrolls students while respecting course capacity.
type EnrollmentService struct {
	repo      enrollmentRepository
	cache     cacheInvalidator
	metrics   enrollmentMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, cache cacheInvalidator, metrics enrollmentMetrics, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Create enrolls a student. Capacity is checked and the row inserted in one
// transaction holding the course lock.
func (s *EnrollmentService) Create(ctx context.Context, req dto.EnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	enrollment := &models.Enrollment{
		StudentID:     req.StudentID,
		CourseID:      req.CourseID,
		PaymentStatus: models.PaymentStatus(req.PaymentStatus),
	}
	if !enrollment.PaymentStatus.Valid() {
		enrollment.PaymentStatus = models.PaymentPending
	}

	err := s.repo.CreateWithinCapacity(ctx, enrollment)
	s.record(err)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCourseNotFound):
			return nil, appErrors.ErrCourseNotFound
		case errors.Is(err, repository.ErrStudentNotFound):
			return nil, appErrors.ErrStudentNotFound
		case errors.Is(err, repository.ErrCourseFull):
			return nil, appErrors.ErrCourseFull
		case errors.Is(err, repository.ErrAlreadyEnrolled):
			return nil, appErrors.ErrAlreadyEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", enrollment.StudentID),
		zap.String("course_id", enrollment.CourseID))
	invalidateDashboard(ctx, s.cache, s.logger)
	return enrollment, nil
}

// List returns enrollments joined with student and course details.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if err := validateIDFilters(map[string]string{"student_id": filter.StudentID, "course_id": filter.CourseID}); err != nil {
		return nil, nil, err
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid payment_status")
	}
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// UpdatePaymentStatus sets the payment status of an enrollment.
func (s *EnrollmentService) UpdatePaymentStatus(ctx context.Context, id string, req dto.PaymentStatusRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment status")
	}
	if err := s.repo.UpdatePaymentStatus(ctx, id, models.PaymentStatus(req.PaymentStatus)); err != nil {
		return nil, notFoundOr(err, appErrors.ErrNotFound, "enrollment not found", "failed to update payment status")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, appErrors.ErrNotFound, "enrollment not found", "failed to load enrollment")
	}
	return enrollment, nil
}

// Delete withdraws an enrollment and frees its seat.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, appErrors.ErrNotFound, "enrollment not found", "failed to delete enrollment")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

func (s *EnrollmentService) record(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "created"
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrCourseFull):
		outcome = "course_full"
	case errors.Is(err, repository.ErrAlreadyEnrolled):
		outcome = "already_enrolled"
	case errors.Is(err, repository.ErrCourseNotFound), errors.Is(err, repository.ErrStudentNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	s.metrics.RecordEnrollment(outcome)
}
