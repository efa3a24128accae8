package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/internal/repository"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, ids []string) (int64, error)
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, appErrors.ErrStudentNotFound, "student not found", "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{Active: true}
	applyStudentRequest(student, req)
	if err := s.ensureEmailFree(ctx, student.Email, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, s.writeError(err, "failed to create student")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return student, nil
}

// Update replaces the editable fields of a student.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStudentRequest(student, req)
	if err := s.ensureEmailFree(ctx, student.Email, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, s.writeError(err, "failed to update student")
	}
	return student, nil
}

// SetActive toggles one student and returns the updated record.
func (s *StudentService) SetActive(ctx context.Context, id string, active bool) (*models.Student, error) {
	updated, err := s.repo.SetActive(ctx, []string{id}, active)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	if updated == 0 {
		return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "student not found")
	}
	return s.Get(ctx, id)
}

// BulkSetActive toggles many students and reports how many rows changed.
func (s *StudentService) BulkSetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	if err := validateBulk(s.validator, ids); err != nil {
		return 0, err
	}
	updated, err := s.repo.SetActive(ctx, ids, active)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	return updated, nil
}

// Delete removes a student without enrollments.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, []string{id})
	if err != nil {
		return mapDeleteError(err, "student")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrStudentNotFound, "student not found")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// BulkDelete removes all given students or none of them.
func (s *StudentService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if err := validateBulk(s.validator, ids); err != nil {
		return 0, err
	}
	deleted, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return 0, mapDeleteError(err, "student")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return deleted, nil
}

func (s *StudentService) ensureEmailFree(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}
	return nil
}

func (s *StudentService) writeError(err error, action string) error {
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, action)
}

func applyStudentRequest(student *models.Student, req dto.StudentRequest) {
	student.FirstName = strings.TrimSpace(req.FirstName)
	student.LastName = strings.TrimSpace(req.LastName)
	student.Email = strings.ToLower(strings.TrimSpace(req.Email))
	student.Phone = req.Phone
	student.Level = models.Level(req.Level)
	if req.EnrollmentDate != nil {
		student.EnrollmentDate = req.EnrollmentDate.UTC()
	} else if student.EnrollmentDate.IsZero() {
		student.EnrollmentDate = time.Now().UTC()
	}
	if req.Active != nil {
		student.Active = *req.Active
	}
}
