package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/internal/repository"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	SetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, ids []string) (int64, error)
}

// TeacherService manages teachers.
type TeacherService struct {
	repo      teacherRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService builds TeacherService.
func NewTeacherService(repo teacherRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns teachers with pagination.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, appErrors.ErrNotFound, "teacher not found", "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher.
func (s *TeacherService) Create(ctx context.Context, req dto.TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher := &models.Teacher{Active: true}
	applyTeacherRequest(teacher, req)
	if err := s.ensureEmailFree(ctx, teacher.Email, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, s.writeError(err, "failed to create teacher")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return teacher, nil
}

// Update modifies a teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req dto.TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyTeacherRequest(teacher, req)
	if err := s.ensureEmailFree(ctx, teacher.Email, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, s.writeError(err, "failed to update teacher")
	}
	return teacher, nil
}

// SetActive toggles one teacher.
func (s *TeacherService) SetActive(ctx context.Context, id string, active bool) (*models.Teacher, error) {
	updated, err := s.repo.SetActive(ctx, []string{id}, active)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher status")
	}
	if updated == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return s.Get(ctx, id)
}

// BulkSetActive toggles many teachers.
func (s *TeacherService) BulkSetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	if err := validateBulk(s.validator, ids); err != nil {
		return 0, err
	}
	updated, err := s.repo.SetActive(ctx, ids, active)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher status")
	}
	return updated, nil
}

// Delete removes a teacher; its courses become unassigned.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, []string{id})
	if err != nil {
		return mapDeleteError(err, "teacher")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// BulkDelete removes many teachers.
func (s *TeacherService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if err := validateBulk(s.validator, ids); err != nil {
		return 0, err
	}
	deleted, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return 0, mapDeleteError(err, "teacher")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return deleted, nil
}

func (s *TeacherService) ensureEmailFree(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}
	return nil
}

func (s *TeacherService) writeError(err error, action string) error {
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, action)
}

func applyTeacherRequest(teacher *models.Teacher, req dto.TeacherRequest) {
	teacher.FirstName = strings.TrimSpace(req.FirstName)
	teacher.LastName = strings.TrimSpace(req.LastName)
	teacher.Email = strings.ToLower(strings.TrimSpace(req.Email))
	teacher.Phone = req.Phone
	teacher.Specialization = req.Specialization
	teacher.Bio = req.Bio
	if req.Active != nil {
		teacher.Active = *req.Active
	}
}
