package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	TeacherExists(ctx context.Context, teacherID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, ids []string) (int64, error)
}

type courseStudentLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Student, error)
}

// CourseService manages courses and their rosters.
type CourseService struct {
	repo      courseRepository
	students  courseStudentLister
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, students courseStudentLister, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, students: students, cache: cache, validator: validate, logger: logger}
}

// List returns courses with seat usage.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	if err := validateIDFilters(map[string]string{"teacher_id": filter.TeacherID}); err != nil {
		return nil, nil, err
	}
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one course with its enrolled count.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, appErrors.ErrCourseNotFound, "course not found", "failed to load course")
	}
	return course, nil
}

// Students lists the students enrolled in a course.
func (s *CourseService) Students(ctx context.Context, id string) ([]models.Student, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	students, err := s.students.ListByCourse(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course students")
	}
	return students, nil
}

// Create adds a course.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*models.CourseDetail, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	course := &models.Course{Active: true}
	applyCourseRequest(course, req)
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return s.Get(ctx, course.ID)
}

// Update replaces a course. Lowering max_students below the current number of
// enrollments is allowed; existing enrollments stay.
func (s *CourseService) Update(ctx context.Context, id string, req dto.CourseRequest) (*models.CourseDetail, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course := existing.Course
	applyCourseRequest(&course, req)
	if err := s.repo.Update(ctx, &course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return s.Get(ctx, id)
}

// SetActive toggles one course.
func (s *CourseService) SetActive(ctx context.Context, id string, active bool) (*models.CourseDetail, error) {
	updated, err := s.repo.SetActive(ctx, []string{id}, active)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course status")
	}
	if updated == 0 {
		return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
	}
	return s.Get(ctx, id)
}

// BulkSetActive toggles many courses.
func (s *CourseService) BulkSetActive(ctx context.Context, ids []string, active bool) (int64, error) {
	if err := validateBulk(s.validator, ids); err != nil {
		return 0, err
	}
	updated, err := s.repo.SetActive(ctx, ids, active)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course status")
	}
	return updated, nil
}

// Delete removes a course without enrollments.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, []string{id})
	if err != nil {
		return mapDeleteError(err, "course")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrCourseNotFound, "course not found")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

// BulkDelete removes all given courses or none of them.
func (s *CourseService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if err := validateBulk(s.validator, ids); err != nil {
		return 0, err
	}
	deleted, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return 0, mapDeleteError(err, "course")
	}
	invalidateDashboard(ctx, s.cache, s.logger)
	return deleted, nil
}

func (s *CourseService) validate(ctx context.Context, req dto.CourseRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.TeacherID == nil || *req.TeacherID == "" {
		return nil
	}
	exists, err := s.repo.TeacherExists(ctx, *req.TeacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate teacher")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return nil
}

func applyCourseRequest(course *models.Course, req dto.CourseRequest) {
	course.Name = strings.TrimSpace(req.Name)
	course.Description = req.Description
	course.Level = models.Level(req.Level)
	course.MaxStudents = req.MaxStudents
	course.Price = req.Price
	course.StartDate = req.StartDate.UTC()
	course.EndDate = req.EndDate.UTC()
	course.TeacherID = nil
	if req.TeacherID != nil && *req.TeacherID != "" {
		teacherID := *req.TeacherID
		course.TeacherID = &teacherID
	}
	if req.Active != nil {
		course.Active = *req.Active
	}
}
