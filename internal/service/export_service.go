package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
	"github.com/himilaisan-astr/elts-backend/pkg/export"
)

// ExportFormat selects the roster renderer.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type rosterSource interface {
	Get(ctx context.Context, id string) (*models.CourseDetail, error)
	Students(ctx context.Context, id string) ([]models.Student, error)
}

type datasetRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered file ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders course rosters as downloadable files.
type ExportService struct {
	courses   rosterSource
	renderers map[ExportFormat]datasetRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(courses rosterSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		courses: courses,
		renderers: map[ExportFormat]datasetRenderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		logger: logger,
	}
}

var rosterColumns = []export.Column{
	{Key: "last_name", Label: "Last name", Width: 2},
	{Key: "first_name", Label: "First name", Width: 2},
	{Key: "email", Label: "Email", Width: 3},
	{Key: "phone", Label: "Phone", Width: 2},
	{Key: "level", Label: "Level", Width: 1.5},
	{Key: "active", Label: "Active", Width: 1},
}

// CourseRoster renders the students of a course in the requested format.
func (s *ExportService) CourseRoster(ctx context.Context, courseID string, format ExportFormat) (*ExportResult, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	students, err := s.courses.Students(ctx, courseID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Title:   fmt.Sprintf("%s (%s) - %d/%d enrolled", course.Name, course.Level, len(students), course.MaxStudents),
		Columns: rosterColumns,
		Rows:    make([]map[string]string, 0, len(students)),
	}
	for _, st := range students {
		active := "no"
		if st.Active {
			active = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"last_name":  st.LastName,
			"first_name": st.FirstName,
			"email":      st.Email,
			"phone":      st.Phone,
			"level":      string(st.Level),
			"active":     active,
		})
	}

	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	s.logger.Debug("roster exported", zap.String("course_id", courseID), zap.String("format", renderer.Extension()), zap.Int("rows", len(students)))
	return &ExportResult{
		Filename:    fmt.Sprintf("roster-%s-%s.%s", slug(course.Name), time.Now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "course"
	}
	return out
}
