package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
	"github.com/noah-isme/sis-portal/pkg/export"
)

type courseAttendanceSource interface {
	GetCourseAttendanceSummary(ctx context.Context, courseID string) models.CourseAttendanceSummary
}

type courseResultSource interface {
	GetCourseResultsDetailed(ctx context.Context, courseID string) []models.DetailedResult
}

// RenderedExport is a dataset encoded for download.
type RenderedExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService turns course attendance and results into tabular files.
type ExportService struct {
	attendance courseAttendanceSource
	results    courseResultSource
	courses    courseReader
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(attendance courseAttendanceSource, results courseResultSource, courses courseReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{attendance: attendance, results: results, courses: courses, logger: logger, now: time.Now}
}

// CourseResults builds the marks sheet for a course.
func (s *ExportService) CourseResults(ctx context.Context, courseID string) (export.Dataset, error) {
	course, err := s.course(ctx, courseID)
	if err != nil {
		return export.Dataset{}, err
	}
	detailed := s.results.GetCourseResultsDetailed(ctx, courseID)
	rows := make([][]string, 0, len(detailed))
	for _, r := range detailed {
		rows = append(rows, []string{
			r.StudentID,
			r.StudentName,
			strconv.Itoa(r.Quiz1),
			strconv.Itoa(r.Quiz2),
			strconv.Itoa(r.Midterm),
			strconv.Itoa(r.Final),
			strconv.Itoa(r.Assignment),
			strconv.Itoa(r.TotalMarks),
			fmt.Sprintf("%d%%", GetPercentage(r.TotalMarks)),
			string(r.Grade),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s Results", course.Code),
		Headers: []string{"Student ID", "Student Name", "Quiz 1", "Quiz 2", "Midterm", "Final", "Assignment", "Total", "Percentage", "Grade"},
		Rows:    rows,
	}, nil
}

// CourseAttendance builds the attendance register summary for a course.
func (s *ExportService) CourseAttendance(ctx context.Context, courseID string) (export.Dataset, error) {
	course, err := s.course(ctx, courseID)
	if err != nil {
		return export.Dataset{}, err
	}
	summary := s.attendance.GetCourseAttendanceSummary(ctx, courseID)
	rows := make([][]string, 0, len(summary.StudentSummaries))
	for _, line := range summary.StudentSummaries {
		rows = append(rows, []string{
			line.StudentID,
			line.StudentName,
			strconv.Itoa(line.Present),
			strconv.Itoa(line.Absent),
			strconv.Itoa(line.Total),
			fmt.Sprintf("%d%%", line.Percentage),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s Attendance", course.Code),
		Headers: []string{"Student ID", "Student Name", "Present", "Absent", "Total", "Attendance"},
		Rows:    rows,
	}, nil
}

// Render builds the dataset for reportType and encodes it in format.
func (s *ExportService) Render(ctx context.Context, reportType models.ReportType, courseID string, format export.Format) (*RenderedExport, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}

	var dataset export.Dataset
	switch reportType {
	case models.ReportTypeAttendance:
		dataset, err = s.CourseAttendance(ctx, courseID)
	case models.ReportTypeResults:
		dataset, err = s.CourseResults(ctx, courseID)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(dataset)
	if err != nil {
		s.logger.Error("render export", zap.String("course_id", courseID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &RenderedExport{
		Filename:    s.buildFilename(reportType, courseID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        payload,
	}, nil
}

func (s *ExportService) course(ctx context.Context, courseID string) (*models.Course, error) {
	for _, course := range s.courses.All(ctx) {
		if course.ID == courseID {
			c := course
			return &c, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

func (s *ExportService) buildFilename(reportType models.ReportType, courseID, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(reportType)), sanitizeFilename(courseID), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
