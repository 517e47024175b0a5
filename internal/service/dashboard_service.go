package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
)

// Standing thresholds applied to a student's overall attendance.
const (
	GoodStandingPercent     = 75
	NeedsImprovementPercent = 50
	recentResultsLimit      = 5
)

type attendanceAggregator interface {
	GetOverallAttendance(ctx context.Context, studentID string) models.AttendanceStats
	GetCourseAttendanceSummary(ctx context.Context, courseID string) models.CourseAttendanceSummary
	GetStudentsAtRisk(ctx context.Context, threshold int) []models.AtRiskStudent
}

type resultAggregator interface {
	GetStudentResults(ctx context.Context, studentID string) []models.ResultRecord
	GetCourseResults(ctx context.Context, courseID string) []models.ResultRecord
	GetStudentGPA(ctx context.Context, studentID string) models.GPAInfo
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	RiskThreshold int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Attendance attendanceAggregator
	Results    resultAggregator
	Students   studentReader
	Teachers   teacherReader
	Courses    courseReader
	Cache      *CacheService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// DashboardService composes the per-role dashboard payloads.
type DashboardService struct {
	attendance attendanceAggregator
	results    resultAggregator
	students   studentReader
	teachers   teacherReader
	courses    courseReader
	cache      *CacheService
	logger     *zap.Logger
	cfg        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RiskThreshold <= 0 {
		cfg.RiskThreshold = DefaultRiskThreshold
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		attendance: params.Attendance,
		results:    params.Results,
		students:   params.Students,
		teachers:   params.Teachers,
		courses:    params.Courses,
		cache:      params.Cache,
		logger:     logger,
		cfg:        cfg,
	}
}

// Admin returns portal-wide counters and indicates cache utilisation.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	const cacheKey = "dashboard:admin"
	var cached models.AdminDashboard
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return &cached, true, nil
	}

	students := s.students.All(ctx)
	percentages := make([]int, 0, len(students))
	for _, student := range students {
		stats := s.attendance.GetOverallAttendance(ctx, student.ID)
		if stats.Total > 0 {
			percentages = append(percentages, stats.Percentage)
		}
	}

	summary := &models.AdminDashboard{
		TotalStudents:     len(students),
		TotalTeachers:     len(s.teachers.All(ctx)),
		TotalCourses:      len(s.courses.All(ctx)),
		AverageAttendance: averageOf(percentages),
		StudentsAtRisk:    len(s.attendance.GetStudentsAtRisk(ctx, s.cfg.RiskThreshold)),
	}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

// Teacher returns the dashboard for the courses taught by teacherID.
func (s *DashboardService) Teacher(ctx context.Context, teacherID string) (*models.TeacherDashboard, bool, error) {
	if teacherID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	cacheKey := fmt.Sprintf("dashboard:teacher:%s", teacherID)
	var cached models.TeacherDashboard
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return &cached, true, nil
	}

	courses := make([]models.Course, 0)
	for _, course := range s.courses.All(ctx) {
		if course.TeacherID == teacherID {
			courses = append(courses, course)
		}
	}

	enrolled := make(map[string]struct{})
	students := s.students.All(ctx)
	averages := make([]int, 0, len(courses))
	uploaded := 0
	for _, course := range courses {
		for _, student := range students {
			if student.IsEnrolledIn(course.ID) {
				enrolled[student.ID] = struct{}{}
			}
		}
		if avg := s.attendance.GetCourseAttendanceSummary(ctx, course.ID).AverageAttendance; avg > 0 {
			averages = append(averages, avg)
		}
		uploaded += len(s.results.GetCourseResults(ctx, course.ID))
	}

	summary := &models.TeacherDashboard{
		TeacherID:         teacherID,
		Courses:           courses,
		TotalStudents:     len(enrolled),
		AverageAttendance: averageOf(averages),
		ResultsUploaded:   uploaded,
	}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

// Student returns GPA, attendance and standing for studentID.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*models.StudentDashboard, bool, error) {
	if studentID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	cacheKey := fmt.Sprintf("dashboard:student:%s", studentID)
	var cached models.StudentDashboard
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return &cached, true, nil
	}

	enrolledCount := 0
	for _, student := range s.students.All(ctx) {
		if student.ID == studentID {
			enrolledCount = len(student.EnrolledCourses)
			break
		}
	}

	attendance := s.attendance.GetOverallAttendance(ctx, studentID)
	results := s.results.GetStudentResults(ctx, studentID)
	recent := make([]models.ResultRecord, len(results))
	copy(recent, results)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > recentResultsLimit {
		recent = recent[:recentResultsLimit]
	}

	summary := &models.StudentDashboard{
		StudentID:        studentID,
		GPA:              s.results.GetStudentGPA(ctx, studentID),
		Attendance:       attendance,
		Standing:         Standing(attendance.Percentage),
		EnrolledCourses:  enrolledCount,
		ResultsPublished: len(results),
		RecentResults:    recent,
	}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

// Standing labels an overall attendance percentage.
func Standing(percentage int) models.StandingLabel {
	switch {
	case percentage >= GoodStandingPercent:
		return models.StandingGood
	case percentage >= NeedsImprovementPercent:
		return models.StandingNeedsImprovement
	default:
		return models.StandingAtRisk
	}
}

func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	return s.cache.Get(ctx, key, dest)
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
