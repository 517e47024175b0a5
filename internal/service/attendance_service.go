package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
)

// DefaultRiskThreshold is the attendance percentage below which a student is at risk.
const DefaultRiskThreshold = 75

type attendanceStore interface {
	All(ctx context.Context) []models.AttendanceRecord
	Update(ctx context.Context, mutate func([]models.AttendanceRecord) ([]models.AttendanceRecord, error)) error
}

type studentReader interface {
	All(ctx context.Context) []models.Student
}

type courseReader interface {
	All(ctx context.Context) []models.Course
}

type sessionReader interface {
	Current(ctx context.Context) (*models.Session, bool)
}

// AttendanceService derives attendance statistics and risk classification from raw attendance events.
type AttendanceService struct {
	attendance attendanceStore
	students   studentReader
	courses    courseReader
	sessions   sessionReader
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService constructs the attendance aggregator.
func NewAttendanceService(attendance attendanceStore, students studentReader, courses courseReader, sessions sessionReader, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendance: attendance,
		students:   students,
		courses:    courses,
		sessions:   sessions,
		logger:     logger,
		now:        time.Now,
	}
}

// MarkAttendance upserts the record for (courseID, studentID, date). Inputs are not validated.
func (s *AttendanceService) MarkAttendance(ctx context.Context, courseID, studentID, date string, status models.AttendanceStatus) (*models.Result, error) {
	record := models.AttendanceRecord{
		ID:        models.AttendanceID(courseID, studentID, date),
		CourseID:  courseID,
		StudentID: studentID,
		Date:      date,
		Status:    status,
		MarkedBy:  s.actor(ctx),
		MarkedAt:  s.now().UTC(),
	}

	err := s.attendance.Update(ctx, func(records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
		for i := range records {
			if records[i].SameSlot(courseID, studentID, date) {
				records[i] = record
				return records, nil
			}
		}
		return append(records, record), nil
	})
	if err != nil {
		s.logger.Error("attendance save failed", zap.String("course_id", courseID), zap.String("student_id", studentID), zap.String("date", date), zap.Error(err))
		return nil, saveError(err, "failed to save attendance")
	}
	return &models.Result{Success: true, Message: "Attendance marked successfully", Count: 1}, nil
}

// MarkBulkAttendance marks every entry in order. Entries written before a failure stay written.
func (s *AttendanceService) MarkBulkAttendance(ctx context.Context, courseID, date string, entries []models.AttendanceEntry) (*models.Result, error) {
	count := 0
	for _, entry := range entries {
		if _, err := s.MarkAttendance(ctx, courseID, entry.StudentID, date, entry.Status); err != nil {
			s.logger.Warn("bulk attendance stopped", zap.String("course_id", courseID), zap.Int("processed", count), zap.Error(err))
			return &models.Result{Success: false, Message: fmt.Sprintf("Attendance marked for %d students", count), Count: count}, err
		}
		count++
	}
	return &models.Result{Success: true, Message: fmt.Sprintf("Attendance marked for %d students", count), Count: count}, nil
}

// GetAttendanceByDate returns the course's records for one day.
func (s *AttendanceService) GetAttendanceByDate(ctx context.Context, courseID, date string) []models.AttendanceRecord {
	return s.filter(ctx, func(r models.AttendanceRecord) bool {
		return r.CourseID == courseID && r.Date == date
	})
}

// GetStudentAttendance returns every record of a student.
func (s *AttendanceService) GetStudentAttendance(ctx context.Context, studentID string) []models.AttendanceRecord {
	return s.filter(ctx, func(r models.AttendanceRecord) bool { return r.StudentID == studentID })
}

// GetStudentCourseAttendance returns a student's records for one course.
func (s *AttendanceService) GetStudentCourseAttendance(ctx context.Context, studentID, courseID string) []models.AttendanceRecord {
	return s.filter(ctx, func(r models.AttendanceRecord) bool {
		return r.StudentID == studentID && r.CourseID == courseID
	})
}

// GetCourseAttendance returns every record of a course.
func (s *AttendanceService) GetCourseAttendance(ctx context.Context, courseID string) []models.AttendanceRecord {
	return s.filter(ctx, func(r models.AttendanceRecord) bool { return r.CourseID == courseID })
}

// CalculateAttendancePercentage summarises a student's attendance in one course.
func (s *AttendanceService) CalculateAttendancePercentage(ctx context.Context, studentID, courseID string) models.AttendanceStats {
	return computeStats(s.GetStudentCourseAttendance(ctx, studentID, courseID))
}

// GetOverallAttendance summarises a student's attendance across all courses.
func (s *AttendanceService) GetOverallAttendance(ctx context.Context, studentID string) models.AttendanceStats {
	return computeStats(s.GetStudentAttendance(ctx, studentID))
}

// GetCourseAttendanceSummary aggregates attendance for every student enrolled in a course.
func (s *AttendanceService) GetCourseAttendanceSummary(ctx context.Context, courseID string) models.CourseAttendanceSummary {
	records := s.attendance.All(ctx)
	students := s.students.All(ctx)

	courseName := "Unknown"
	for _, course := range s.courses.All(ctx) {
		if course.ID == courseID {
			courseName = course.Name
			break
		}
	}

	dates := make(map[string]struct{})
	byStudent := make(map[string][]models.AttendanceRecord)
	for _, record := range records {
		if record.CourseID != courseID {
			continue
		}
		dates[record.Date] = struct{}{}
		byStudent[record.StudentID] = append(byStudent[record.StudentID], record)
	}

	summaries := make([]models.StudentAttendanceSummary, 0)
	sum := 0
	for _, student := range students {
		if !student.IsEnrolledIn(courseID) {
			continue
		}
		stats := computeStats(byStudent[student.ID])
		sum += stats.Percentage
		summaries = append(summaries, models.StudentAttendanceSummary{
			StudentID:       student.ID,
			StudentName:     student.Name,
			AttendanceStats: stats,
		})
	}

	average := 0
	if len(summaries) > 0 {
		average = roundPercent(float64(sum) / float64(len(summaries)))
	}

	return models.CourseAttendanceSummary{
		CourseID:          courseID,
		CourseName:        courseName,
		TotalClasses:      len(dates),
		TotalStudents:     len(summaries),
		AverageAttendance: average,
		StudentSummaries:  summaries,
	}
}

// GetStudentsAtRisk returns students with attendance history whose overall
// percentage is below threshold, worst first.
func (s *AttendanceService) GetStudentsAtRisk(ctx context.Context, threshold int) []models.AtRiskStudent {
	byStudent := make(map[string][]models.AttendanceRecord)
	for _, record := range s.attendance.All(ctx) {
		byStudent[record.StudentID] = append(byStudent[record.StudentID], record)
	}

	atRisk := make([]models.AtRiskStudent, 0)
	for _, student := range s.students.All(ctx) {
		stats := computeStats(byStudent[student.ID])
		if stats.Total > 0 && stats.Percentage < threshold {
			atRisk = append(atRisk, models.AtRiskStudent{Student: student, AttendancePercentage: stats.Percentage})
		}
	}
	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].AttendancePercentage < atRisk[j].AttendancePercentage
	})
	return atRisk
}

// GetRecentActivity returns up to limit of the most recently marked records.
func (s *AttendanceService) GetRecentActivity(ctx context.Context, limit int) []models.AttendanceRecord {
	if limit <= 0 {
		return []models.AttendanceRecord{}
	}
	records := s.attendance.All(ctx)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MarkedAt.After(records[j].MarkedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records
}

func (s *AttendanceService) filter(ctx context.Context, keep func(models.AttendanceRecord) bool) []models.AttendanceRecord {
	out := make([]models.AttendanceRecord, 0)
	for _, record := range s.attendance.All(ctx) {
		if keep(record) {
			out = append(out, record)
		}
	}
	return out
}

func (s *AttendanceService) actor(ctx context.Context) string {
	if id, ok := ActorFromContext(ctx); ok {
		return id
	}
	if s.sessions != nil {
		if session, ok := s.sessions.Current(ctx); ok {
			return session.UserID
		}
	}
	return models.SystemActor
}

func computeStats(records []models.AttendanceRecord) models.AttendanceStats {
	if len(records) == 0 {
		return models.AttendanceStats{}
	}
	stats := models.AttendanceStats{Total: len(records)}
	for _, record := range records {
		switch record.Status {
		case models.AttendanceStatusPresent:
			stats.Present++
		case models.AttendanceStatusAbsent:
			stats.Absent++
		}
	}
	stats.Percentage = roundPercent(float64(stats.Present) / float64(stats.Total) * 100)
	return stats
}

// roundPercent rounds half away from zero.
func roundPercent(value float64) int {
	return int(math.Round(value))
}
