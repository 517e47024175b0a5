package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
)

type resultStore interface {
	All(ctx context.Context) []models.ResultRecord
	Update(ctx context.Context, mutate func([]models.ResultRecord) ([]models.ResultRecord, error)) error
}

// ResultService derives grades, rankings and statistics from raw marks.
type ResultService struct {
	results  resultStore
	students studentReader
	courses  courseReader
	logger   *zap.Logger
	now      func() time.Time
}

// NewResultService constructs the results aggregator.
func NewResultService(results resultStore, students studentReader, courses courseReader, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{results: results, students: students, courses: courses, logger: logger, now: time.Now}
}

// SaveResult computes total and grade then upserts the record for (courseID, studentID).
// Component bounds are the caller's responsibility.
func (s *ResultService) SaveResult(ctx context.Context, courseID, studentID string, marks models.Marks) (*models.Result, error) {
	total := CalculateTotal(marks)
	record := models.ResultRecord{
		ID:         models.ResultID(courseID, studentID),
		CourseID:   courseID,
		StudentID:  studentID,
		Quiz1:      models.Value(marks.Quiz1),
		Quiz2:      models.Value(marks.Quiz2),
		Midterm:    models.Value(marks.Midterm),
		Final:      models.Value(marks.Final),
		Assignment: models.Value(marks.Assignment),
		TotalMarks: total,
		Grade:      CalculateGrade(total),
		UpdatedAt:  s.now().UTC(),
	}

	err := s.results.Update(ctx, func(results []models.ResultRecord) ([]models.ResultRecord, error) {
		for i := range results {
			if results[i].CourseID == courseID && results[i].StudentID == studentID {
				results[i] = record
				return results, nil
			}
		}
		return append(results, record), nil
	})
	if err != nil {
		s.logger.Error("result save failed", zap.String("course_id", courseID), zap.String("student_id", studentID), zap.Error(err))
		return nil, saveError(err, "failed to save result")
	}
	return &models.Result{Success: true, Message: "Results saved successfully", Count: 1, Record: &record}, nil
}

// GetStudentCourseResult returns the student's result for a course, if any.
func (s *ResultService) GetStudentCourseResult(ctx context.Context, studentID, courseID string) (*models.ResultRecord, bool) {
	for _, result := range s.results.All(ctx) {
		if result.StudentID == studentID && result.CourseID == courseID {
			r := result
			return &r, true
		}
	}
	return nil, false
}

// GetStudentResults returns every result of a student.
func (s *ResultService) GetStudentResults(ctx context.Context, studentID string) []models.ResultRecord {
	return s.filter(ctx, func(r models.ResultRecord) bool { return r.StudentID == studentID })
}

// GetCourseResults returns every result of a course.
func (s *ResultService) GetCourseResults(ctx context.Context, courseID string) []models.ResultRecord {
	return s.filter(ctx, func(r models.ResultRecord) bool { return r.CourseID == courseID })
}

// GetCourseResultsDetailed joins each course result with the student's name and email.
func (s *ResultService) GetCourseResultsDetailed(ctx context.Context, courseID string) []models.DetailedResult {
	students := make(map[string]models.Student)
	for _, student := range s.students.All(ctx) {
		if _, seen := students[student.ID]; !seen {
			students[student.ID] = student
		}
	}

	results := s.GetCourseResults(ctx, courseID)
	detailed := make([]models.DetailedResult, 0, len(results))
	for _, result := range results {
		row := models.DetailedResult{ResultRecord: result, StudentName: "Unknown"}
		if student, ok := students[result.StudentID]; ok {
			row.StudentName = student.Name
			row.StudentEmail = student.Email
		}
		detailed = append(detailed, row)
	}
	return detailed
}

// GetCourseStatistics summarises a course's results. Every field is zero when there are none.
func (s *ResultService) GetCourseStatistics(ctx context.Context, courseID string) models.CourseStatistics {
	results := s.GetCourseResults(ctx, courseID)
	stats := models.CourseStatistics{GradeDistribution: map[models.Grade]int{}}
	if len(results) == 0 {
		return stats
	}

	sum, passed := 0, 0
	stats.HighestMarks = results[0].TotalMarks
	stats.LowestMarks = results[0].TotalMarks
	for _, result := range results {
		sum += result.TotalMarks
		if result.TotalMarks > stats.HighestMarks {
			stats.HighestMarks = result.TotalMarks
		}
		if result.TotalMarks < stats.LowestMarks {
			stats.LowestMarks = result.TotalMarks
		}
		stats.GradeDistribution[result.Grade]++
		if result.Grade != models.GradeF {
			passed++
		}
	}

	stats.TotalStudents = len(results)
	stats.AverageMarks = roundPercent(float64(sum) / float64(len(results)))
	stats.PassRate = roundPercent(float64(passed) / float64(len(results)) * 100)
	return stats
}

// GetStudentGPA computes the credit-weighted GPA. Results for unknown courses are ignored.
func (s *ResultService) GetStudentGPA(ctx context.Context, studentID string) models.GPAInfo {
	results := s.GetStudentResults(ctx, studentID)
	if len(results) == 0 {
		return models.GPAInfo{Formatted: "0"}
	}

	courses := make(map[string]models.Course)
	for _, course := range s.courses.All(ctx) {
		if _, seen := courses[course.ID]; !seen {
			courses[course.ID] = course
		}
	}

	var points float64
	credits := 0
	for _, result := range results {
		course, ok := courses[result.CourseID]
		if !ok {
			continue
		}
		weight := course.CreditHours()
		points += GradePoints(result.Grade) * float64(weight)
		credits += weight
	}

	if credits == 0 {
		return models.GPAInfo{Formatted: "0"}
	}
	gpa := math.Round(points/float64(credits)*100) / 100
	return models.GPAInfo{GPA: gpa, Formatted: strconv.FormatFloat(gpa, 'f', 2, 64), TotalCredits: credits}
}

// GetStudentRank returns the 1-based position of a student's total within the course,
// highest first with ties ordered by student id. Rank is nil when the student has no result.
func (s *ResultService) GetStudentRank(ctx context.Context, studentID, courseID string) models.RankInfo {
	results := s.GetCourseResults(ctx, courseID)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalMarks != results[j].TotalMarks {
			return results[i].TotalMarks > results[j].TotalMarks
		}
		return results[i].StudentID < results[j].StudentID
	})

	info := models.RankInfo{TotalStudents: len(results)}
	for i, result := range results {
		if result.StudentID == studentID {
			rank := i + 1
			info.Rank = &rank
			break
		}
	}
	return info
}

// DeleteResult removes the result for (courseID, studentID). A missing record is not an error.
func (s *ResultService) DeleteResult(ctx context.Context, courseID, studentID string) (*models.Result, error) {
	removed := 0
	err := s.results.Update(ctx, func(results []models.ResultRecord) ([]models.ResultRecord, error) {
		kept := make([]models.ResultRecord, 0, len(results))
		for _, result := range results {
			if result.CourseID == courseID && result.StudentID == studentID {
				continue
			}
			kept = append(kept, result)
		}
		removed = len(results) - len(kept)
		return kept, nil
	})
	if err != nil {
		s.logger.Error("result delete failed", zap.String("course_id", courseID), zap.String("student_id", studentID), zap.Error(err))
		return nil, saveError(err, "failed to delete result")
	}
	return &models.Result{Success: true, Message: "Result deleted successfully", Count: removed}, nil
}

func (s *ResultService) filter(ctx context.Context, keep func(models.ResultRecord) bool) []models.ResultRecord {
	out := make([]models.ResultRecord, 0)
	for _, result := range s.results.All(ctx) {
		if keep(result) {
			out = append(out, result)
		}
	}
	return out
}

// averageOf returns the rounded mean of values, or zero for an empty slice.
func averageOf(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}
