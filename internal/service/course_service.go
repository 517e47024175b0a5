package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
)

type teacherReader interface {
	All(ctx context.Context) []models.Teacher
}

// CourseService exposes the course catalogue and teacher profiles.
type CourseService struct {
	courses  courseReader
	teachers teacherReader
	students studentReader
	logger   *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(courses courseReader, teachers teacherReader, students studentReader, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, teachers: teachers, students: students, logger: logger}
}

// List returns every course.
func (s *CourseService) List(ctx context.Context) []models.Course {
	return s.courses.All(ctx)
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	for _, course := range s.courses.All(ctx) {
		if course.ID == id {
			c := course
			return &c, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

// ByTeacher returns the courses taught by teacherID.
func (s *CourseService) ByTeacher(ctx context.Context, teacherID string) []models.Course {
	out := make([]models.Course, 0)
	for _, course := range s.courses.All(ctx) {
		if course.TeacherID == teacherID {
			out = append(out, course)
		}
	}
	return out
}

// ForStudent returns the courses studentID is enrolled in.
func (s *CourseService) ForStudent(ctx context.Context, studentID string) []models.Course {
	out := make([]models.Course, 0)
	var student *models.Student
	for _, candidate := range s.students.All(ctx) {
		if candidate.ID == studentID {
			st := candidate
			student = &st
			break
		}
	}
	if student == nil {
		return out
	}
	for _, course := range s.courses.All(ctx) {
		if student.IsEnrolledIn(course.ID) {
			out = append(out, course)
		}
	}
	return out
}

// Teachers returns every teacher profile.
func (s *CourseService) Teachers(ctx context.Context) []models.Teacher {
	return s.teachers.All(ctx)
}

// Teacher returns one teacher profile.
func (s *CourseService) Teacher(ctx context.Context, id string) (*models.Teacher, error) {
	for _, teacher := range s.teachers.All(ctx) {
		if teacher.ID == id {
			t := teacher
			return &t, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
}
