package service

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/sis-portal/internal/models"
)

type fakeCollection[T any] struct {
	mu       sync.Mutex
	items    []T
	failLoad bool
	failSave bool
}

func newFakeCollection[T any](items ...T) *fakeCollection[T] {
	return &fakeCollection[T]{items: items}
}

func (f *fakeCollection[T]) All(context.Context) []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad {
		return []T{}
	}
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

func (f *fakeCollection[T]) Update(_ context.Context, mutate func([]T) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad {
		return errors.New("backend unavailable")
	}
	current := make([]T, len(f.items))
	copy(current, f.items)
	next, err := mutate(current)
	if err != nil {
		return err
	}
	if f.failSave {
		return errors.New("write rejected")
	}
	f.items = make([]T, len(next))
	copy(f.items, next)
	return nil
}

type fakeSessions struct {
	session *models.Session
}

func (f *fakeSessions) Current(context.Context) (*models.Session, bool) {
	if f.session == nil {
		return nil, false
	}
	s := *f.session
	return &s, true
}

func (f *fakeSessions) Save(_ context.Context, session models.Session) bool {
	f.session = &session
	return true
}

func (f *fakeSessions) Clear(context.Context) bool {
	f.session = nil
	return true
}

func intPtr(v int) *int {
	return &v
}

func sampleStudents() []models.Student {
	return []models.Student{
		{ID: "student001", Name: "John Smith", Email: "john.smith@university.edu", EnrolledCourses: []string{"CS101", "CS201", "CS301"}, Status: models.StudentStatusEnrolled},
		{ID: "student002", Name: "Emma Wilson", Email: "emma.wilson@university.edu", EnrolledCourses: []string{"CS101", "CS201"}, Status: models.StudentStatusEnrolled},
		{ID: "student003", Name: "James Brown", Email: "james.brown@university.edu", EnrolledCourses: []string{"CS101"}, Status: models.StudentStatusOnProbation},
		{ID: "student004", Name: "Olivia Martinez", Email: "olivia.martinez@university.edu", EnrolledCourses: []string{"CS201"}, Status: models.StudentStatusEnrolled},
	}
}

func sampleCourses() []models.Course {
	return []models.Course{
		{ID: "CS101", Code: "CS101", Name: "Introduction to Programming", Credits: 3, TeacherID: "teacher001", TotalClasses: 30},
		{ID: "CS201", Code: "CS201", Name: "Data Structures & Algorithms", Credits: 4, TeacherID: "teacher002", TotalClasses: 35},
		{ID: "CS301", Code: "CS301", Name: "Database Management Systems", TeacherID: "teacher003", TotalClasses: 28},
	}
}
