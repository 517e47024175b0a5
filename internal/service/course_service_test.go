package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
)

func newCourseFixture() *CourseService {
	return NewCourseService(
		newFakeCollection(sampleCourses()...),
		newFakeCollection(sampleTeachers()...),
		newFakeCollection(sampleStudents()...),
		nil,
	)
}

func TestCourseServiceLookups(t *testing.T) {
	svc := newCourseFixture()
	ctx := context.Background()

	assert.Len(t, svc.List(ctx), 3)

	course, err := svc.Get(ctx, "CS201")
	require.NoError(t, err)
	assert.Equal(t, 4, course.Credits)

	_, err = svc.Get(ctx, "CS999")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCourseServiceByTeacher(t *testing.T) {
	svc := newCourseFixture()

	courses := svc.ByTeacher(context.Background(), "teacher002")
	require.Len(t, courses, 1)
	assert.Equal(t, "CS201", courses[0].ID)
	assert.Empty(t, svc.ByTeacher(context.Background(), "teacher404"))
}

func TestCourseServiceForStudent(t *testing.T) {
	svc := newCourseFixture()
	ctx := context.Background()

	courses := svc.ForStudent(ctx, "student002")
	require.Len(t, courses, 2)
	assert.Equal(t, "CS101", courses[0].ID)
	assert.Equal(t, "CS201", courses[1].ID)
	assert.NotNil(t, svc.ForStudent(ctx, "student404"))
	assert.Empty(t, svc.ForStudent(ctx, "student404"))
}

func TestCourseServiceTeacher(t *testing.T) {
	svc := newCourseFixture()
	ctx := context.Background()

	teacher, err := svc.Teacher(ctx, "teacher001")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Johnson", teacher.Name)

	_, err = svc.Teacher(ctx, "teacher404")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Len(t, svc.Teachers(ctx), 2)
}
