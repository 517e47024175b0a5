package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-portal/internal/middleware"
	"github.com/noah-isme/sis-portal/internal/models"
)

type fakeDashboardService struct {
	cacheHit       bool
	teacherCalls   []string
	studentCalls   []string
	adminDashboard models.AdminDashboard
}

func (f *fakeDashboardService) Admin(context.Context) (*models.AdminDashboard, bool, error) {
	summary := f.adminDashboard
	return &summary, f.cacheHit, nil
}

func (f *fakeDashboardService) Teacher(_ context.Context, teacherID string) (*models.TeacherDashboard, bool, error) {
	f.teacherCalls = append(f.teacherCalls, teacherID)
	return &models.TeacherDashboard{TeacherID: teacherID}, f.cacheHit, nil
}

func (f *fakeDashboardService) Student(_ context.Context, studentID string) (*models.StudentDashboard, bool, error) {
	f.studentCalls = append(f.studentCalls, studentID)
	return &models.StudentDashboard{StudentID: studentID, Standing: models.StandingGood}, f.cacheHit, nil
}

func TestDashboardHandlerAdminReportsCacheMeta(t *testing.T) {
	svc := &fakeDashboardService{cacheHit: true, adminDashboard: models.AdminDashboard{TotalStudents: 5, TotalTeachers: 3, TotalCourses: 3}}
	h := NewDashboardHandler(svc)

	c, w := newTestContext(http.MethodGet, "/dashboard/admin", nil, claimsFor("admin001", models.RoleAdmin))
	middleware.WithResponseMeta()(c)
	h.Admin(c)

	requireStatus(t, w, http.StatusOK)
	var summary models.AdminDashboard
	env := decodeData(t, w, &summary)
	assert.Equal(t, 5, summary.TotalStudents)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
}

func TestDashboardHandlerStudentIsPinnedToCaller(t *testing.T) {
	svc := &fakeDashboardService{}
	h := NewDashboardHandler(svc)

	c, w := newTestContext(http.MethodGet, "/dashboard/student?studentId=student002", nil, claimsFor("student001", models.RoleStudent))
	h.Student(c)

	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, []string{"student001"}, svc.studentCalls)
}

func TestDashboardHandlerTeacherMayViewStudent(t *testing.T) {
	svc := &fakeDashboardService{}
	h := NewDashboardHandler(svc)

	c, w := newTestContext(http.MethodGet, "/dashboard/student?studentId=student003", nil, claimsFor("teacher001", models.RoleTeacher))
	h.Student(c)

	requireStatus(t, w, http.StatusOK)
	var summary models.StudentDashboard
	decodeData(t, w, &summary)
	assert.Equal(t, "student003", summary.StudentID)
}

func TestDashboardHandlerTeacherSubjectResolution(t *testing.T) {
	cases := []struct {
		name   string
		target string
		claims *models.JWTClaims
		status int
		calls  []string
	}{
		{"teacher sees own", "/dashboard/teacher?teacherId=teacher002", claimsFor("teacher001", models.RoleTeacher), http.StatusOK, []string{"teacher001"}},
		{"admin names teacher", "/dashboard/teacher?teacherId=teacher002", claimsFor("admin001", models.RoleAdmin), http.StatusOK, []string{"teacher002"}},
		{"admin without teacher", "/dashboard/teacher", claimsFor("admin001", models.RoleAdmin), http.StatusBadRequest, nil},
		{"student forbidden", "/dashboard/teacher?teacherId=teacher001", claimsFor("student001", models.RoleStudent), http.StatusForbidden, nil},
		{"anonymous", "/dashboard/teacher", nil, http.StatusUnauthorized, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeDashboardService{}
			h := NewDashboardHandler(svc)

			c, w := newTestContext(http.MethodGet, tc.target, nil, tc.claims)
			h.Teacher(c)

			requireStatus(t, w, tc.status)
			require.Equal(t, tc.calls, svc.teacherCalls)
		})
	}
}
