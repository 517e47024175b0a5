package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/internal/repository"
	"github.com/noah-isme/sis-portal/internal/seed"
	"github.com/noah-isme/sis-portal/internal/service"
	"github.com/noah-isme/sis-portal/internal/store"
	"github.com/noah-isme/sis-portal/pkg/jobs"
	"github.com/noah-isme/sis-portal/pkg/storage"
)

type portalServer struct {
	engine *gin.Engine
	queue  *jobs.Queue
}

func newPortalServer(t *testing.T) *portalServer {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }

	metrics := service.NewMetricsService()
	records := store.New(store.NewMemoryBackend(), store.Options{
		Observer: metrics,
		Seed:     seed.Func(clock, rand.New(rand.NewSource(7))),
	})
	require.NoError(t, records.Init(ctx))

	students := repository.NewStudentRepository(records, nil)
	courses := repository.NewCourseRepository(records, nil)
	teachers := repository.NewTeacherRepository(records, nil)
	users := repository.NewUserRepository(records, nil)
	attendanceRepo := repository.NewAttendanceRepository(records, nil)
	resultRepo := repository.NewResultRepository(records, nil)
	sessions := repository.NewSessionRepository(records, nil)

	auth := service.NewAuthService(users, sessions, nil, nil, service.AuthConfig{
		AccessTokenSecret: "router-test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "sis-portal",
	})
	attendance := service.NewAttendanceService(attendanceRepo, students, courses, sessions, nil)
	results := service.NewResultService(resultRepo, students, courses, nil)
	cache := service.NewCacheService(nil, metrics, time.Minute, nil, false)
	dashboard := service.NewDashboardService(service.DashboardServiceParams{
		Attendance: attendance,
		Results:    results,
		Students:   students,
		Teachers:   teachers,
		Courses:    courses,
		Cache:      cache,
	})
	exports := service.NewExportService(attendance, results, courses, nil)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	var worker *service.ReportWorker
	queue := jobs.NewQueue("reports", func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})
	reports := service.NewReportService(repository.NewReportJobRepository(records, nil), courses, queue, files, nil, service.ReportServiceConfig{})
	worker = service.NewReportWorker(reports, exports, files, metrics, 0, nil)
	queue.Start(ctx)
	t.Cleanup(queue.Stop)

	engine := NewRouter(RouterDeps{
		Tokens:     auth,
		Cache:      cache,
		Metrics:    metrics,
		Auth:       NewAuthHandler(auth),
		Students:   NewStudentHandler(service.NewStudentService(students, users, nil, nil)),
		Courses:    NewCourseHandler(service.NewCourseService(courses, teachers, students, nil)),
		Attendance: NewAttendanceHandler(attendance, nil, 75, 10),
		Results:    NewResultHandler(results, nil),
		Dashboard:  NewDashboardHandler(dashboard),
		Reports:    NewReportHandler(reports, exports),
	})
	return &portalServer{engine: engine, queue: queue}
}

func (s *portalServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *portalServer) login(t *testing.T, userID, password string, role models.UserRole) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{UserID: userID, Password: password, Role: role})
	requireStatus(t, w, http.StatusOK)
	var resp models.LoginResponse
	decodeData(t, w, &resp)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestRouterHealthAndMetrics(t *testing.T) {
	srv := newPortalServer(t)

	requireStatus(t, srv.do(http.MethodGet, "/health", "", nil), http.StatusOK)
	requireStatus(t, srv.do(http.MethodGet, "/ready", "", nil), http.StatusOK)

	w := srv.do(http.MethodGet, "/metrics", "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "store_operation_duration_seconds")
}

func TestRouterRejectsMissingToken(t *testing.T) {
	srv := newPortalServer(t)

	requireStatus(t, srv.do(http.MethodGet, "/api/v1/dashboard/admin", "", nil), http.StatusUnauthorized)
	requireStatus(t, srv.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{UserID: "admin001", Password: "nope", Role: models.RoleAdmin}), http.StatusUnauthorized)
}

func TestRouterTeacherDashboard(t *testing.T) {
	srv := newPortalServer(t)
	token := srv.login(t, "teacher001", "teacher123", models.RoleTeacher)

	w := srv.do(http.MethodGet, "/api/v1/dashboard/teacher", token, nil)
	requireStatus(t, w, http.StatusOK)
	var summary models.TeacherDashboard
	env := decodeData(t, w, &summary)
	assert.Equal(t, "teacher001", summary.TeacherID)
	require.Len(t, summary.Courses, 1)
	assert.Equal(t, "CS101", summary.Courses[0].ID)
	assert.Equal(t, 4, summary.ResultsUploaded)
	assert.Equal(t, false, env.Meta["cache_hit"])

	requireStatus(t, srv.do(http.MethodGet, "/api/v1/dashboard/admin", token, nil), http.StatusForbidden)
}

func TestRouterStudentSelfAccess(t *testing.T) {
	srv := newPortalServer(t)
	token := srv.login(t, "student001", "student123", models.RoleStudent)

	requireStatus(t, srv.do(http.MethodGet, "/api/v1/students/student001", token, nil), http.StatusOK)
	requireStatus(t, srv.do(http.MethodGet, "/api/v1/students/student002", token, nil), http.StatusForbidden)
	requireStatus(t, srv.do(http.MethodGet, "/api/v1/students", token, nil), http.StatusForbidden)

	w := srv.do(http.MethodGet, "/api/v1/dashboard/student", token, nil)
	requireStatus(t, w, http.StatusOK)
	var summary models.StudentDashboard
	decodeData(t, w, &summary)
	assert.Equal(t, "student001", summary.StudentID)
	assert.Equal(t, 3, summary.EnrolledCourses)
	assert.Equal(t, 3, summary.ResultsPublished)
}

func TestRouterSaveResultThenRead(t *testing.T) {
	srv := newPortalServer(t)
	token := srv.login(t, "teacher001", "teacher123", models.RoleTeacher)

	w := srv.do(http.MethodPost, "/api/v1/results", token, SaveResultRequest{
		CourseID: "CS101", StudentID: "student004",
		Quiz1: intPtr(15), Quiz2: intPtr(15), Midterm: intPtr(40), Final: intPtr(80), Assignment: intPtr(25),
	})
	requireStatus(t, w, http.StatusOK)

	w = srv.do(http.MethodGet, "/api/v1/results/students/student004/courses/CS101", token, nil)
	requireStatus(t, w, http.StatusOK)
	var payload struct {
		Result ResultView      `json:"result"`
		Rank   models.RankInfo `json:"rank"`
	}
	decodeData(t, w, &payload)
	assert.Equal(t, 175, payload.Result.TotalMarks)
	assert.Equal(t, models.GradeA, payload.Result.Grade)
	assert.Equal(t, "grade-a", payload.Result.GradeClass)
	require.NotNil(t, payload.Rank.Rank)
	assert.Equal(t, 5, payload.Rank.TotalStudents)
}

func TestRouterReportLifecycle(t *testing.T) {
	srv := newPortalServer(t)
	token := srv.login(t, "teacher001", "teacher123", models.RoleTeacher)

	requireStatus(t, srv.do(http.MethodPost, "/api/v1/reports", token, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS201", Format: "csv"}), http.StatusForbidden)

	w := srv.do(http.MethodPost, "/api/v1/reports", token, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS101", Format: "csv"})
	requireStatus(t, w, http.StatusAccepted)
	var job models.ReportJob
	decodeData(t, w, &job)

	require.Eventually(t, func() bool {
		w := srv.do(http.MethodGet, "/api/v1/reports/"+job.ID, token, nil)
		if w.Code != http.StatusOK {
			return false
		}
		var env struct {
			Data models.ReportJob `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			return false
		}
		return env.Data.Status == models.ReportStatusFinished
	}, 2*time.Second, 20*time.Millisecond)

	w = srv.do(http.MethodGet, "/api/v1/reports/"+job.ID+"/download", token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "Student ID,Student Name")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "results_CS101_")
}
