package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/middleware"
	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/internal/service"
	"github.com/noah-isme/sis-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/sis-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sis-portal/pkg/middleware/requestid"
)

// RouterDeps groups everything the HTTP surface needs.
type RouterDeps struct {
	APIPrefix      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Cache          *service.CacheService
	Metrics        *service.MetricsService

	Auth       *AuthHandler
	Students   *StudentHandler
	Courses    *CourseHandler
	Attendance *AttendanceHandler
	Results    *ResultHandler
	Dashboard  *DashboardHandler
	Reports    *ReportHandler
}

// NewRouter builds the gin engine with every portal route registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(deps.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	metricsHandler := NewMetricsHandler(deps.Metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())
	api.POST("/auth/login", deps.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))
	secured.Use(middleware.InvalidateOnWrite(deps.Cache, service.DashboardCachePattern))

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	staffOrSelf := middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), middleware.SelfAccess)
	adminOrSelf := middleware.RBAC(string(models.RoleAdmin), middleware.SelfAccess)

	secured.POST("/auth/logout", deps.Auth.Logout)
	secured.GET("/auth/me", deps.Auth.Me)
	secured.POST("/auth/change-password", middleware.Audit(log, "change_password", "users"), deps.Auth.ChangePassword)

	students := secured.Group("/students")
	students.GET("", staff, deps.Students.List)
	students.POST("", admin, middleware.Audit(log, "create", "students"), deps.Students.Create)
	students.POST("/import", admin, middleware.Audit(log, "import", "students"), deps.Students.Import)
	students.GET("/:id", staffOrSelf, deps.Students.Get)
	students.PUT("/:id", admin, middleware.Audit(log, "update", "students"), deps.Students.Update)
	students.DELETE("/:id", admin, middleware.Audit(log, "delete", "students"), deps.Students.Delete)
	students.GET("/:id/courses", staffOrSelf, deps.Courses.StudentCourses)

	secured.GET("/courses", deps.Courses.List)
	secured.GET("/courses/:id", deps.Courses.Get)
	secured.GET("/teachers", deps.Courses.Teachers)
	secured.GET("/teachers/:id", deps.Courses.Teacher)
	secured.GET("/teachers/:id/courses", adminOrSelf, deps.Courses.TeacherCourses)

	attendance := secured.Group("/attendance")
	attendance.POST("", staff, middleware.Audit(log, "mark", "attendance"), deps.Attendance.Mark)
	attendance.POST("/bulk", staff, middleware.Audit(log, "mark_bulk", "attendance"), deps.Attendance.MarkBulk)
	attendance.GET("/courses/:courseId", staff, deps.Attendance.Course)
	attendance.GET("/courses/:courseId/summary", staff, deps.Attendance.CourseSummary)
	attendance.GET("/students/:id", staffOrSelf, deps.Attendance.Student)
	attendance.GET("/students/:id/courses/:courseId", staffOrSelf, deps.Attendance.StudentCourse)
	attendance.GET("/at-risk", staff, deps.Attendance.AtRisk)
	attendance.GET("/recent", staff, deps.Attendance.Recent)

	results := secured.Group("/results")
	results.POST("", staff, middleware.Audit(log, "save", "results"), deps.Results.Save)
	results.GET("/courses/:courseId", staff, deps.Results.Course)
	results.GET("/courses/:courseId/statistics", staff, deps.Results.CourseStatistics)
	results.DELETE("/courses/:courseId/students/:studentId", staff, middleware.Audit(log, "delete", "results"), deps.Results.Delete)
	results.GET("/students/:id", staffOrSelf, deps.Results.Student)
	results.GET("/students/:id/courses/:courseId", staffOrSelf, deps.Results.StudentCourse)

	dashboard := secured.Group("/dashboard")
	dashboard.GET("/admin", admin, deps.Dashboard.Admin)
	dashboard.GET("/teacher", staff, deps.Dashboard.Teacher)
	dashboard.GET("/student", deps.Dashboard.Student)

	secured.GET("/exports/courses/:courseId/:type", staff, deps.Reports.Export)
	reports := secured.Group("/reports")
	reports.POST("", staff, middleware.Audit(log, "generate", "reports"), deps.Reports.Generate)
	reports.GET("", staff, deps.Reports.List)
	reports.GET("/:id", staff, deps.Reports.Status)
	reports.GET("/:id/download", staff, deps.Reports.Download)

	secured.GET("/metrics/summary", admin, metricsHandler.Summary)

	return r
}
