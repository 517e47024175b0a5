package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-portal/internal/middleware"
	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
	"github.com/noah-isme/sis-portal/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*models.AdminDashboard, bool, error)
	Teacher(ctx context.Context, teacherID string) (*models.TeacherDashboard, bool, error)
	Student(ctx context.Context, studentID string) (*models.StudentDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Admin dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, summary, cacheHit, start)
}

// Teacher godoc
// @Summary Teacher dashboard
// @Description Teachers see their own courses; admins pass teacherId.
// @Tags Dashboard
// @Produce json
// @Param teacherId query string false "Teacher ID (admin only)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/teacher [get]
func (h *DashboardHandler) Teacher(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	teacherID, err := subjectID(c, claimsFromContext(c), "teacherId", models.RoleTeacher)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Teacher(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, summary, cacheHit, start)
}

// Student godoc
// @Summary Student dashboard
// @Description Students see their own progress; staff pass studentId.
// @Tags Dashboard
// @Produce json
// @Param studentId query string false "Student ID (staff only)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	studentID, err := subjectID(c, claimsFromContext(c), "studentId", models.RoleStudent)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Student(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	respond(c, summary, cacheHit, start)
}

func respond(c *gin.Context, payload interface{}, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, payload, meta)
}
