package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
	"github.com/noah-isme/sis-portal/pkg/response"
)

type attendanceService interface {
	MarkAttendance(ctx context.Context, courseID, studentID, date string, status models.AttendanceStatus) (*models.Result, error)
	MarkBulkAttendance(ctx context.Context, courseID, date string, entries []models.AttendanceEntry) (*models.Result, error)
	GetAttendanceByDate(ctx context.Context, courseID, date string) []models.AttendanceRecord
	GetStudentAttendance(ctx context.Context, studentID string) []models.AttendanceRecord
	GetStudentCourseAttendance(ctx context.Context, studentID, courseID string) []models.AttendanceRecord
	GetCourseAttendance(ctx context.Context, courseID string) []models.AttendanceRecord
	CalculateAttendancePercentage(ctx context.Context, studentID, courseID string) models.AttendanceStats
	GetOverallAttendance(ctx context.Context, studentID string) models.AttendanceStats
	GetCourseAttendanceSummary(ctx context.Context, courseID string) models.CourseAttendanceSummary
	GetStudentsAtRisk(ctx context.Context, threshold int) []models.AtRiskStudent
	GetRecentActivity(ctx context.Context, limit int) []models.AttendanceRecord
}

// MarkAttendanceRequest marks one student for one day.
type MarkAttendanceRequest struct {
	CourseID  string                  `json:"courseId" validate:"required"`
	StudentID string                  `json:"studentId" validate:"required"`
	Date      string                  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=present absent"`
}

// BulkAttendanceRequest marks a course register for one day.
type BulkAttendanceRequest struct {
	CourseID string                   `json:"courseId" validate:"required"`
	Date     string                   `json:"date" validate:"required,datetime=2006-01-02"`
	Entries  []models.AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceHandler exposes attendance marking and aggregation endpoints.
type AttendanceHandler struct {
	service       attendanceService
	validator     *validator.Validate
	riskThreshold int
	recentLimit   int
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService, validate *validator.Validate, riskThreshold, recentLimit int) *AttendanceHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceHandler{service: svc, validator: validate, riskThreshold: riskThreshold, recentLimit: recentLimit}
}

// Mark godoc
// @Summary Mark attendance for a student
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body MarkAttendanceRequest true "Attendance"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload"))
		return
	}

	result, err := h.service.MarkAttendance(c.Request.Context(), req.CourseID, req.StudentID, req.Date, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// MarkBulk godoc
// @Summary Mark attendance for a course register
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body BulkAttendanceRequest true "Register"
// @Success 200 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) MarkBulk(c *gin.Context) {
	var req BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload"))
		return
	}

	result, err := h.service.MarkBulkAttendance(c.Request.Context(), req.CourseID, req.Date, req.Entries)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Course returns a course's records, optionally restricted to one date.
func (h *AttendanceHandler) Course(c *gin.Context) {
	courseID := c.Param("courseId")
	if date := c.Query("date"); date != "" {
		response.JSON(c, http.StatusOK, h.service.GetAttendanceByDate(c.Request.Context(), courseID, date))
		return
	}
	response.JSON(c, http.StatusOK, h.service.GetCourseAttendance(c.Request.Context(), courseID))
}

// CourseSummary returns per-student percentages for a course.
func (h *AttendanceHandler) CourseSummary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GetCourseAttendanceSummary(c.Request.Context(), c.Param("courseId")))
}

// Student returns a student's records and overall statistics.
func (h *AttendanceHandler) Student(c *gin.Context) {
	ctx := c.Request.Context()
	studentID := c.Param("id")
	response.JSON(c, http.StatusOK, gin.H{
		"records": h.service.GetStudentAttendance(ctx, studentID),
		"stats":   h.service.GetOverallAttendance(ctx, studentID),
	})
}

// StudentCourse returns a student's records and statistics within one course.
func (h *AttendanceHandler) StudentCourse(c *gin.Context) {
	ctx := c.Request.Context()
	studentID := c.Param("id")
	courseID := c.Param("courseId")
	response.JSON(c, http.StatusOK, gin.H{
		"records": h.service.GetStudentCourseAttendance(ctx, studentID, courseID),
		"stats":   h.service.CalculateAttendancePercentage(ctx, studentID, courseID),
	})
}

// AtRisk lists students under the attendance threshold.
func (h *AttendanceHandler) AtRisk(c *gin.Context) {
	threshold, err := intQuery(c, "threshold", h.riskThreshold)
	if err != nil {
		response.Error(c, err)
		return
	}
	students := h.service.GetStudentsAtRisk(c.Request.Context(), threshold)
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"threshold": threshold, "count": len(students)})
}

// Recent lists the latest markings.
func (h *AttendanceHandler) Recent(c *gin.Context) {
	limit, err := intQuery(c, "limit", h.recentLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.service.GetRecentActivity(c.Request.Context(), limit))
}
