package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/internal/service"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
	"github.com/noah-isme/sis-portal/pkg/response"
)

type resultService interface {
	SaveResult(ctx context.Context, courseID, studentID string, marks models.Marks) (*models.Result, error)
	DeleteResult(ctx context.Context, courseID, studentID string) (*models.Result, error)
	GetStudentCourseResult(ctx context.Context, studentID, courseID string) (*models.ResultRecord, bool)
	GetStudentResults(ctx context.Context, studentID string) []models.ResultRecord
	GetCourseResultsDetailed(ctx context.Context, courseID string) []models.DetailedResult
	GetCourseStatistics(ctx context.Context, courseID string) models.CourseStatistics
	GetStudentGPA(ctx context.Context, studentID string) models.GPAInfo
	GetStudentRank(ctx context.Context, studentID, courseID string) models.RankInfo
}

// SaveResultRequest carries every assessment component of a result.
type SaveResultRequest struct {
	CourseID   string `json:"courseId" validate:"required"`
	StudentID  string `json:"studentId" validate:"required"`
	Quiz1      *int   `json:"quiz1" validate:"required"`
	Quiz2      *int   `json:"quiz2" validate:"required"`
	Midterm    *int   `json:"midterm" validate:"required"`
	Final      *int   `json:"final" validate:"required"`
	Assignment *int   `json:"assignment" validate:"required"`
}

// ResultView decorates a result with presentation fields.
type ResultView struct {
	models.ResultRecord
	Percentage int    `json:"percentage"`
	GradeClass string `json:"grade_class"`
}

// DetailedResultView decorates a joined course result with presentation fields.
type DetailedResultView struct {
	models.DetailedResult
	Percentage int    `json:"percentage"`
	GradeClass string `json:"grade_class"`
}

// GradeClass maps a grade to the badge style used by the portal front-end.
func GradeClass(grade models.Grade) string {
	g := string(grade)
	switch {
	case strings.HasPrefix(g, "A"):
		return "grade-a"
	case strings.HasPrefix(g, "B"):
		return "grade-b"
	case strings.HasPrefix(g, "C"):
		return "grade-c"
	case grade == models.GradeD:
		return "grade-d"
	default:
		return "grade-f"
	}
}

func newResultView(record models.ResultRecord) ResultView {
	return ResultView{ResultRecord: record, Percentage: service.GetPercentage(record.TotalMarks), GradeClass: GradeClass(record.Grade)}
}

// ResultHandler exposes marks entry and result aggregation endpoints.
type ResultHandler struct {
	service   resultService
	validator *validator.Validate
}

// NewResultHandler constructs the handler.
func NewResultHandler(svc resultService, validate *validator.Validate) *ResultHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &ResultHandler{service: svc, validator: validate}
}

// Save godoc
// @Summary Save a student's marks for a course
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body SaveResultRequest true "Marks"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /results [post]
func (h *ResultHandler) Save(c *gin.Context) {
	var req SaveResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid result payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "all mark components are required"))
		return
	}
	marks, err := models.NewMarks(*req.Quiz1, *req.Quiz2, *req.Midterm, *req.Final, *req.Assignment)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}

	result, err := h.service.SaveResult(c.Request.Context(), req.CourseID, req.StudentID, marks)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := gin.H{"success": result.Success, "message": result.Message}
	if result.Record != nil {
		payload["result"] = newResultView(*result.Record)
	}
	response.JSON(c, http.StatusOK, payload)
}

// Delete removes the result for (courseId, studentId).
func (h *ResultHandler) Delete(c *gin.Context) {
	result, err := h.service.DeleteResult(c.Request.Context(), c.Param("courseId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Course returns the joined results of a course.
func (h *ResultHandler) Course(c *gin.Context) {
	detailed := h.service.GetCourseResultsDetailed(c.Request.Context(), c.Param("courseId"))
	views := make([]DetailedResultView, 0, len(detailed))
	for _, row := range detailed {
		views = append(views, DetailedResultView{DetailedResult: row, Percentage: service.GetPercentage(row.TotalMarks), GradeClass: GradeClass(row.Grade)})
	}
	response.JSON(c, http.StatusOK, views)
}

// CourseStatistics returns the summary statistics of a course.
func (h *ResultHandler) CourseStatistics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.GetCourseStatistics(c.Request.Context(), c.Param("courseId")))
}

// Student returns every result of a student with the GPA.
func (h *ResultHandler) Student(c *gin.Context) {
	ctx := c.Request.Context()
	studentID := c.Param("id")
	records := h.service.GetStudentResults(ctx, studentID)
	views := make([]ResultView, 0, len(records))
	for _, record := range records {
		views = append(views, newResultView(record))
	}
	response.JSON(c, http.StatusOK, gin.H{
		"results": views,
		"gpa":     h.service.GetStudentGPA(ctx, studentID),
	})
}

// StudentCourse returns one result and the student's rank in the course.
func (h *ResultHandler) StudentCourse(c *gin.Context) {
	ctx := c.Request.Context()
	studentID := c.Param("id")
	courseID := c.Param("courseId")
	record, ok := h.service.GetStudentCourseResult(ctx, studentID, courseID)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "result not found"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"result": newResultView(*record),
		"rank":   h.service.GetStudentRank(ctx, studentID, courseID),
	})
}
