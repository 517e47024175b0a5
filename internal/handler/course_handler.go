package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/pkg/response"
)

type courseService interface {
	List(ctx context.Context) []models.Course
	Get(ctx context.Context, id string) (*models.Course, error)
	ByTeacher(ctx context.Context, teacherID string) []models.Course
	ForStudent(ctx context.Context, studentID string) []models.Course
	Teachers(ctx context.Context) []models.Teacher
	Teacher(ctx context.Context, id string) (*models.Teacher, error)
}

// CourseHandler exposes the course catalogue and teacher directory.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List returns every course.
func (h *CourseHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.List(c.Request.Context()))
}

// Get returns one course.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Teachers returns every teacher.
func (h *CourseHandler) Teachers(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Teachers(c.Request.Context()))
}

// Teacher returns one teacher.
func (h *CourseHandler) Teacher(c *gin.Context) {
	teacher, err := h.service.Teacher(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher)
}

// TeacherCourses returns the courses taught by a teacher.
func (h *CourseHandler) TeacherCourses(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.ByTeacher(c.Request.Context(), c.Param("id")))
}

// StudentCourses returns the courses a student is enrolled in.
func (h *CourseHandler) StudentCourses(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.ForStudent(c.Request.Context(), c.Param("id")))
}
