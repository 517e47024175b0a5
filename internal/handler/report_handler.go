package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/internal/service"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
	"github.com/noah-isme/sis-portal/pkg/export"
	"github.com/noah-isme/sis-portal/pkg/response"
)

type reportService interface {
	CreateJob(ctx context.Context, req models.ReportRequest, actorID string, role models.UserRole) (*models.ReportJob, error)
	GetStatus(ctx context.Context, id, actorID string, role models.UserRole) (*models.ReportJob, error)
	List(ctx context.Context, actorID string, role models.UserRole) []models.ReportJob
	ResolveDownload(ctx context.Context, id, actorID string, role models.UserRole) (*service.ReportDownload, error)
}

type exportRenderer interface {
	Render(ctx context.Context, reportType models.ReportType, courseID string, format export.Format) (*service.RenderedExport, error)
}

// ReportHandler exposes synchronous exports and asynchronous report jobs.
type ReportHandler struct {
	reports reportService
	exports exportRenderer
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, exports exportRenderer) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Export godoc
// @Summary Download a course export immediately
// @Tags Reports
// @Produce octet-stream
// @Param courseId path string true "Course ID"
// @Param type path string true "attendance or results"
// @Param format query string false "csv, pdf or xlsx (default csv)"
// @Success 200 {file} binary
// @Router /exports/courses/{courseId}/{type} [get]
func (h *ReportHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	format := export.Format(c.DefaultQuery("format", string(export.FormatCSV)))
	rendered, err := h.exports.Render(c.Request.Context(), models.ReportType(c.Param("type")), c.Param("courseId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, rendered.Filename, rendered.ContentType, rendered.Data)
}

// Generate godoc
// @Summary Queue a report job
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body models.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	job, err := h.reports.CreateJob(c.Request.Context(), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job)
}

// List returns the caller's report jobs.
func (h *ReportHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.reports.List(c.Request.Context(), claims.UserID, claims.Role))
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.reports.GetStatus(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job)
}

// Download godoc
// @Summary Download a finished report
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Job ID"
// @Success 200 {file} binary
// @Router /reports/{id}/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	download, err := h.reports.ResolveDownload(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck
	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat report file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, nil)
}
