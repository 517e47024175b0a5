package models

import "time"

// ReportType enumerates supported asynchronous report categories.
type ReportType string

const (
	ReportTypeAttendance ReportType = "attendance"
	ReportTypeResults    ReportType = "results"
)

// Valid reports whether the report type is known.
func (t ReportType) Valid() bool {
	return t == ReportTypeAttendance || t == ReportTypeResults
}

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob is persisted background job metadata kept in the report_jobs collection.
type ReportJob struct {
	ID           string       `json:"id"`
	Type         ReportType   `json:"type"`
	CourseID     string       `json:"courseId"`
	Format       string       `json:"format"`
	Status       ReportStatus `json:"status"`
	Progress     int          `json:"progress"`
	FilePath     string       `json:"filePath,omitempty"`
	CreatedBy    string       `json:"createdBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	FinishedAt   *time.Time   `json:"finishedAt,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}

// ReportRequest is the payload used to enqueue a report job.
type ReportRequest struct {
	Type     ReportType `json:"type" validate:"required,oneof=attendance results"`
	CourseID string     `json:"courseId" validate:"required"`
	Format   string     `json:"format" validate:"required,oneof=csv pdf xlsx"`
}
