package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
	"github.com/noah-isme/sis-portal/pkg/export"
	"github.com/noah-isme/sis-portal/pkg/jobs"
)

// ReportDir is the storage directory holding generated report files.
const ReportDir = "reports"

type reportJobStore interface {
	All(ctx context.Context) []models.ReportJob
	Update(ctx context.Context, mutate func([]models.ReportJob) ([]models.ReportJob, error)) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type reportRenderer interface {
	Render(ctx context.Context, reportType models.ReportType, courseID string, format export.Format) (*RenderedExport, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(dir string, ttl time.Duration) ([]string, error)
}

type reportMetrics interface {
	ObserveReportJob(reportType models.ReportType, status models.ReportStatus)
}

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
}

type reportJobs struct {
	store reportJobStore
}

func (r *reportJobs) get(ctx context.Context, id string) (*models.ReportJob, bool) {
	for _, job := range r.store.All(ctx) {
		if job.ID == id {
			j := job
			return &j, true
		}
	}
	return nil, false
}

func (r *reportJobs) create(ctx context.Context, job models.ReportJob) error {
	err := r.store.Update(ctx, func(all []models.ReportJob) ([]models.ReportJob, error) {
		return append(all, job), nil
	})
	if err != nil {
		return saveError(err, "failed to persist report job")
	}
	return nil
}

func (r *reportJobs) update(ctx context.Context, id string, mutate func(*models.ReportJob)) (*models.ReportJob, error) {
	var updated models.ReportJob
	err := r.store.Update(ctx, func(all []models.ReportJob) ([]models.ReportJob, error) {
		for i := range all {
			if all[i].ID == id {
				mutate(&all[i])
				updated = all[i]
				return all, nil
			}
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	})
	if err != nil {
		return nil, saveError(err, "failed to update report job")
	}
	return &updated, nil
}

func (r *reportJobs) removeWhere(ctx context.Context, drop func(models.ReportJob) bool) ([]models.ReportJob, error) {
	removed := make([]models.ReportJob, 0)
	err := r.store.Update(ctx, func(all []models.ReportJob) ([]models.ReportJob, error) {
		kept := make([]models.ReportJob, 0, len(all))
		for _, job := range all {
			if drop(job) {
				removed = append(removed, job)
				continue
			}
			kept = append(kept, job)
		}
		return kept, nil
	})
	if err != nil {
		return nil, saveError(err, "failed to prune report jobs")
	}
	return removed, nil
}

// ReportService orchestrates report job lifecycle management.
type ReportService struct {
	jobs    *reportJobs
	courses courseReader
	queue   jobDispatcher
	files   fileStorage
	logger  *zap.Logger
	cfg     ReportServiceConfig
	now     func() time.Time
	newID   func() string
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, courses courseReader, queue jobDispatcher, files fileStorage, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		jobs:    &reportJobs{store: repo},
		courses: courses,
		queue:   queue,
		files:   files,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// CreateJob validates the request, persists the job and enqueues processing.
func (s *ReportService) CreateJob(ctx context.Context, req models.ReportRequest, actorID string, role models.UserRole) (*models.ReportJob, error) {
	if err := s.validateRequest(ctx, req, actorID, role); err != nil {
		return nil, err
	}
	job := models.ReportJob{
		ID:        s.newID(),
		Type:      req.Type,
		CourseID:  req.CourseID,
		Format:    req.Format,
		Status:    models.ReportStatusQueued,
		CreatedBy: actorID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.jobs.create(ctx, job); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		now := s.now().UTC()
		if _, updateErr := s.jobs.update(ctx, job.ID, func(j *models.ReportJob) {
			j.Status = models.ReportStatusFailed
			j.Progress = 100
			j.ErrorMessage = "failed to enqueue job"
			j.FinishedAt = &now
		}); updateErr != nil {
			s.logger.Warn("failed to mark job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return &job, nil
}

// GetStatus exposes job metadata to clients, enforcing ownership for non-admins.
func (s *ReportService) GetStatus(ctx context.Context, id, actorID string, role models.UserRole) (*models.ReportJob, error) {
	job, ok := s.jobs.get(ctx, id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	if role != models.RoleAdmin && job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	return job, nil
}

// List returns the jobs visible to the actor, newest first.
func (s *ReportService) List(ctx context.Context, actorID string, role models.UserRole) []models.ReportJob {
	out := make([]models.ReportJob, 0)
	for _, job := range s.jobs.store.All(ctx) {
		if role == models.RoleAdmin || job.CreatedBy == actorID {
			out = append(out, job)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ResolveDownload opens the stored file of a finished job.
func (s *ReportService) ResolveDownload(ctx context.Context, id, actorID string, role models.UserRole) (*ReportDownload, error) {
	job, err := s.GetStatus(ctx, id, actorID, role)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ReportStatusFinished || job.FilePath == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.files.Open(job.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	renderer, err := export.ForFormat(export.Format(job.Format))
	contentType := "application/octet-stream"
	if err == nil {
		contentType = renderer.ContentType()
	}
	return &ReportDownload{File: file, Filename: path.Base(job.FilePath), ContentType: contentType}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	for _, job := range s.jobs.store.All(ctx) {
		if job.Status != models.ReportStatusQueued && job.Status != models.ReportStatusProcessing {
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired drops terminal jobs older than the result TTL along with their files.
func (s *ReportService) CleanupExpired(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	removed, err := s.jobs.removeWhere(ctx, func(job models.ReportJob) bool {
		return job.FinishedAt != nil && job.FinishedAt.Before(cutoff)
	})
	if err != nil {
		s.logger.Sugar().Warnw("cleanup prune failed", "error", err)
		return
	}
	for _, job := range removed {
		if job.FilePath == "" {
			continue
		}
		if err := s.files.Delete(job.FilePath); err != nil {
			s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
		}
	}
	if _, err := s.files.CleanupOlderThan(ReportDir, s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

func (s *ReportService) validateRequest(ctx context.Context, req models.ReportRequest, actorID string, role models.UserRole) error {
	if !req.Type.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}
	if _, err := export.ForFormat(export.Format(req.Format)); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	if req.CourseID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "courseId is required")
	}
	var course *models.Course
	for _, candidate := range s.courses.All(ctx) {
		if candidate.ID == req.CourseID {
			c := candidate
			course = &c
			break
		}
	}
	if course == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	switch role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		if course.TeacherID != actorID {
			return appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to this teacher")
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	jobs       *reportJobs
	renderer   reportRenderer
	files      fileStorage
	metrics    reportMetrics
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewReportWorker constructs a worker sharing the service's job store.
func NewReportWorker(svc *ReportService, renderer reportRenderer, files fileStorage, metrics reportMetrics, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ReportWorker{
		jobs:       svc.jobs,
		renderer:   renderer,
		files:      files,
		metrics:    metrics,
		logger:     logger,
		maxRetries: maxRetries,
		now:        svc.now,
	}
}

// Handle processes a queue job.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.jobs.update(ctx, job.ID, func(j *models.ReportJob) {
		j.Status = models.ReportStatusProcessing
		j.Progress = 10
	})
	if err != nil {
		return err
	}

	filePath, err := w.generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			now := w.now().UTC()
			if _, updateErr := w.jobs.update(ctx, job.ID, func(j *models.ReportJob) {
				j.Status = models.ReportStatusFailed
				j.Progress = 100
				j.ErrorMessage = msg
				j.FinishedAt = &now
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", updateErr)
			}
			w.observe(record.Type, models.ReportStatusFailed)
		} else {
			if _, updateErr := w.jobs.update(ctx, job.ID, func(j *models.ReportJob) {
				j.Status = models.ReportStatusQueued
				j.Progress = 0
				j.ErrorMessage = msg
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job queued", "job_id", job.ID, "error", updateErr)
			}
		}
		return err
	}

	now := w.now().UTC()
	if _, err := w.jobs.update(ctx, job.ID, func(j *models.ReportJob) {
		j.Status = models.ReportStatusFinished
		j.Progress = 100
		j.FilePath = filePath
		j.ErrorMessage = ""
		j.FinishedAt = &now
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job finished", "job_id", job.ID, "error", err)
		return err
	}
	w.observe(record.Type, models.ReportStatusFinished)
	return nil
}

func (w *ReportWorker) generate(ctx context.Context, job *models.ReportJob) (string, error) {
	rendered, err := w.renderer.Render(ctx, job.Type, job.CourseID, export.Format(job.Format))
	if err != nil {
		return "", err
	}
	filePath, err := w.files.Save(fmt.Sprintf("%s/%s_%s", ReportDir, job.ID, rendered.Filename), rendered.Data)
	if err != nil {
		return "", fmt.Errorf("store report: %w", err)
	}
	return filePath, nil
}

func (w *ReportWorker) observe(reportType models.ReportType, status models.ReportStatus) {
	if w.metrics != nil {
		w.metrics.ObserveReportJob(reportType, status)
	}
}
