package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
	"github.com/noah-isme/sis-portal/pkg/export"
	"github.com/noah-isme/sis-portal/pkg/jobs"
	"github.com/noah-isme/sis-portal/pkg/storage"
)

type recordingDispatcher struct {
	jobs []jobs.Job
	err  error
}

func (d *recordingDispatcher) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type stubRenderer struct {
	err error
}

func (r *stubRenderer) Render(_ context.Context, reportType models.ReportType, courseID string, format export.Format) (*RenderedExport, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &RenderedExport{Filename: string(reportType) + "_" + courseID + "." + string(format), ContentType: "text/csv", Data: []byte("a,b\n")}, nil
}

type recordingReportMetrics struct {
	statuses []models.ReportStatus
}

func (m *recordingReportMetrics) ObserveReportJob(_ models.ReportType, status models.ReportStatus) {
	m.statuses = append(m.statuses, status)
}

type reportFixture struct {
	svc        *ReportService
	repo       *fakeCollection[models.ReportJob]
	dispatcher *recordingDispatcher
	files      *storage.LocalStorage
	clock      time.Time
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f := &reportFixture{
		repo:       newFakeCollection[models.ReportJob](),
		dispatcher: &recordingDispatcher{},
		files:      files,
		clock:      time.Date(2024, 10, 7, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewReportService(f.repo, newFakeCollection(sampleCourses()...), f.dispatcher, files, nil, ReportServiceConfig{ResultTTL: time.Hour})
	f.svc.now = func() time.Time { return f.clock }
	f.svc.newID = func() string { return "job-1" }
	return f
}

func TestReportServiceCreateJobEnqueues(t *testing.T) {
	f := newReportFixture(t)

	job, err := f.svc.CreateJob(context.Background(), models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS101", Format: "csv"}, "teacher001", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	require.Len(t, f.dispatcher.jobs, 1)
	assert.Equal(t, "job-1", f.dispatcher.jobs[0].ID)
	assert.Len(t, f.repo.All(context.Background()), 1)
}

func TestReportServiceCreateJobValidation(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateJob(ctx, models.ReportRequest{Type: "behavior", CourseID: "CS101", Format: "csv"}, "admin", models.RoleAdmin)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.CreateJob(ctx, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS101", Format: "docx"}, "admin", models.RoleAdmin)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.CreateJob(ctx, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS999", Format: "csv"}, "admin", models.RoleAdmin)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.CreateJob(ctx, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS201", Format: "csv"}, "teacher001", models.RoleTeacher)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.CreateJob(ctx, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS101", Format: "csv"}, "student001", models.RoleStudent)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	assert.Empty(t, f.dispatcher.jobs)
}

func TestReportServiceCreateJobEnqueueFailure(t *testing.T) {
	f := newReportFixture(t)
	f.dispatcher.err = errors.New("queue stopped")

	_, err := f.svc.CreateJob(context.Background(), models.ReportRequest{Type: models.ReportTypeAttendance, CourseID: "CS101", Format: "pdf"}, "admin", models.RoleAdmin)
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	stored := f.repo.All(context.Background())
	require.Len(t, stored, 1)
	assert.Equal(t, models.ReportStatusFailed, stored[0].Status)
	assert.NotNil(t, stored[0].FinishedAt)
}

func TestReportServiceStatusOwnership(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateJob(ctx, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS101", Format: "csv"}, "teacher001", models.RoleTeacher)
	require.NoError(t, err)

	_, err = f.svc.GetStatus(ctx, "job-1", "teacher002", models.RoleTeacher)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	job, err := f.svc.GetStatus(ctx, "job-1", "admin", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "teacher001", job.CreatedBy)

	_, err = f.svc.GetStatus(ctx, "missing", "admin", models.RoleAdmin)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	assert.Len(t, f.svc.List(ctx, "teacher001", models.RoleTeacher), 1)
	assert.Empty(t, f.svc.List(ctx, "teacher002", models.RoleTeacher))
}

func TestReportWorkerCompletesJob(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	metrics := &recordingReportMetrics{}
	_, err := f.svc.CreateJob(ctx, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS101", Format: "csv"}, "admin", models.RoleAdmin)
	require.NoError(t, err)

	worker := NewReportWorker(f.svc, &stubRenderer{}, f.files, metrics, 2, nil)
	require.NoError(t, worker.Handle(ctx, f.dispatcher.jobs[0]))

	job, err := f.svc.GetStatus(ctx, "job-1", "admin", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "reports/job-1_results_CS101.csv", job.FilePath)
	assert.Equal(t, []models.ReportStatus{models.ReportStatusFinished}, metrics.statuses)

	download, err := f.svc.ResolveDownload(ctx, "job-1", "admin", models.RoleAdmin)
	require.NoError(t, err)
	defer download.File.Close()
	payload, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(payload))
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, "job-1_results_CS101.csv", download.Filename)
}

func TestReportWorkerRetriesThenFails(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	metrics := &recordingReportMetrics{}
	_, err := f.svc.CreateJob(ctx, models.ReportRequest{Type: models.ReportTypeResults, CourseID: "CS101", Format: "csv"}, "admin", models.RoleAdmin)
	require.NoError(t, err)

	worker := NewReportWorker(f.svc, &stubRenderer{err: errors.New("render failed")}, f.files, metrics, 1, nil)
	queued := f.dispatcher.jobs[0]

	require.Error(t, worker.Handle(ctx, queued))
	job, _ := f.svc.GetStatus(ctx, "job-1", "admin", models.RoleAdmin)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.Equal(t, "render failed", job.ErrorMessage)

	queued.Attempt = 1
	require.Error(t, worker.Handle(ctx, queued))
	job, _ = f.svc.GetStatus(ctx, "job-1", "admin", models.RoleAdmin)
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	assert.Equal(t, []models.ReportStatus{models.ReportStatusFailed}, metrics.statuses)

	_, err = f.svc.ResolveDownload(ctx, "job-1", "admin", models.RoleAdmin)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	f := newReportFixture(t)
	finished := time.Date(2024, 10, 6, 0, 0, 0, 0, time.UTC)
	f.repo.items = []models.ReportJob{
		{ID: "a", Type: models.ReportTypeResults, Status: models.ReportStatusQueued},
		{ID: "b", Type: models.ReportTypeResults, Status: models.ReportStatusProcessing},
		{ID: "c", Type: models.ReportTypeResults, Status: models.ReportStatusFinished, FinishedAt: &finished},
	}

	f.svc.RecoverPendingJobs(context.Background())
	require.Len(t, f.dispatcher.jobs, 2)
	assert.Equal(t, "a", f.dispatcher.jobs[0].ID)
	assert.Equal(t, "b", f.dispatcher.jobs[1].ID)
}

func TestReportServiceCleanupExpired(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	_, err := f.files.Save("reports/old.csv", []byte("x"))
	require.NoError(t, err)
	old := f.clock.Add(-2 * time.Hour)
	recent := f.clock.Add(-10 * time.Minute)
	f.repo.items = []models.ReportJob{
		{ID: "old", Status: models.ReportStatusFinished, FilePath: "reports/old.csv", FinishedAt: &old},
		{ID: "recent", Status: models.ReportStatusFinished, FinishedAt: &recent},
		{ID: "pending", Status: models.ReportStatusQueued},
	}

	f.svc.CleanupExpired(ctx)

	remaining := f.repo.All(ctx)
	require.Len(t, remaining, 2)
	assert.Equal(t, "recent", remaining[0].ID)
	_, err = f.files.Read("reports/old.csv")
	assert.ErrorIs(t, err, storage.ErrNotExist)
}
