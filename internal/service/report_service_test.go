package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/export"
	"github.com/schoolstack/sms-api/pkg/jobs"
	"github.com/schoolstack/sms-api/pkg/storage"
)

type stubReportRepo struct {
	jobsByID map[string]*models.ReportJob
}

func newStubReportRepo() *stubReportRepo {
	return &stubReportRepo{jobsByID: make(map[string]*models.ReportJob)}
}

func (r *stubReportRepo) Create(_ context.Context, job *models.ReportJob) error {
	copied := *job
	r.jobsByID[job.ID] = &copied
	return nil
}

func (r *stubReportRepo) FindByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobsByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (r *stubReportRepo) MarkRunning(_ context.Context, id string) error {
	r.jobsByID[id].Status = models.ReportJobRunning
	return nil
}

func (r *stubReportRepo) MarkCompleted(_ context.Context, id, filePath string) error {
	job := r.jobsByID[id]
	job.Status = models.ReportJobCompleted
	job.FilePath = &filePath
	return nil
}

func (r *stubReportRepo) MarkFailed(_ context.Context, id, message string) error {
	job := r.jobsByID[id]
	job.Status = models.ReportJobFailed
	job.ErrorMessage = &message
	return nil
}

func (r *stubReportRepo) ListByRequester(_ context.Context, userID string) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobsByID {
		if job.RequestedBy == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

type stubMarkSheetLoader struct {
	rows []models.MarkSheetRow
}

func (l stubMarkSheetLoader) MarkSheet(context.Context, string) ([]models.MarkSheetRow, error) {
	return l.rows, nil
}

type stubOverviewLoader struct {
	rows []models.AttendanceOverviewRow
}

func (l stubOverviewLoader) Overview(context.Context, string, string) ([]models.AttendanceOverviewRow, error) {
	return l.rows, nil
}

type captureQueue struct {
	enqueued []jobs.Job
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

type reportFixture struct {
	svc    *ReportService
	repo   *stubReportRepo
	queue  *captureQueue
	scope  *stubScope
	signer *storage.SignedURLSigner
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("report-test-secret", time.Minute)

	repo := newStubReportRepo()
	scope := &stubScope{}
	marks80 := 80.0
	gradeA := "A"
	svc := NewReportService(
		repo,
		stubMarkSheetLoader{rows: []models.MarkSheetRow{
			{StudentID: "st1", AdmissionNo: "ADM-001", StudentName: "Asha Rao", Marks: &marks80, Grade: &gradeA},
			{StudentID: "st2", AdmissionNo: "ADM-002", StudentName: "Vikram Nair"},
		}},
		stubOverviewLoader{rows: []models.AttendanceOverviewRow{}},
		&stubExamResolver{examSubject: &models.ExamSubject{
			ID: "es1", ExamID: "ex1", ClassID: "c1", SubjectID: "sub1", MaxMarks: 100,
		}},
		scope,
		store,
		signer,
		nil,
	)
	queue := &captureQueue{}
	svc.BindQueue(queue)
	return &reportFixture{svc: svc, repo: repo, queue: queue, scope: scope, signer: signer}
}

func TestReportRequestMarksSheet(t *testing.T) {
	f := newReportFixture(t)

	job, err := f.svc.RequestMarksSheet(context.Background(), "admin1", "", "es1", export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, models.ReportMarksSheet, job.Type)
	assert.Equal(t, models.ReportJobQueued, job.Status)
	assert.Equal(t, "admin1", job.RequestedBy)
	require.Len(t, f.queue.enqueued, 1)
	assert.Equal(t, job.ID, f.queue.enqueued[0].ID)
	// Empty teacherID means an admin call, so scope is never consulted.
	assert.Zero(t, f.scope.calls)
}

func TestReportRequestMarksSheetTeacherScope(t *testing.T) {
	f := newReportFixture(t)
	f.scope.denied = true

	_, err := f.svc.RequestMarksSheet(context.Background(), "u-t1", "t1", "es1", export.FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.queue.enqueued)
}

func TestReportRequestMarksSheetBadFormat(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.svc.RequestMarksSheet(context.Background(), "admin1", "", "es1", export.Format("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportRequestAttendanceOverviewBadDate(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.svc.RequestAttendanceOverview(context.Background(), "admin1", "03-01-2026", "", export.FormatPDF)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportExecuteRendersMarksSheetCSV(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	job, err := f.svc.RequestMarksSheet(ctx, "admin1", "", "es1", export.FormatCSV)
	require.NoError(t, err)

	require.NoError(t, f.svc.Execute(ctx, f.queue.enqueued[0]))

	stored, err := f.repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobCompleted, stored.Status)
	require.NotNil(t, stored.FilePath)

	status, err := f.svc.Status(ctx, "admin1", job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, status.DownloadToken)

	file, downloaded, err := f.svc.Download(ctx, status.DownloadToken)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, job.ID, downloaded.ID)

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Admission No,Student,Marks,Grade", lines[0])
	assert.Equal(t, "ADM-001,Asha Rao,80.00,A", lines[1])
	assert.Equal(t, "ADM-002,Vikram Nair,,", lines[2])
}

func TestReportStatusHidesOtherUsersJobs(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	job, err := f.svc.RequestMarksSheet(ctx, "admin1", "", "es1", export.FormatCSV)
	require.NoError(t, err)

	_, err = f.svc.Status(ctx, "someone-else", job.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportStatusQueuedHasNoToken(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	job, err := f.svc.RequestMarksSheet(ctx, "admin1", "", "es1", export.FormatCSV)
	require.NoError(t, err)

	status, err := f.svc.Status(ctx, "admin1", job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportJobQueued, status.Job.Status)
	assert.Empty(t, status.DownloadToken)
}

func TestReportDownloadRejectsTamperedToken(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	job, err := f.svc.RequestMarksSheet(ctx, "admin1", "", "es1", export.FormatCSV)
	require.NoError(t, err)
	require.NoError(t, f.svc.Execute(ctx, f.queue.enqueued[0]))

	status, err := f.svc.Status(ctx, "admin1", job.ID)
	require.NoError(t, err)

	_, _, err = f.svc.Download(ctx, status.DownloadToken+"ff")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
