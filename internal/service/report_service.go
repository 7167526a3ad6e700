package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
	"github.com/schoolstack/sms-api/pkg/export"
	"github.com/schoolstack/sms-api/pkg/jobs"
)

type reportJobRepo interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, message string) error
	ListByRequester(ctx context.Context, userID string) ([]models.ReportJob, error)
}

type markSheetLoader interface {
	MarkSheet(ctx context.Context, examSubjectID string) ([]models.MarkSheetRow, error)
}

type attendanceOverviewLoader interface {
	Overview(ctx context.Context, from, to string) ([]models.AttendanceOverviewRow, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type urlSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string) (jobID, relPath string, expiresAt time.Time, err error)
}

type reportQueue interface {
	Enqueue(job jobs.Job) error
}

// reportPayload travels with the queued job; the database row only tracks
// status, so transient parameters like the overview date range live here.
type reportPayload struct {
	JobID         string
	Type          models.ReportType
	Format        export.Format
	ExamSubjectID string
	From          string
	To            string
}

// ReportStatus is the polling view of a job, with a signed download token
// once the file is ready.
type ReportStatus struct {
	Job           models.ReportJob `json:"job"`
	DownloadToken string           `json:"download_token,omitempty"`
	TokenExpires  *time.Time       `json:"token_expires,omitempty"`
}

// ReportService renders mark sheets and attendance overviews asynchronously.
// Requests are queued, workers render CSV or PDF to local storage, and
// completed files are fetched through short-lived signed tokens.
type ReportService struct {
	repo       reportJobRepo
	marks      markSheetLoader
	attendance attendanceOverviewLoader
	exams      examSubjectResolver
	scope      scopeAuthorizer
	storage    reportStorage
	signer     urlSigner
	queue      reportQueue
	logger     *zap.Logger
}

// NewReportService constructs ReportService. Call BindQueue before serving
// requests.
func NewReportService(repo reportJobRepo, marks markSheetLoader, attendance attendanceOverviewLoader, exams examSubjectResolver, scope scopeAuthorizer, storage reportStorage, signer urlSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:       repo,
		marks:      marks,
		attendance: attendance,
		exams:      exams,
		scope:      scope,
		storage:    storage,
		signer:     signer,
		logger:     logger,
	}
}

// BindQueue attaches the worker queue. Separate from the constructor because
// the queue handler needs the service and the service needs the queue.
func (s *ReportService) BindQueue(q reportQueue) {
	s.queue = q
}

// RequestMarksSheet queues a mark sheet export. Teachers must hold a covering
// assignment on the exam subject; admins pass an empty teacherID and skip the
// scope check.
func (s *ReportService) RequestMarksSheet(ctx context.Context, requesterID, teacherID, examSubjectID string, format export.Format) (*models.ReportJob, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}

	examSubject, err := s.exams.FindExamSubject(ctx, examSubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subject")
	}
	if teacherID != "" {
		if err := s.scope.Authorize(ctx, teacherID, examSubject.ClassID, examSubject.Scope(), examSubject.SubjectID); err != nil {
			return nil, err
		}
	}

	job := &models.ReportJob{
		ID:            uuid.NewString(),
		Type:          models.ReportMarksSheet,
		Format:        string(format),
		RequestedBy:   requesterID,
		ExamSubjectID: &examSubjectID,
		ClassID:       &examSubject.ClassID,
		SectionID:     examSubject.SectionID,
		Status:        models.ReportJobQueued,
	}
	return s.enqueue(ctx, job, reportPayload{
		JobID:         job.ID,
		Type:          models.ReportMarksSheet,
		Format:        format,
		ExamSubjectID: examSubjectID,
	})
}

// RequestAttendanceOverview queues an attendance overview export over an
// optional date range. Admin only; the router enforces the role.
func (s *ReportService) RequestAttendanceOverview(ctx context.Context, requesterID, from, to string, format export.Format) (*models.ReportJob, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dates must be YYYY-MM-DD")
		}
	}

	job := &models.ReportJob{
		ID:          uuid.NewString(),
		Type:        models.ReportAttendanceOverview,
		Format:      string(format),
		RequestedBy: requesterID,
		Status:      models.ReportJobQueued,
	}
	return s.enqueue(ctx, job, reportPayload{
		JobID:  job.ID,
		Type:   models.ReportAttendanceOverview,
		Format: format,
		From:   from,
		To:     to,
	})
}

// Status returns a job's state to its requester, minting a download token
// when the file is ready.
func (s *ReportService) Status(ctx context.Context, requesterID, jobID string) (*ReportStatus, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.RequestedBy != requesterID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another user")
	}

	status := &ReportStatus{Job: *job}
	if job.Status == models.ReportJobCompleted && job.FilePath != nil {
		token, expires, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
		}
		status.DownloadToken = token
		status.TokenExpires = &expires
	}
	return status, nil
}

// List returns the requester's jobs.
func (s *ReportService) List(ctx context.Context, requesterID string) ([]models.ReportJob, error) {
	reportJobs, err := s.repo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	return reportJobs, nil
}

// Download validates a signed token and opens the rendered file. Expired or
// tampered tokens are rejected before any filesystem access.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, *models.ReportJob, error) {
	jobID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportJobCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "report file not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report file")
	}
	return file, job, nil
}

// Execute is the queue handler. It renders the report and records the
// outcome; returning an error lets the queue retry up to its limit.
func (s *ReportService) Execute(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reportPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	if err := s.repo.MarkRunning(ctx, payload.JobID); err != nil {
		return err
	}

	table, err := s.buildTable(ctx, payload)
	if err != nil {
		s.fail(ctx, payload.JobID, err)
		return err
	}

	data, err := export.Render(*table, payload.Format)
	if err != nil {
		s.fail(ctx, payload.JobID, err)
		return err
	}

	filename := fmt.Sprintf("%s-%s.%s", payload.Type, payload.JobID, payload.Format)
	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		s.fail(ctx, payload.JobID, err)
		return err
	}

	if err := s.repo.MarkCompleted(ctx, payload.JobID, relPath); err != nil {
		return err
	}
	s.logger.Info("report rendered",
		zap.String("job_id", payload.JobID),
		zap.String("type", string(payload.Type)),
		zap.String("file", relPath),
	)
	return nil
}

func (s *ReportService) enqueue(ctx context.Context, job *models.ReportJob, payload reportPayload) (*models.ReportJob, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue not running")
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type), Payload: payload}); err != nil {
		s.fail(ctx, job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return job, nil
}

func (s *ReportService) buildTable(ctx context.Context, payload reportPayload) (*export.Table, error) {
	switch payload.Type {
	case models.ReportMarksSheet:
		rows, err := s.marks.MarkSheet(ctx, payload.ExamSubjectID)
		if err != nil {
			return nil, err
		}
		table := &export.Table{
			Title:   "Marks Sheet",
			Columns: []string{"Admission No", "Student", "Marks", "Grade"},
		}
		for _, r := range rows {
			marks := ""
			if r.Marks != nil {
				marks = strconv.FormatFloat(*r.Marks, 'f', 2, 64)
			}
			grade := ""
			if r.Grade != nil {
				grade = *r.Grade
			}
			table.Rows = append(table.Rows, []string{r.AdmissionNo, r.StudentName, marks, grade})
		}
		return table, nil

	case models.ReportAttendanceOverview:
		rows, err := s.attendance.Overview(ctx, payload.From, payload.To)
		if err != nil {
			return nil, err
		}
		table := &export.Table{
			Title:   "Attendance Overview",
			Columns: []string{"Class", "Section", "Records", "Present", "Percentage"},
		}
		for _, r := range rows {
			pct := ""
			if r.Percentage != nil {
				pct = strconv.FormatFloat(*r.Percentage, 'f', 2, 64)
			}
			table.Rows = append(table.Rows, []string{
				r.ClassName, r.SectionName,
				strconv.Itoa(r.TotalRecords), strconv.Itoa(r.PresentCount), pct,
			})
		}
		return table, nil

	default:
		return nil, fmt.Errorf("unknown report type %q", payload.Type)
	}
}

func (s *ReportService) fail(ctx context.Context, jobID string, cause error) {
	if err := s.repo.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		s.logger.Error("failed to record report failure", zap.String("job_id", jobID), zap.Error(err))
	}
}
