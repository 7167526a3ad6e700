package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// ReportRepository tracks queued report export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a job in QUEUED state.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportJobQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs
		(id, type, format, requested_by, exam_subject_id, class_id, section_id, status, file_path, error_message, created_at, completed_at)
		VALUES (:id, :type, :format, :requested_by, :exam_subject_id, :class_id, :section_id, :status, :file_path, :error_message, :created_at, :completed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID returns one job.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	const query = `SELECT id, type, format, requested_by, exam_subject_id, class_id, section_id,
		status, file_path, error_message, created_at, completed_at
		FROM report_jobs WHERE id = $1`
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning flips a job to RUNNING.
func (r *ReportRepository) MarkRunning(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET status = 'RUNNING' WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark report running: %w", err)
	}
	return nil
}

// MarkCompleted records the rendered file and flips the job to COMPLETED.
func (r *ReportRepository) MarkCompleted(ctx context.Context, id, filePath string) error {
	const query = `UPDATE report_jobs SET status = 'COMPLETED', file_path = $2, completed_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, filePath, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark report completed: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason and flips the job to FAILED.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, message string) error {
	const query = `UPDATE report_jobs SET status = 'FAILED', error_message = $2, completed_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, message, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark report failed: %w", err)
	}
	return nil
}

// ListByRequester returns a user's jobs, newest first.
func (r *ReportRepository) ListByRequester(ctx context.Context, userID string) ([]models.ReportJob, error) {
	const query = `SELECT id, type, format, requested_by, exam_subject_id, class_id, section_id,
		status, file_path, error_message, created_at, completed_at
		FROM report_jobs WHERE requested_by = $1 ORDER BY created_at DESC`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}
