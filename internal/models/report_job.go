package models

import "time"

// ReportType identifies which dataset a report job renders.
type ReportType string

const (
	ReportMarksSheet         ReportType = "marks_sheet"
	ReportAttendanceOverview ReportType = "attendance_overview"
)

// Valid reports whether the report type is known.
func (t ReportType) Valid() bool {
	return t == ReportMarksSheet || t == ReportAttendanceOverview
}

// ReportJobStatus tracks a report job through the worker queue.
type ReportJobStatus string

const (
	ReportJobQueued    ReportJobStatus = "QUEUED"
	ReportJobRunning   ReportJobStatus = "RUNNING"
	ReportJobCompleted ReportJobStatus = "COMPLETED"
	ReportJobFailed    ReportJobStatus = "FAILED"
)

// ReportJob is a queued export of a marks sheet or attendance overview.
type ReportJob struct {
	ID            string          `db:"id" json:"id"`
	Type          ReportType      `db:"type" json:"type"`
	Format        string          `db:"format" json:"format"`
	RequestedBy   string          `db:"requested_by" json:"requested_by"`
	ExamSubjectID *string         `db:"exam_subject_id" json:"exam_subject_id,omitempty"`
	ClassID       *string         `db:"class_id" json:"class_id,omitempty"`
	SectionID     *string         `db:"section_id" json:"section_id,omitempty"`
	Status        ReportJobStatus `db:"status" json:"status"`
	FilePath      *string         `db:"file_path" json:"-"`
	ErrorMessage  *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
