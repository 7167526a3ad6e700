package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/pkg/database"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type attendanceRepo interface {
	UpsertBatchTx(ctx context.Context, tx *sqlx.Tx, records []models.AttendanceRecord) error
	ListByStudent(ctx context.Context, studentID, from, to string) ([]models.AttendanceRecord, error)
	ListByClassDate(ctx context.Context, classID string, sectionID *string, date string) ([]models.AttendanceRecord, error)
	Overview(ctx context.Context, from, to string) ([]models.AttendanceOverviewRow, error)
}

type attendanceScopeChecker interface {
	HoldsClassAssignment(ctx context.Context, teacherID, classID string, section models.SectionScope) error
}

// AttendanceEntry is one student's status in a submission.
type AttendanceEntry struct {
	StudentID string                  `json:"student_id" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
	Remarks   *string                 `json:"remarks"`
}

// MarkAttendanceRequest is a teacher's attendance sheet for one day.
type MarkAttendanceRequest struct {
	ClassID   string            `json:"class_id" validate:"required"`
	SectionID *string           `json:"section_id"`
	Date      string            `json:"date" validate:"required"`
	Entries   []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceService records and reports daily attendance.
type AttendanceService struct {
	db        *sqlx.DB
	repo      attendanceRepo
	scope     attendanceScopeChecker
	roster    rosterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(db *sqlx.DB, repo attendanceRepo, scope attendanceScopeChecker, roster rosterReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{db: db, repo: repo, scope: scope, roster: roster, validator: validate, logger: logger}
}

// Mark saves a day's attendance. The teacher must hold any assignment on the
// target class and section; attendance is per class, not per subject, so the
// subject of the assignment does not matter. Re-marking a student on the same
// date overwrites the earlier status.
func (s *AttendanceService) Mark(ctx context.Context, teacherID string, req MarkAttendanceRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	section := models.ScopeFromNullable(req.SectionID)
	if err := s.scope.HoldsClassAssignment(ctx, teacherID, req.ClassID, section); err != nil {
		return 0, err
	}

	roster, err := s.roster.Roster(ctx, req.ClassID, normalizeOptional(req.SectionID))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	enrolled := make(map[string]struct{}, len(roster))
	for _, st := range roster {
		enrolled[st.ID] = struct{}{}
	}

	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if !entry.Status.Valid() {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", entry.Status))
		}
		if _, ok := enrolled[entry.StudentID]; !ok {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in the target roster", entry.StudentID))
		}
		records = append(records, models.AttendanceRecord{
			StudentID: entry.StudentID,
			Date:      req.Date,
			Status:    entry.Status,
			MarkedBy:  teacherID,
			Remarks:   normalizeOptional(entry.Remarks),
		})
	}

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.repo.UpsertBatchTx(ctx, tx, records)
	})
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	s.logger.Info("attendance saved",
		zap.String("class_id", req.ClassID),
		zap.String("date", req.Date),
		zap.Int("count", len(records)),
	)
	return len(records), nil
}

// ClassSheet returns the attendance of a class roster on one date.
func (s *AttendanceService) ClassSheet(ctx context.Context, teacherID, classID string, sectionID *string, date string) ([]models.AttendanceRecord, error) {
	section := models.ScopeFromNullable(sectionID)
	if err := s.scope.HoldsClassAssignment(ctx, teacherID, classID, section); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByClassDate(ctx, classID, normalizeOptional(sectionID), date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// StudentAttendance returns a student's history within an optional range.
func (s *AttendanceService) StudentAttendance(ctx context.Context, studentID, from, to string) ([]models.AttendanceRecord, error) {
	records, err := s.repo.ListByStudent(ctx, studentID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Overview aggregates attendance percentages per class/section for admins.
func (s *AttendanceService) Overview(ctx context.Context, from, to string) ([]models.AttendanceOverviewRow, error) {
	rows, err := s.repo.Overview(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build overview")
	}
	return rows, nil
}
