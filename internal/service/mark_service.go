package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/pkg/database"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type markRepo interface {
	UpsertBatchTx(ctx context.Context, tx *sqlx.Tx, marks []models.Mark) error
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentMark, error)
	MarkSheet(ctx context.Context, examSubjectID string) ([]models.MarkSheetRow, error)
}

type scopeAuthorizer interface {
	Authorize(ctx context.Context, teacherID, classID string, section models.SectionScope, subjectID string) error
}

type examSubjectResolver interface {
	ResolveExamSubject(ctx context.Context, examID, classID string, section models.SectionScope, subjectID string) (*models.ExamSubject, error)
	FindExamSubject(ctx context.Context, id string) (*models.ExamSubject, error)
}

type rosterReader interface {
	Roster(ctx context.Context, classID string, sectionID *string) ([]models.RosterStudent, error)
}

// MarkEntry is one student's score in a submission.
type MarkEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Marks     float64 `json:"marks" validate:"gte=0"`
	Grade     *string `json:"grade"`
	Remarks   *string `json:"remarks"`
}

// SubmitMarksRequest is a teacher's mark sheet for one exam target.
type SubmitMarksRequest struct {
	ExamID    string      `json:"exam_id" validate:"required"`
	ClassID   string      `json:"class_id" validate:"required"`
	SectionID *string     `json:"section_id"`
	SubjectID string      `json:"subject_id" validate:"required"`
	Marks     []MarkEntry `json:"marks" validate:"required,min=1,dive"`
}

// SubmitMarksResult reports the saved sheet.
type SubmitMarksResult struct {
	ExamSubjectID string `json:"exam_subject_id"`
	SavedCount    int    `json:"saved_count"`
}

// MarkService handles mark entry and retrieval. Mark submission is the flow
// that exercises the whole authorization chain: scope check, exam subject
// resolution, then an all-or-nothing upsert.
type MarkService struct {
	db        *sqlx.DB
	repo      markRepo
	scope     scopeAuthorizer
	exams     examSubjectResolver
	roster    rosterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkService constructs MarkService.
func NewMarkService(db *sqlx.DB, repo markRepo, scope scopeAuthorizer, exams examSubjectResolver, roster rosterReader, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{db: db, repo: repo, scope: scope, exams: exams, roster: roster, validator: validate, logger: logger}
}

// Submit saves a teacher's mark sheet. The teacher must hold an assignment
// covering the target; every student must belong to the target roster; every
// score must respect the subject's ceiling. Any violation rejects the whole
// sheet, and the upsert runs in one transaction so a partial sheet is never
// stored.
func (s *MarkService) Submit(ctx context.Context, teacherID string, req SubmitMarksRequest) (*SubmitMarksResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	section := models.ScopeFromNullable(req.SectionID)
	if err := s.scope.Authorize(ctx, teacherID, req.ClassID, section, req.SubjectID); err != nil {
		return nil, err
	}

	examSubject, err := s.exams.ResolveExamSubject(ctx, req.ExamID, req.ClassID, section, req.SubjectID)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster.Roster(ctx, req.ClassID, examSubject.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	enrolled := make(map[string]struct{}, len(roster))
	for _, st := range roster {
		enrolled[st.ID] = struct{}{}
	}

	marks := make([]models.Mark, 0, len(req.Marks))
	seen := make(map[string]struct{}, len(req.Marks))
	for _, entry := range req.Marks {
		if _, ok := enrolled[entry.StudentID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in the target roster", entry.StudentID))
		}
		if _, dup := seen[entry.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for student %s", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}
		if entry.Marks > examSubject.MaxMarks {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("marks %.2f exceed the ceiling %.2f", entry.Marks, examSubject.MaxMarks))
		}
		marks = append(marks, models.Mark{
			ExamSubjectID: examSubject.ID,
			StudentID:     entry.StudentID,
			Marks:         entry.Marks,
			Grade:         normalizeOptional(entry.Grade),
			Remarks:       normalizeOptional(entry.Remarks),
		})
	}

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.repo.UpsertBatchTx(ctx, tx, marks)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}

	s.logger.Info("marks saved",
		zap.String("exam_subject_id", examSubject.ID),
		zap.String("teacher_id", teacherID),
		zap.Int("count", len(marks)),
	)
	return &SubmitMarksResult{ExamSubjectID: examSubject.ID, SavedCount: len(marks)}, nil
}

// Sheet returns the roster-with-marks view of an exam subject for a teacher
// who holds a covering assignment.
func (s *MarkService) Sheet(ctx context.Context, teacherID, examSubjectID string) ([]models.MarkSheetRow, error) {
	examSubject, err := s.exams.FindExamSubject(ctx, examSubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam subject")
	}
	if err := s.scope.Authorize(ctx, teacherID, examSubject.ClassID, examSubject.Scope(), examSubject.SubjectID); err != nil {
		return nil, err
	}

	rows, err := s.repo.MarkSheet(ctx, examSubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mark sheet")
	}
	return rows, nil
}

// StudentMarks returns a student's own marks across exams.
func (s *MarkService) StudentMarks(ctx context.Context, studentID string) ([]models.StudentMark, error) {
	marks, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marks")
	}
	return marks, nil
}
