package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

// defaultMaxMarks is the ceiling applied when an exam subject is created
// implicitly during mark entry.
const defaultMaxMarks = 100

type examRepo interface {
	ListExams(ctx context.Context) ([]models.Exam, error)
	FindExam(ctx context.Context, id string) (*models.Exam, error)
	CreateExam(ctx context.Context, exam *models.Exam) error
	DeleteExam(ctx context.Context, id string) error
	FindExamSubjectExact(ctx context.Context, examID, classID string, sectionID *string, subjectID string) (*models.ExamSubject, error)
	FindExamSubjectCommon(ctx context.Context, examID, classID, subjectID string) (*models.ExamSubject, error)
	CreateExamSubject(ctx context.Context, es *models.ExamSubject) error
	FindExamSubjectByID(ctx context.Context, id string) (*models.ExamSubject, error)
	ListExamSubjects(ctx context.Context, examID string) ([]models.ExamSubjectDetail, error)
}

// CreateExamRequest is the payload for creating an exam window.
type CreateExamRequest struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// CreateExamSubjectRequest schedules a subject inside an exam.
type CreateExamSubjectRequest struct {
	ExamID    string  `json:"exam_id" validate:"required"`
	ClassID   string  `json:"class_id" validate:"required"`
	SectionID *string `json:"section_id"`
	SubjectID string  `json:"subject_id" validate:"required"`
	MaxMarks  float64 `json:"max_marks" validate:"gte=0"`
}

// ExamService manages exams and the exam-subject rows marks attach to.
type ExamService struct {
	repo      examRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs ExamService.
func NewExamService(repo examRepo, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, validator: validate, logger: logger}
}

// List returns all exams.
func (s *ExamService) List(ctx context.Context) ([]models.Exam, error) {
	exams, err := s.repo.ListExams(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// Create adds an exam window.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	exam := &models.Exam{Name: req.Name, StartDate: req.StartDate, EndDate: req.EndDate}
	if err := s.repo.CreateExam(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	return exam, nil
}

// Delete removes an exam.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindExam(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if err := s.repo.DeleteExam(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	return nil
}

// CreateSubject schedules a subject in an exam explicitly, with an admin-set
// marks ceiling. Duplicate tuples are rejected.
func (s *ExamService) CreateSubject(ctx context.Context, req CreateExamSubjectRequest) (*models.ExamSubject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam subject payload")
	}
	sectionID := normalizeOptional(req.SectionID)

	existing, err := s.repo.FindExamSubjectExact(ctx, req.ExamID, req.ClassID, sectionID, req.SubjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check exam subject")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already scheduled for this exam and target")
	}

	maxMarks := req.MaxMarks
	if maxMarks == 0 {
		maxMarks = defaultMaxMarks
	}
	es := &models.ExamSubject{
		ExamID:    req.ExamID,
		ClassID:   req.ClassID,
		SectionID: sectionID,
		SubjectID: req.SubjectID,
		MaxMarks:  maxMarks,
	}
	if err := s.repo.CreateExamSubject(ctx, es); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam subject")
	}
	return es, nil
}

// ListSubjects returns the schedule of one exam.
func (s *ExamService) ListSubjects(ctx context.Context, examID string) ([]models.ExamSubjectDetail, error) {
	subjects, err := s.repo.ListExamSubjects(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam subjects")
	}
	return subjects, nil
}

// FindExamSubject returns one exam-subject row.
func (s *ExamService) FindExamSubject(ctx context.Context, id string) (*models.ExamSubject, error) {
	return s.repo.FindExamSubjectByID(ctx, id)
}

// ResolveExamSubject finds or lazily creates the exam-subject row marks attach
// to. Resolution order: the exact (exam, class, section-or-null, subject)
// tuple first, then the class-wide row with no section, then a new row for the
// requested target with the default ceiling. Calling it twice with the same
// arguments yields the same row.
func (s *ExamService) ResolveExamSubject(ctx context.Context, examID, classID string, section models.SectionScope, subjectID string) (*models.ExamSubject, error) {
	sectionID := section.Nullable()

	es, err := s.repo.FindExamSubjectExact(ctx, examID, classID, sectionID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve exam subject")
	}
	if es != nil {
		return es, nil
	}

	if sectionID != nil {
		es, err = s.repo.FindExamSubjectCommon(ctx, examID, classID, subjectID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve exam subject")
		}
		if es != nil {
			return es, nil
		}
	}

	es = &models.ExamSubject{
		ExamID:    examID,
		ClassID:   classID,
		SectionID: sectionID,
		SubjectID: subjectID,
		MaxMarks:  defaultMaxMarks,
	}
	if err := s.repo.CreateExamSubject(ctx, es); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam subject")
	}
	s.logger.Info("exam subject created on first mark entry",
		zap.String("exam_id", examID),
		zap.String("class_id", classID),
		zap.String("subject_id", subjectID),
	)
	return es, nil
}
