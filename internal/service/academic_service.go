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

type academicRepo interface {
	ListClasses(ctx context.Context) ([]models.Class, error)
	FindClass(ctx context.Context, id string) (*models.Class, error)
	CreateClass(ctx context.Context, class *models.Class) error
	DeleteClass(ctx context.Context, id string) error
	ListSections(ctx context.Context, classID string) ([]models.Section, error)
	FindSection(ctx context.Context, id string) (*models.Section, error)
	CreateSection(ctx context.Context, section *models.Section) error
	DeleteSection(ctx context.Context, id string) error
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	FindSubject(ctx context.Context, id string) (*models.Subject, error)
	CreateSubject(ctx context.Context, subject *models.Subject) error
	DeleteSubject(ctx context.Context, id string) error
}

type assignmentRepo interface {
	Create(ctx context.Context, a *models.TeacherAssignment) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.TeacherAssignment, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error)
}

// CreateClassRequest names a new class.
type CreateClassRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateSectionRequest adds a section under a class.
type CreateSectionRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

// CreateSubjectRequest names a new subject.
type CreateSubjectRequest struct {
	Name string  `json:"name" validate:"required"`
	Code *string `json:"code"`
}

// AssignTeacherRequest grants a teacher a (class, section-or-all, subject)
// target.
type AssignTeacherRequest struct {
	TeacherID string  `json:"teacher_id" validate:"required"`
	ClassID   string  `json:"class_id" validate:"required"`
	SectionID *string `json:"section_id"`
	SubjectID string  `json:"subject_id" validate:"required"`
}

// AcademicService manages the school structure and teacher assignments.
type AcademicService struct {
	repo        academicRepo
	assignments assignmentRepo
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAcademicService constructs AcademicService.
func NewAcademicService(repo academicRepo, assignments assignmentRepo, validate *validator.Validate, logger *zap.Logger) *AcademicService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicService{repo: repo, assignments: assignments, validator: validate, logger: logger}
}

// ListClasses returns all classes.
func (s *AcademicService) ListClasses(ctx context.Context) ([]models.Class, error) {
	classes, err := s.repo.ListClasses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// CreateClass adds a class.
func (s *AcademicService) CreateClass(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{Name: req.Name}
	if err := s.repo.CreateClass(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// DeleteClass removes a class.
func (s *AcademicService) DeleteClass(ctx context.Context, id string) error {
	if _, err := s.repo.FindClass(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.repo.DeleteClass(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

// ListSections returns the sections of a class.
func (s *AcademicService) ListSections(ctx context.Context, classID string) ([]models.Section, error) {
	sections, err := s.repo.ListSections(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// CreateSection adds a section, verifying the class exists.
func (s *AcademicService) CreateSection(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.repo.FindClass(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	section := &models.Section{ClassID: req.ClassID, Name: req.Name}
	if err := s.repo.CreateSection(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}

// DeleteSection removes a section.
func (s *AcademicService) DeleteSection(ctx context.Context, id string) error {
	if _, err := s.repo.FindSection(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if err := s.repo.DeleteSection(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}

// ListSubjects returns all subjects.
func (s *AcademicService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// CreateSubject adds a subject.
func (s *AcademicService) CreateSubject(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{Name: req.Name, Code: normalizeOptional(req.Code)}
	if err := s.repo.CreateSubject(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// DeleteSubject removes a subject.
func (s *AcademicService) DeleteSubject(ctx context.Context, id string) error {
	if _, err := s.repo.FindSubject(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := s.repo.DeleteSubject(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

// AssignTeacher grants an assignment after verifying the referenced class,
// section and subject exist and belong together.
func (s *AcademicService) AssignTeacher(ctx context.Context, req AssignTeacherRequest) (*models.TeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.repo.FindClass(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.repo.FindSubject(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	sectionID := normalizeOptional(req.SectionID)
	if sectionID != nil {
		section, err := s.repo.FindSection(ctx, *sectionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
		}
		if section.ClassID != req.ClassID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "section does not belong to the class")
		}
	}

	assignment := &models.TeacherAssignment{
		TeacherID: req.TeacherID,
		ClassID:   req.ClassID,
		SectionID: sectionID,
		SubjectID: req.SubjectID,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// RevokeAssignment deletes an assignment row.
func (s *AcademicService) RevokeAssignment(ctx context.Context, id string) error {
	if _, err := s.assignments.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

// TeacherAssignments lists a teacher's assignments with names.
func (s *AcademicService) TeacherAssignments(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}
