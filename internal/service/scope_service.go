package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type scopeAssignmentRepo interface {
	FindForScope(ctx context.Context, teacherID, classID, subjectID string) ([]models.TeacherAssignment, error)
	FindForClass(ctx context.Context, teacherID, classID string) ([]models.TeacherAssignment, error)
	FindForSubject(ctx context.Context, teacherID, subjectID string) ([]models.TeacherAssignment, error)
}

// ScopeService decides whether a teacher may act on a (class, section-or-all,
// subject) target based on their assignment rows.
type ScopeService struct {
	assignments scopeAssignmentRepo
	strict      bool
	logger      *zap.Logger
}

// NewScopeService constructs the resolver. strict controls how an
// all-sections request is matched against single-section assignments; see
// SectionScope.Covers.
func NewScopeService(assignments scopeAssignmentRepo, strict bool, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{assignments: assignments, strict: strict, logger: logger}
}

// Authorize returns nil when at least one of the teacher's assignments covers
// the requested target, and ErrForbidden otherwise. Class and subject must
// match exactly; sections match through scope coverage.
func (s *ScopeService) Authorize(ctx context.Context, teacherID, classID string, section models.SectionScope, subjectID string) error {
	assignments, err := s.assignments.FindForScope(ctx, teacherID, classID, subjectID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	for _, a := range assignments {
		if a.Scope().Covers(section, s.strict) {
			return nil
		}
	}
	s.logger.Debug("scope denied",
		zap.String("teacher_id", teacherID),
		zap.String("class_id", classID),
		zap.String("subject_id", subjectID),
		zap.Bool("strict", s.strict),
	)
	return appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class, section and subject")
}

// HoldsClassAssignment returns nil when the teacher has any assignment whose
// scope covers the target class and section, ignoring the subject. Used for
// class-level duties like attendance.
func (s *ScopeService) HoldsClassAssignment(ctx context.Context, teacherID, classID string, section models.SectionScope) error {
	assignments, err := s.assignments.FindForClass(ctx, teacherID, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	for _, a := range assignments {
		if a.Scope().Covers(section, s.strict) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not assigned to this class and section")
}

// AssignmentsForSubject returns every assignment the teacher holds on a
// subject. Fan-out posts target each of these rows; an empty result means the
// teacher has no business posting for the subject at all.
func (s *ScopeService) AssignmentsForSubject(ctx context.Context, teacherID, subjectID string) ([]models.TeacherAssignment, error) {
	assignments, err := s.assignments.FindForSubject(ctx, teacherID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	return assignments, nil
}
