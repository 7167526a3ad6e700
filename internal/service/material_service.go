package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/pkg/database"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type materialRepo interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, m *models.Material) error
	FindByID(ctx context.Context, id string) (*models.Material, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.MaterialDetail, error)
	ListForStudent(ctx context.Context, classID string, sectionID *string) ([]models.MaterialDetail, error)
	Delete(ctx context.Context, id string) error
}

type notificationWriter interface {
	CreateBatchTx(ctx context.Context, tx *sqlx.Tx, notifications []models.Notification) error
}

type assignmentLister interface {
	AssignmentsForSubject(ctx context.Context, teacherID, subjectID string) ([]models.TeacherAssignment, error)
}

// CreateMaterialRequest is a teacher's study material or homework post. An
// empty class_id fans the post out to every class the teacher is assigned for
// the subject; a due_date marks the post as homework.
type CreateMaterialRequest struct {
	ClassID     string  `json:"class_id"`
	SectionID   *string `json:"section_id"`
	SubjectID   string  `json:"subject_id" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	FileURL     *string `json:"file_url"`
	DueDate     *string `json:"due_date"`
}

// MaterialService manages study materials. Posting a material notifies every
// student in the target roster.
type MaterialService struct {
	db            *sqlx.DB
	repo          materialRepo
	scope         scopeAuthorizer
	assignments   assignmentLister
	roster        rosterReader
	notifications notificationWriter
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewMaterialService constructs MaterialService.
func NewMaterialService(db *sqlx.DB, repo materialRepo, scope scopeAuthorizer, assignments assignmentLister, roster rosterReader, notifications notificationWriter, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{db: db, repo: repo, scope: scope, assignments: assignments, roster: roster, notifications: notifications, validator: validate, logger: logger}
}

type materialTarget struct {
	classID   string
	sectionID *string
}

// Create posts a material after the scope check, then fans a notification out
// to every student user in the target rosters. With an explicit class_id the
// post targets that single class/section; without one it targets every class
// the teacher is assigned for the subject, one material row per assignment.
// All rows and notifications share one transaction, so a material never exists
// without its notifications.
func (s *MaterialService) Create(ctx context.Context, teacherID string, req CreateMaterialRequest) ([]models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	dueDate := normalizeOptional(req.DueDate)
	if dueDate != nil {
		if _, err := time.Parse("2006-01-02", *dueDate); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must be YYYY-MM-DD")
		}
	}

	targets, err := s.resolveTargets(ctx, teacherID, req)
	if err != nil {
		return nil, err
	}

	materials := make([]models.Material, 0, len(targets))
	var notifications []models.Notification
	message := fmt.Sprintf("New study material posted: %s", req.Title)
	for _, target := range targets {
		roster, err := s.roster.Roster(ctx, target.classID, target.sectionID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		materials = append(materials, models.Material{
			ClassID:     target.classID,
			SectionID:   target.sectionID,
			SubjectID:   req.SubjectID,
			TeacherID:   teacherID,
			Title:       req.Title,
			Description: normalizeOptional(req.Description),
			FileURL:     normalizeOptional(req.FileURL),
			DueDate:     dueDate,
		})
		for _, st := range roster {
			userID := st.UserID
			notifications = append(notifications, models.Notification{
				Title:        "New study material",
				Message:      message,
				TargetUserID: &userID,
			})
		}
	}

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for i := range materials {
			if err := s.repo.CreateTx(ctx, tx, &materials[i]); err != nil {
				return err
			}
		}
		if len(notifications) == 0 {
			return nil
		}
		return s.notifications.CreateBatchTx(ctx, tx, notifications)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}

	s.logger.Info("material posted",
		zap.String("teacher_id", teacherID),
		zap.String("subject_id", req.SubjectID),
		zap.Int("targets", len(materials)),
		zap.Int("notified", len(notifications)),
	)
	return materials, nil
}

// resolveTargets turns the request into concrete (class, section) targets. The
// explicit path runs through the scope check; the fan-out path is implicitly
// scoped because it only reads the teacher's own assignment rows.
func (s *MaterialService) resolveTargets(ctx context.Context, teacherID string, req CreateMaterialRequest) ([]materialTarget, error) {
	if req.ClassID != "" {
		section := models.ScopeFromNullable(req.SectionID)
		if err := s.scope.Authorize(ctx, teacherID, req.ClassID, section, req.SubjectID); err != nil {
			return nil, err
		}
		return []materialTarget{{classID: req.ClassID, sectionID: normalizeOptional(req.SectionID)}}, nil
	}

	assignments, err := s.assignments.AssignmentsForSubject(ctx, teacherID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher is not assigned to this subject")
	}

	seen := make(map[string]struct{}, len(assignments))
	targets := make([]materialTarget, 0, len(assignments))
	for _, a := range assignments {
		key := a.ClassID
		if a.SectionID != nil {
			key += ":" + *a.SectionID
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		targets = append(targets, materialTarget{classID: a.ClassID, sectionID: a.SectionID})
	}
	return targets, nil
}

// TeacherMaterials lists a teacher's posts.
func (s *MaterialService) TeacherMaterials(ctx context.Context, teacherID string) ([]models.MaterialDetail, error) {
	materials, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// StudentMaterials lists the posts visible to a (class, section) student.
func (s *MaterialService) StudentMaterials(ctx context.Context, classID string, sectionID *string) ([]models.MaterialDetail, error) {
	materials, err := s.repo.ListForStudent(ctx, classID, normalizeOptional(sectionID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// Delete removes a post. Only the posting teacher may delete it.
func (s *MaterialService) Delete(ctx context.Context, teacherID, id string) error {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if material.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrForbidden, "material belongs to another teacher")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	return nil
}
