package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/pkg/database"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type notificationRepo interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateBatchTx(ctx context.Context, tx *sqlx.Tx, notifications []models.Notification) error
	ListForUser(ctx context.Context, userID string, role models.UserRole, limit int) ([]models.Notification, error)
	Delete(ctx context.Context, id string) error
}

// CreateNotificationRequest targets a role, one user, or everyone when both
// targets are empty.
type CreateNotificationRequest struct {
	Title        string  `json:"title" validate:"required"`
	Message      string  `json:"message" validate:"required"`
	TargetRole   *string `json:"target_role"`
	TargetUserID *string `json:"target_user_id"`
}

// SendClassNotificationRequest is a teacher's notice to one class roster.
type SendClassNotificationRequest struct {
	ClassID   string  `json:"class_id" validate:"required"`
	SectionID *string `json:"section_id"`
	Title     string  `json:"title" validate:"required"`
	Message   string  `json:"message" validate:"required"`
}

// NotificationService manages announcements.
type NotificationService struct {
	db        *sqlx.DB
	repo      notificationRepo
	scope     attendanceScopeChecker
	roster    rosterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(db *sqlx.DB, repo notificationRepo, scope attendanceScopeChecker, roster rosterReader, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{db: db, repo: repo, scope: scope, roster: roster, validator: validate, logger: logger}
}

// Create posts an announcement. A role and a user target are mutually
// exclusive.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	role := normalizeOptional(req.TargetRole)
	userID := normalizeOptional(req.TargetUserID)
	if role != nil && userID != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "target_role and target_user_id are mutually exclusive")
	}

	var targetRole *models.UserRole
	if role != nil {
		r := models.UserRole(*role)
		if !r.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid target role")
		}
		targetRole = &r
	}

	notification := &models.Notification{
		Title:        req.Title,
		Message:      req.Message,
		TargetRole:   targetRole,
		TargetUserID: userID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return notification, nil
}

// SendToClass fans a teacher's notice out to one (class, section-or-all)
// roster, one row per enrolled student's user id, behind the class-assignment
// check. Returns how many rows were written.
func (s *NotificationService) SendToClass(ctx context.Context, teacherID string, req SendClassNotificationRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	section := models.ScopeFromNullable(req.SectionID)
	if err := s.scope.HoldsClassAssignment(ctx, teacherID, req.ClassID, section); err != nil {
		return 0, err
	}

	roster, err := s.roster.Roster(ctx, req.ClassID, normalizeOptional(req.SectionID))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	if len(roster) == 0 {
		return 0, nil
	}

	notifications := make([]models.Notification, 0, len(roster))
	for _, st := range roster {
		userID := st.UserID
		notifications = append(notifications, models.Notification{
			Title:        req.Title,
			Message:      req.Message,
			TargetUserID: &userID,
		})
	}

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return s.repo.CreateBatchTx(ctx, tx, notifications)
	})
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send class notification")
	}

	s.logger.Info("class notification sent",
		zap.String("teacher_id", teacherID),
		zap.String("class_id", req.ClassID),
		zap.Int("recipients", len(notifications)),
	)
	return len(notifications), nil
}

// ListForUser returns the announcements a user can see.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, role models.UserRole, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, role, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// Delete removes an announcement.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}
