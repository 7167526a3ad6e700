package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type feeRepo interface {
	Create(ctx context.Context, fee *models.Fee) error
	FindByID(ctx context.Context, id string) (*models.Fee, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Fee, error)
	List(ctx context.Context, status models.FeeStatus, page, size int) ([]models.Fee, int, error)
	Update(ctx context.Context, id string, patch models.FeePatch) error
	Delete(ctx context.Context, id string) error
}

// CreateFeeRequest raises a charge against a student.
type CreateFeeRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Title     string  `json:"title" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	DueDate   string  `json:"due_date" validate:"required"`
}

// FeeService manages fee charges and payment status transitions.
type FeeService struct {
	repo      feeRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs FeeService.
func NewFeeService(repo feeRepo, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{repo: repo, validator: validate, logger: logger}
}

// Create raises a fee in Pending state.
func (s *FeeService) Create(ctx context.Context, req CreateFeeRequest) (*models.Fee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	if _, err := time.Parse("2006-01-02", req.DueDate); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must be YYYY-MM-DD")
	}
	fee := &models.Fee{
		StudentID: req.StudentID,
		Title:     req.Title,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Status:    models.FeePending,
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create fee")
	}
	return fee, nil
}

// List returns fees with an optional status filter.
func (s *FeeService) List(ctx context.Context, status models.FeeStatus, page, size int) ([]models.Fee, *models.Pagination, error) {
	if status != "" && !status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid fee status")
	}
	fees, total, err := s.repo.List(ctx, status, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}
	return fees, models.NewPagination(page, size, total), nil
}

// StudentFees returns a student's fees.
func (s *FeeService) StudentFees(ctx context.Context, studentID string) ([]models.Fee, error) {
	fees, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fees")
	}
	return fees, nil
}

// Update applies a patch. Marking a fee Paid stamps paid_on when the caller
// did not supply one.
func (s *FeeService) Update(ctx context.Context, id string, patch models.FeePatch) (*models.Fee, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid fee status")
		}
		if *patch.Status == models.FeePaid && patch.PaidOn == nil {
			today := time.Now().UTC().Format("2006-01-02")
			patch.PaidOn = &today
		}
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee")
	}
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}
	return fee, nil
}

// Delete removes a fee.
func (s *FeeService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "fee not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete fee")
	}
	return nil
}
