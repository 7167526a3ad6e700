package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// FeeRepository stores fee charges raised against students.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs the repository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// Create inserts a fee.
func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	if fee.ID == "" {
		fee.ID = uuid.NewString()
	}
	if fee.Status == "" {
		fee.Status = models.FeePending
	}
	if fee.CreatedAt.IsZero() {
		fee.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO fees (id, student_id, title, amount, due_date, status, paid_on, created_at)
		VALUES (:id, :student_id, :title, :amount, :due_date, :status, :paid_on, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, fee); err != nil {
		return fmt.Errorf("create fee: %w", err)
	}
	return nil
}

// FindByID returns one fee.
func (r *FeeRepository) FindByID(ctx context.Context, id string) (*models.Fee, error) {
	var fee models.Fee
	const query = `SELECT id, student_id, title, amount, due_date, status, paid_on, created_at FROM fees WHERE id = $1`
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return nil, err
	}
	return &fee, nil
}

// ListByStudent returns a student's fees, soonest due first.
func (r *FeeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Fee, error) {
	const query = `SELECT id, student_id, title, amount, due_date, status, paid_on, created_at
		FROM fees WHERE student_id = $1 ORDER BY due_date ASC`
	var fees []models.Fee
	if err := r.db.SelectContext(ctx, &fees, query, studentID); err != nil {
		return nil, fmt.Errorf("list student fees: %w", err)
	}
	return fees, nil
}

// List returns fees filtered by optional status, newest first.
func (r *FeeRepository) List(ctx context.Context, status models.FeeStatus, page, size int) ([]models.Fee, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	where := "1=1"
	var args []interface{}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query := fmt.Sprintf(`SELECT id, student_id, title, amount, due_date, status, paid_on, created_at
		FROM fees WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)
	var fees []models.Fee
	if err := r.db.SelectContext(ctx, &fees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list fees: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM fees WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count fees: %w", err)
	}
	return fees, total, nil
}

// Update applies a patch using the fixed field-to-column mapping.
func (r *FeeRepository) Update(ctx context.Context, id string, patch models.FeePatch) error {
	b := newPatchBuilder()
	setPtr(b, "title", patch.Title)
	setPtr(b, "amount", patch.Amount)
	setPtr(b, "due_date", patch.DueDate)
	setPtr(b, "status", patch.Status)
	setNullablePtr(b, "paid_on", patch.PaidOn)
	if b.empty() {
		return nil
	}
	query := fmt.Sprintf("UPDATE fees SET %s WHERE id = $%d", strings.Join(b.clauses, ", "), b.where(id))
	if _, err := r.db.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update fee: %w", err)
	}
	return nil
}

// Delete removes a fee.
func (r *FeeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fees WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete fee: %w", err)
	}
	return nil
}

// SumPendingAmount totals unpaid fees for the dashboard.
func (r *FeeRepository) SumPendingAmount(ctx context.Context) (float64, error) {
	var total float64
	const query = `SELECT COALESCE(SUM(amount), 0) FROM fees WHERE status <> 'Paid'`
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("sum pending fees: %w", err)
	}
	return total, nil
}
