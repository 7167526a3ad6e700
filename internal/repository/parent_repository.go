package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// ParentRepository persists parent profiles and parent-child links.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs the repository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// List returns parents ordered by name with pagination.
func (r *ParentRepository) List(ctx context.Context, page, size int) ([]models.ParentDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`
SELECT p.id, p.user_id, p.occupation, p.created_at, u.full_name, u.email
FROM parents p
JOIN users u ON u.id = p.user_id
ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, size, offset)
	var parents []models.ParentDetail
	if err := r.db.SelectContext(ctx, &parents, query); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM parents`); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}

// FindByUserID resolves the parent profile behind a user account.
func (r *ParentRepository) FindByUserID(ctx context.Context, userID string) (*models.Parent, error) {
	var parent models.Parent
	const query = `SELECT id, user_id, occupation, created_at FROM parents WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &parent, query, userID); err != nil {
		return nil, err
	}
	return &parent, nil
}

// CreateTx inserts a parent profile inside the user-creation transaction.
func (r *ParentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO parents (id, user_id, occupation, created_at)
		VALUES (:id, :user_id, :occupation, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// LinkStudentTx ties a parent to a child inside the same transaction that
// created either profile.
func (r *ParentRepository) LinkStudentTx(ctx context.Context, tx *sqlx.Tx, link models.StudentParentLink) error {
	const query = `INSERT INTO student_parents (parent_id, student_id, relationship) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, link.ParentID, link.StudentID, link.Relationship); err != nil {
		return fmt.Errorf("link student to parent: %w", err)
	}
	return nil
}

// Children lists the students linked to a parent.
func (r *ParentRepository) Children(ctx context.Context, parentID string) ([]models.StudentDetail, error) {
	const query = studentDetailSelect + `
JOIN student_parents sp ON sp.student_id = s.id
WHERE sp.parent_id = $1
ORDER BY u.full_name ASC`
	var children []models.StudentDetail
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list parent children: %w", err)
	}
	return children, nil
}

// CountAll counts parent profiles for the dashboard.
func (r *ParentRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM parents`); err != nil {
		return 0, fmt.Errorf("count parents: %w", err)
	}
	return count, nil
}

// Delete removes a parent profile.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM parents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	return nil
}
