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

// TeacherRepository persists teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherDetailSelect = `
SELECT t.id, t.user_id, t.employee_no, t.department, t.qualification, t.created_at,
       u.full_name, u.email
FROM teachers t
JOIN users u ON u.id = t.user_id`

// List returns teachers ordered by name with pagination.
func (r *TeacherRepository) List(ctx context.Context, page, size int) ([]models.TeacherDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s ORDER BY u.full_name ASC LIMIT %d OFFSET %d", teacherDetailSelect, size, offset)
	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM teachers`); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID loads a teacher with display fields.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	var teacher models.TeacherDetail
	query := teacherDetailSelect + " WHERE t.id = $1"
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUserID resolves the teacher profile behind a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.Teacher, error) {
	var teacher models.Teacher
	const query = `SELECT id, user_id, employee_no, department, qualification, created_at
		FROM teachers WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// CreateTx inserts a teacher profile inside the user-creation transaction.
func (r *TeacherRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teachers (id, user_id, employee_no, department, qualification, created_at)
		VALUES (:id, :user_id, :employee_no, :department, :qualification, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update applies a patch using the fixed field-to-column mapping.
func (r *TeacherRepository) Update(ctx context.Context, id string, patch models.TeacherPatch) error {
	b := newPatchBuilder()
	setPtr(b, "employee_no", patch.EmployeeNo)
	setPtr(b, "department", patch.Department)
	setPtr(b, "qualification", patch.Qualification)
	if b.empty() {
		return nil
	}
	query := fmt.Sprintf("UPDATE teachers SET %s WHERE id = $%d", strings.Join(b.clauses, ", "), b.where(id))
	if _, err := r.db.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher profile.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

// CountAll counts teacher profiles for the dashboard.
func (r *TeacherRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM teachers`); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return count, nil
}
