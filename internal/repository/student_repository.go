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

// StudentRepository persists student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailSelect = `
SELECT s.id, s.user_id, s.admission_no, s.class_id, s.section_id, s.dob, s.gender, s.address, s.created_at,
       u.full_name, u.email, c.name AS class_name, sec.name AS section_name
FROM students s
JOIN users u ON u.id = s.user_id
JOIN classes c ON c.id = s.class_id
LEFT JOIN sections sec ON sec.id = s.section_id`

// List returns students with optional class/section filters and pagination.
func (r *StudentRepository) List(ctx context.Context, classID, sectionID string, page, size int) ([]models.StudentDetail, int, error) {
	where := []string{"1=1"}
	var args []interface{}
	if classID != "" {
		where = append(where, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, classID)
	}
	if sectionID != "" {
		where = append(where, fmt.Sprintf("s.section_id = $%d", len(args)+1))
		args = append(args, sectionID)
	}
	whereClause := strings.Join(where, " AND ")

	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s WHERE %s ORDER BY u.full_name ASC LIMIT %d OFFSET %d", studentDetailSelect, whereClause, size, offset)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM students s WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID loads a student with display fields.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	var student models.StudentDetail
	query := studentDetailSelect + " WHERE s.id = $1"
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID resolves the student profile behind a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	var student models.Student
	const query = `SELECT id, user_id, admission_no, class_id, section_id, dob, gender, address, created_at
		FROM students WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// CreateTx inserts a student profile inside the user-creation transaction.
func (r *StudentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, user_id, admission_no, class_id, section_id, dob, gender, address, created_at)
		VALUES (:id, :user_id, :admission_no, :class_id, :section_id, :dob, :gender, :address, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update applies a patch using the fixed field-to-column mapping.
func (r *StudentRepository) Update(ctx context.Context, id string, patch models.StudentPatch) error {
	b := newPatchBuilder()
	setPtr(b, "admission_no", patch.AdmissionNo)
	setPtr(b, "class_id", patch.ClassID)
	setNullablePtr(b, "section_id", patch.SectionID)
	setPtr(b, "dob", patch.DOB)
	setPtr(b, "gender", patch.Gender)
	setPtr(b, "address", patch.Address)
	if b.empty() {
		return nil
	}
	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d", strings.Join(b.clauses, ", "), b.where(id))
	if _, err := r.db.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student profile.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// Roster returns the students of a class, optionally narrowed to one section.
// A nil section keeps both section-specific and unsectioned students.
func (r *StudentRepository) Roster(ctx context.Context, classID string, sectionID *string) ([]models.RosterStudent, error) {
	const query = `
SELECT s.id, s.user_id, s.admission_no, u.full_name, s.section_id
FROM students s
JOIN users u ON u.id = s.user_id
WHERE s.class_id = $1 AND ($2::text IS NULL OR s.section_id = $2)
ORDER BY u.full_name ASC`
	var roster []models.RosterStudent
	if err := r.db.SelectContext(ctx, &roster, query, classID, sectionID); err != nil {
		return nil, fmt.Errorf("list class roster: %w", err)
	}
	return roster, nil
}

// CountAll counts student profiles for the dashboard.
func (r *StudentRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
