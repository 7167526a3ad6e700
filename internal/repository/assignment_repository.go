package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// AssignmentRepository stores teacher assignments, the rows that scope what a
// teacher may touch.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentDetailSelect = `
SELECT ta.id, ta.teacher_id, ta.class_id, ta.section_id, ta.subject_id, ta.created_at,
       c.name AS class_name, sec.name AS section_name, sub.name AS subject_name
FROM teacher_assignments ta
JOIN classes c ON c.id = ta.class_id
LEFT JOIN sections sec ON sec.id = ta.section_id
JOIN subjects sub ON sub.id = ta.subject_id`

// Create inserts an assignment row. Duplicate tuples are allowed.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.TeacherAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_assignments (id, teacher_id, class_id, section_id, subject_id, created_at)
		VALUES (:id, :teacher_id, :class_id, :section_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment row.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teacher_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// ListByTeacher returns every assignment a teacher holds, newest first.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignmentDetail, error) {
	query := assignmentDetailSelect + ` WHERE ta.teacher_id = $1 ORDER BY ta.created_at DESC`
	var assignments []models.TeacherAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return assignments, nil
}

// FindForScope returns the assignments a teacher holds on one (class, subject)
// pair. Scope evaluation happens in the service; the repository only narrows
// by the indexed columns.
func (r *AssignmentRepository) FindForScope(ctx context.Context, teacherID, classID, subjectID string) ([]models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_id, class_id, section_id, subject_id, created_at
		FROM teacher_assignments
		WHERE teacher_id = $1 AND class_id = $2 AND subject_id = $3`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID, classID, subjectID); err != nil {
		return nil, fmt.Errorf("find assignments for scope: %w", err)
	}
	return assignments, nil
}

// FindForClass returns a teacher's assignments on one class regardless of
// subject. Attendance is a class-level duty, so the subject dimension is
// ignored there.
func (r *AssignmentRepository) FindForClass(ctx context.Context, teacherID, classID string) ([]models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_id, class_id, section_id, subject_id, created_at
		FROM teacher_assignments
		WHERE teacher_id = $1 AND class_id = $2`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID, classID); err != nil {
		return nil, fmt.Errorf("find assignments for class: %w", err)
	}
	return assignments, nil
}

// FindForSubject returns every assignment a teacher holds on one subject
// across classes. Material fan-out posts to each of these targets.
func (r *AssignmentRepository) FindForSubject(ctx context.Context, teacherID, subjectID string) ([]models.TeacherAssignment, error) {
	const query = `SELECT id, teacher_id, class_id, section_id, subject_id, created_at
		FROM teacher_assignments
		WHERE teacher_id = $1 AND subject_id = $2`
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID, subjectID); err != nil {
		return nil, fmt.Errorf("find assignments for subject: %w", err)
	}
	return assignments, nil
}

// FindByID returns one assignment row.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.TeacherAssignment, error) {
	var a models.TeacherAssignment
	const query = `SELECT id, teacher_id, class_id, section_id, subject_id, created_at
		FROM teacher_assignments WHERE id = $1`
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		return nil, err
	}
	return &a, nil
}
