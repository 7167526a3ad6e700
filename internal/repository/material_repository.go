package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// MaterialRepository stores study materials posted by teachers.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

const materialDetailSelect = `
SELECT m.id, m.class_id, m.section_id, m.subject_id, m.teacher_id, m.title,
       m.description, m.file_url, m.due_date, m.created_at, sub.name AS subject_name
FROM materials m
JOIN subjects sub ON sub.id = m.subject_id`

// CreateTx inserts a material inside the transaction shared with the
// notification fan-out.
func (r *MaterialRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, m *models.Material) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO materials (id, class_id, section_id, subject_id, teacher_id, title, description, file_url, due_date, created_at)
		VALUES (:id, :class_id, :section_id, :subject_id, :teacher_id, :title, :description, :file_url, :due_date, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// FindByID returns one material.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	var m models.Material
	const query = `SELECT id, class_id, section_id, subject_id, teacher_id, title, description, file_url, due_date, created_at
		FROM materials WHERE id = $1`
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByTeacher returns a teacher's posted materials, newest first.
func (r *MaterialRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.MaterialDetail, error) {
	query := materialDetailSelect + ` WHERE m.teacher_id = $1 ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher materials: %w", err)
	}
	return materials, nil
}

// ListForStudent returns the materials visible to a (class, section) student:
// class-wide posts plus posts for their own section.
func (r *MaterialRepository) ListForStudent(ctx context.Context, classID string, sectionID *string) ([]models.MaterialDetail, error) {
	query := materialDetailSelect + `
WHERE m.class_id = $1 AND (m.section_id IS NULL OR $2::text IS NULL OR m.section_id = $2)
ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, classID, sectionID); err != nil {
		return nil, fmt.Errorf("list student materials: %w", err)
	}
	return materials, nil
}

// Delete removes a material.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
