package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// AcademicRepository stores the school structure: classes, sections and
// subjects.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository constructs the repository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// ListClasses returns every class ordered by name.
func (r *AcademicRepository) ListClasses(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	const query = `SELECT id, name, created_at FROM classes ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindClass returns one class by id.
func (r *AcademicRepository) FindClass(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	if err := r.db.GetContext(ctx, &class, `SELECT id, name, created_at FROM classes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// CreateClass inserts a class.
func (r *AcademicRepository) CreateClass(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// DeleteClass removes a class.
func (r *AcademicRepository) DeleteClass(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// ListSections returns the sections of a class ordered by name.
func (r *AcademicRepository) ListSections(ctx context.Context, classID string) ([]models.Section, error) {
	var sections []models.Section
	const query = `SELECT id, class_id, name, created_at FROM sections WHERE class_id = $1 ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &sections, query, classID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindSection returns one section by id.
func (r *AcademicRepository) FindSection(ctx context.Context, id string) (*models.Section, error) {
	var section models.Section
	if err := r.db.GetContext(ctx, &section, `SELECT id, class_id, name, created_at FROM sections WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// CreateSection inserts a section under its class.
func (r *AcademicRepository) CreateSection(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	if section.CreatedAt.IsZero() {
		section.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sections (id, class_id, name, created_at) VALUES (:id, :class_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// DeleteSection removes a section.
func (r *AcademicRepository) DeleteSection(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// ListSubjects returns every subject ordered by name.
func (r *AcademicRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	const query = `SELECT id, name, code, created_at FROM subjects ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindSubject returns one subject by id.
func (r *AcademicRepository) FindSubject(ctx context.Context, id string) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, `SELECT id, name, code, created_at FROM subjects WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// CreateSubject inserts a subject.
func (r *AcademicRepository) CreateSubject(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subjects (id, name, code, created_at) VALUES (:id, :name, :code, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// DeleteSubject removes a subject.
func (r *AcademicRepository) DeleteSubject(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// CountClasses counts classes for the dashboard.
func (r *AcademicRepository) CountClasses(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM classes`); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return count, nil
}
