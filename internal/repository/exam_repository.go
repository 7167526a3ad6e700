package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// ExamRepository stores exams and the exam-subject rows marks hang off.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ListExams returns exams newest first.
func (r *ExamRepository) ListExams(ctx context.Context) ([]models.Exam, error) {
	var exams []models.Exam
	const query = `SELECT id, name, start_date, end_date, created_at FROM exams ORDER BY start_date DESC`
	if err := r.db.SelectContext(ctx, &exams, query); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// FindExam returns one exam by id.
func (r *ExamRepository) FindExam(ctx context.Context, id string) (*models.Exam, error) {
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, `SELECT id, name, start_date, end_date, created_at FROM exams WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// CreateExam inserts an exam window.
func (r *ExamRepository) CreateExam(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exams (id, name, start_date, end_date, created_at)
		VALUES (:id, :name, :start_date, :end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// DeleteExam removes an exam.
func (r *ExamRepository) DeleteExam(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}

// FindExamSubjectExact matches the full (exam, class, section-or-null,
// subject) tuple, treating two NULL sections as equal.
func (r *ExamRepository) FindExamSubjectExact(ctx context.Context, examID, classID string, sectionID *string, subjectID string) (*models.ExamSubject, error) {
	var es models.ExamSubject
	const query = `SELECT id, exam_id, class_id, section_id, subject_id, max_marks
		FROM exam_subjects
		WHERE exam_id = $1 AND class_id = $2 AND section_id IS NOT DISTINCT FROM $3 AND subject_id = $4`
	err := r.db.GetContext(ctx, &es, query, examID, classID, sectionID, subjectID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find exam subject: %w", err)
	}
	return &es, nil
}

// FindExamSubjectCommon looks for the section-less row that covers the whole
// class. Used as a fallback when a section-specific lookup misses.
func (r *ExamRepository) FindExamSubjectCommon(ctx context.Context, examID, classID, subjectID string) (*models.ExamSubject, error) {
	var es models.ExamSubject
	const query = `SELECT id, exam_id, class_id, section_id, subject_id, max_marks
		FROM exam_subjects
		WHERE exam_id = $1 AND class_id = $2 AND section_id IS NULL AND subject_id = $3`
	err := r.db.GetContext(ctx, &es, query, examID, classID, subjectID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find common exam subject: %w", err)
	}
	return &es, nil
}

// CreateExamSubject inserts an exam-subject row.
func (r *ExamRepository) CreateExamSubject(ctx context.Context, es *models.ExamSubject) error {
	if es.ID == "" {
		es.ID = uuid.NewString()
	}
	const query = `INSERT INTO exam_subjects (id, exam_id, class_id, section_id, subject_id, max_marks)
		VALUES (:id, :exam_id, :class_id, :section_id, :subject_id, :max_marks)`
	if _, err := r.db.NamedExecContext(ctx, query, es); err != nil {
		return fmt.Errorf("create exam subject: %w", err)
	}
	return nil
}

// FindExamSubjectByID returns one exam-subject row.
func (r *ExamRepository) FindExamSubjectByID(ctx context.Context, id string) (*models.ExamSubject, error) {
	var es models.ExamSubject
	const query = `SELECT id, exam_id, class_id, section_id, subject_id, max_marks FROM exam_subjects WHERE id = $1`
	if err := r.db.GetContext(ctx, &es, query, id); err != nil {
		return nil, err
	}
	return &es, nil
}

// ListExamSubjects returns the exam-subject rows of an exam with names.
func (r *ExamRepository) ListExamSubjects(ctx context.Context, examID string) ([]models.ExamSubjectDetail, error) {
	const query = `
SELECT es.id, es.exam_id, es.class_id, es.section_id, es.subject_id, es.max_marks,
       e.name AS exam_name, c.name AS class_name,
       COALESCE(sec.name, 'All Sections') AS section_name, sub.name AS subject_name
FROM exam_subjects es
JOIN exams e ON e.id = es.exam_id
JOIN classes c ON c.id = es.class_id
LEFT JOIN sections sec ON sec.id = es.section_id
JOIN subjects sub ON sub.id = es.subject_id
WHERE es.exam_id = $1
ORDER BY c.name ASC, sub.name ASC`
	var subjects []models.ExamSubjectDetail
	if err := r.db.SelectContext(ctx, &subjects, query, examID); err != nil {
		return nil, fmt.Errorf("list exam subjects: %w", err)
	}
	return subjects, nil
}
