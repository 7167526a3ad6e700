package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// MarkRepository stores exam marks. Re-entering a student's mark for the same
// exam subject overwrites the old one.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs the repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// UpsertBatchTx writes a batch of marks inside one transaction so a sheet is
// saved all-or-nothing.
func (r *MarkRepository) UpsertBatchTx(ctx context.Context, tx *sqlx.Tx, marks []models.Mark) error {
	const query = `INSERT INTO marks (id, exam_subject_id, student_id, marks, grade, remarks)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (exam_subject_id, student_id)
		DO UPDATE SET marks = EXCLUDED.marks, grade = EXCLUDED.grade, remarks = EXCLUDED.remarks`
	for i := range marks {
		m := &marks[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query, m.ID, m.ExamSubjectID, m.StudentID, m.Marks, m.Grade, m.Remarks); err != nil {
			return fmt.Errorf("upsert mark for student %s: %w", m.StudentID, err)
		}
	}
	return nil
}

// ListByStudent returns a student's marks across all exams, newest exam first.
func (r *MarkRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentMark, error) {
	const query = `
SELECT m.marks, m.grade, es.max_marks, e.name AS exam_name, sub.name AS subject_name
FROM marks m
JOIN exam_subjects es ON es.id = m.exam_subject_id
JOIN exams e ON e.id = es.exam_id
JOIN subjects sub ON sub.id = es.subject_id
WHERE m.student_id = $1
ORDER BY e.start_date DESC, sub.name ASC`
	var marks []models.StudentMark
	if err := r.db.SelectContext(ctx, &marks, query, studentID); err != nil {
		return nil, fmt.Errorf("list student marks: %w", err)
	}
	return marks, nil
}

// MarkSheet returns the roster of an exam subject's class joined with whatever
// marks exist. Students without a mark appear with NULLs.
func (r *MarkRepository) MarkSheet(ctx context.Context, examSubjectID string) ([]models.MarkSheetRow, error) {
	const query = `
SELECT s.id AS student_id, s.admission_no, u.full_name AS student_name, m.marks, m.grade
FROM exam_subjects es
JOIN students s ON s.class_id = es.class_id
	AND (es.section_id IS NULL OR s.section_id = es.section_id)
JOIN users u ON u.id = s.user_id
LEFT JOIN marks m ON m.exam_subject_id = es.id AND m.student_id = s.id
WHERE es.id = $1
ORDER BY u.full_name ASC`
	var rows []models.MarkSheetRow
	if err := r.db.SelectContext(ctx, &rows, query, examSubjectID); err != nil {
		return nil, fmt.Errorf("load mark sheet: %w", err)
	}
	return rows, nil
}
