package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolstack/sms-api/internal/models"
)

// AttendanceRepository stores daily attendance. Re-marking a student on the
// same date overwrites the earlier status.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertBatchTx writes a day's attendance inside one transaction.
func (r *AttendanceRepository) UpsertBatchTx(ctx context.Context, tx *sqlx.Tx, records []models.AttendanceRecord) error {
	const query = `INSERT INTO attendance (id, student_id, date, status, marked_by, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, date)
		DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, remarks = EXCLUDED.remarks`
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, query, rec.ID, rec.StudentID, rec.Date, rec.Status, rec.MarkedBy, rec.Remarks, rec.CreatedAt); err != nil {
			return fmt.Errorf("upsert attendance for student %s: %w", rec.StudentID, err)
		}
	}
	return nil
}

// ListByStudent returns a student's attendance within an optional date range,
// newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID, from, to string) ([]models.AttendanceRecord, error) {
	query := `SELECT id, student_id, date, status, marked_by, remarks, created_at
		FROM attendance WHERE student_id = $1`
	args := []interface{}{studentID}
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date DESC"

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}

// ListByClassDate returns the attendance of a class roster on one date.
func (r *AttendanceRepository) ListByClassDate(ctx context.Context, classID string, sectionID *string, date string) ([]models.AttendanceRecord, error) {
	const query = `
SELECT a.id, a.student_id, a.date, a.status, a.marked_by, a.remarks, a.created_at
FROM attendance a
JOIN students s ON s.id = a.student_id
WHERE s.class_id = $1 AND ($2::text IS NULL OR s.section_id = $2) AND a.date = $3
ORDER BY a.student_id ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, classID, sectionID, date); err != nil {
		return nil, fmt.Errorf("list class attendance: %w", err)
	}
	return records, nil
}

// Overview aggregates attendance per class/section over a date range.
func (r *AttendanceRepository) Overview(ctx context.Context, from, to string) ([]models.AttendanceOverviewRow, error) {
	query := `
SELECT c.id AS class_id, c.name AS class_name,
       COALESCE(sec.name, 'No Section') AS section_name,
       COUNT(a.id) AS total_records,
       COUNT(a.id) FILTER (WHERE a.status = 'Present') AS present_count,
       CASE WHEN COUNT(a.id) > 0
            THEN ROUND(100.0 * COUNT(a.id) FILTER (WHERE a.status = 'Present') / COUNT(a.id), 2)
       END AS percentage
FROM attendance a
JOIN students s ON s.id = a.student_id
JOIN classes c ON c.id = s.class_id
LEFT JOIN sections sec ON sec.id = s.section_id
WHERE 1=1`
	var args []interface{}
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if to != "" {
		args = append(args, to)
		query += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}
	query += `
GROUP BY c.id, c.name, sec.name
ORDER BY c.name ASC, section_name ASC`

	var rows []models.AttendanceOverviewRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance overview: %w", err)
	}
	return rows, nil
}
