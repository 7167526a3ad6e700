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

// TimetableRepository stores weekly timetable entries and answers the overlap
// questions the conflict checks are built on.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableDetailSelect = `
SELECT t.id, t.class_id, t.section_id, t.day_of_week, t.start_time, t.end_time,
       t.entry_type, t.title, t.subject_id, t.teacher_id, t.room, t.created_at, t.updated_at,
       sub.name AS subject_name, u.full_name AS teacher_name, sec.name AS section_name
FROM timetables t
LEFT JOIN subjects sub ON sub.id = t.subject_id
LEFT JOIN teachers te ON te.id = t.teacher_id
LEFT JOIN users u ON u.id = te.user_id
LEFT JOIN sections sec ON sec.id = t.section_id`

// FirstClassConflict returns the first stored entry for the same class and day
// whose time range overlaps [start, end). Ranges are half-open, so an entry
// ending exactly when another starts does not collide. excludeID skips the
// entry being updated; pass it empty on create.
func (r *TimetableRepository) FirstClassConflict(ctx context.Context, classID, day, start, end, excludeID string) (*models.TimetableConflict, error) {
	query := `SELECT id AS entry_id, 'CLASS' AS dimension, day_of_week, start_time, end_time
		FROM timetables
		WHERE class_id = $1 AND day_of_week = $2 AND start_time < $3 AND end_time > $4`
	args := []interface{}{classID, day, end, start}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += " LIMIT 1"

	var conflict models.TimetableConflict
	err := r.db.GetContext(ctx, &conflict, query, args...)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("check class conflict: %w", err)
	}
	return &conflict, nil
}

// FirstTeacherConflict returns the first entry that already books the teacher
// anywhere in the school during the overlapping window. Break rows carry no
// teacher, so they never collide here.
func (r *TimetableRepository) FirstTeacherConflict(ctx context.Context, teacherID, day, start, end, excludeID string) (*models.TimetableConflict, error) {
	query := `SELECT id AS entry_id, 'TEACHER' AS dimension, day_of_week, start_time, end_time
		FROM timetables
		WHERE teacher_id = $1 AND day_of_week = $2 AND start_time < $3 AND end_time > $4`
	args := []interface{}{teacherID, day, end, start}
	if excludeID != "" {
		args = append(args, excludeID)
		query += fmt.Sprintf(" AND id <> $%d", len(args))
	}
	query += " LIMIT 1"

	var conflict models.TimetableConflict
	err := r.db.GetContext(ctx, &conflict, query, args...)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("check teacher conflict: %w", err)
	}
	return &conflict, nil
}

// Create inserts a timetable entry.
func (r *TimetableRepository) Create(ctx context.Context, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO timetables
		(id, class_id, section_id, day_of_week, start_time, end_time, entry_type, title, subject_id, teacher_id, room, created_at, updated_at)
		VALUES (:id, :class_id, :section_id, :day_of_week, :start_time, :end_time, :entry_type, :title, :subject_id, :teacher_id, :room, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create timetable entry: %w", err)
	}
	return nil
}

// FindByID returns one entry.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	var entry models.TimetableEntry
	const query = `SELECT id, class_id, section_id, day_of_week, start_time, end_time,
		entry_type, title, subject_id, teacher_id, room, created_at, updated_at
		FROM timetables WHERE id = $1`
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update applies a patch using the fixed field-to-column mapping.
func (r *TimetableRepository) Update(ctx context.Context, id string, patch models.TimetablePatch) error {
	b := newPatchBuilder()
	setPtr(b, "day_of_week", patch.DayOfWeek)
	setPtr(b, "start_time", patch.StartTime)
	setPtr(b, "end_time", patch.EndTime)
	setPtr(b, "entry_type", patch.EntryType)
	setNullablePtr(b, "title", patch.Title)
	setNullablePtr(b, "subject_id", patch.SubjectID)
	setNullablePtr(b, "teacher_id", patch.TeacherID)
	setNullablePtr(b, "room", patch.Room)
	if b.empty() {
		return nil
	}
	b.args = append(b.args, time.Now().UTC())
	b.clauses = append(b.clauses, fmt.Sprintf("updated_at = $%d", len(b.args)))
	query := fmt.Sprintf("UPDATE timetables SET %s WHERE id = $%d", strings.Join(b.clauses, ", "), b.where(id))
	if _, err := r.db.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	return nil
}

// Delete removes one entry.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	return nil
}

// DeleteGroup clears the whole timetable of a (class, section-or-all) target.
// A nil section deletes the class-wide rows only, not the sectioned ones.
func (r *TimetableRepository) DeleteGroup(ctx context.Context, classID string, sectionID *string) (int64, error) {
	const query = `DELETE FROM timetables WHERE class_id = $1 AND section_id IS NOT DISTINCT FROM $2`
	res, err := r.db.ExecContext(ctx, query, classID, sectionID)
	if err != nil {
		return 0, fmt.Errorf("delete timetable group: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ListByClass returns the entries visible to students of a (class, section)
// pair: class-wide rows plus rows for their own section.
func (r *TimetableRepository) ListByClass(ctx context.Context, classID string, sectionID *string) ([]models.TimetableEntryDetail, error) {
	query := timetableDetailSelect + `
WHERE t.class_id = $1 AND (t.section_id IS NULL OR $2::text IS NULL OR t.section_id = $2)
ORDER BY t.day_of_week ASC, t.start_time ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, classID, sectionID); err != nil {
		return nil, fmt.Errorf("list class timetable: %w", err)
	}
	return entries, nil
}

// ListForTeacher returns every lecture a teacher is booked for across all
// classes, plus periods on (class, section, subject) tuples the teacher holds
// an assignment for even when another teacher takes the lecture.
func (r *TimetableRepository) ListForTeacher(ctx context.Context, teacherID string) ([]models.TimetableEntryDetail, error) {
	query := timetableDetailSelect + `
WHERE t.teacher_id = $1
   OR EXISTS (
	SELECT 1 FROM teacher_assignments ta
	WHERE ta.teacher_id = $1
	  AND ta.class_id = t.class_id
	  AND ta.subject_id = t.subject_id
	  AND (ta.section_id IS NULL OR t.section_id IS NULL OR ta.section_id = t.section_id))
ORDER BY t.day_of_week ASC, t.start_time ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher timetable: %w", err)
	}
	return entries, nil
}

// ListGroups summarises which (class, section-or-all) timetables exist.
func (r *TimetableRepository) ListGroups(ctx context.Context) ([]models.TimetableGroup, error) {
	const query = `
SELECT t.class_id, c.name AS class_name, t.section_id,
       COALESCE(sec.name, 'All Sections') AS section_name,
       COUNT(*) AS total_periods
FROM timetables t
JOIN classes c ON c.id = t.class_id
LEFT JOIN sections sec ON sec.id = t.section_id
GROUP BY t.class_id, c.name, t.section_id, sec.name
ORDER BY c.name ASC, section_name ASC`
	var groups []models.TimetableGroup
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list timetable groups: %w", err)
	}
	return groups, nil
}
