package models

import "time"

// Class is a grade level ("Grade 5").
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Section subdivides a class ("Grade 5 - Section A").
type Section struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Subject is a taught discipline.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      *string   `db:"code" json:"code,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherAssignment authorises a teacher for a (class, section-or-all, subject)
// target. Rows are created and deleted, never updated in place; duplicate
// tuples are tolerated.
type TeacherAssignment struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SectionID *string   `db:"section_id" json:"section_id,omitempty"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Scope returns the section scope encoded in the assignment's section column.
func (a TeacherAssignment) Scope() SectionScope {
	return ScopeFromNullable(a.SectionID)
}

// TeacherAssignmentDetail enriches assignments with descriptive names.
type TeacherAssignmentDetail struct {
	TeacherAssignment
	ClassName   string  `db:"class_name" json:"class_name"`
	SectionName *string `db:"section_name" json:"section_name,omitempty"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
}
