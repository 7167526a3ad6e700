package models

import "time"

// Exam is an examination window ("Midterm 2025").
type Exam struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate string    `db:"start_date" json:"start_date"`
	EndDate   string    `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ExamSubject joins an exam, a class (or one section) and a subject, and
// carries the marks ceiling. A NULL section is the "common" row shared by all
// sections of the class.
type ExamSubject struct {
	ID        string  `db:"id" json:"id"`
	ExamID    string  `db:"exam_id" json:"exam_id"`
	ClassID   string  `db:"class_id" json:"class_id"`
	SectionID *string `db:"section_id" json:"section_id,omitempty"`
	SubjectID string  `db:"subject_id" json:"subject_id"`
	MaxMarks  float64 `db:"max_marks" json:"max_marks"`
}

// Scope returns the section scope of the exam subject row.
func (es ExamSubject) Scope() SectionScope {
	return ScopeFromNullable(es.SectionID)
}

// ExamSubjectDetail adds display names for listings.
type ExamSubjectDetail struct {
	ExamSubject
	ExamName    string  `db:"exam_name" json:"exam_name"`
	ClassName   string  `db:"class_name" json:"class_name"`
	SectionName string  `db:"section_name" json:"section_name"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
}

// Mark is one student's score for one exam subject, unique per
// (exam_subject_id, student_id) and upserted on re-entry.
type Mark struct {
	ID            string  `db:"id" json:"id"`
	ExamSubjectID string  `db:"exam_subject_id" json:"exam_subject_id"`
	StudentID     string  `db:"student_id" json:"student_id"`
	Marks         float64 `db:"marks" json:"marks"`
	Grade         *string `db:"grade" json:"grade,omitempty"`
	Remarks       *string `db:"remarks" json:"remarks,omitempty"`
}

// StudentMark is the student-facing view of a mark.
type StudentMark struct {
	Marks       float64 `db:"marks" json:"marks"`
	Grade       *string `db:"grade" json:"grade,omitempty"`
	MaxMarks    float64 `db:"max_marks" json:"max_marks"`
	ExamName    string  `db:"exam_name" json:"exam_name"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
}

// MarkSheetRow pairs a roster student with their (possibly absent) mark.
type MarkSheetRow struct {
	StudentID   string   `db:"student_id" json:"student_id"`
	AdmissionNo string   `db:"admission_no" json:"admission_no"`
	StudentName string   `db:"student_name" json:"student_name"`
	Marks       *float64 `db:"marks" json:"marks,omitempty"`
	Grade       *string  `db:"grade" json:"grade,omitempty"`
}
