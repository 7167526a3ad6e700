package models

import "time"

// Material is content posted by a teacher for a class/section/subject. A set
// DueDate marks the post as homework rather than reference material.
type Material struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SectionID   *string   `db:"section_id" json:"section_id,omitempty"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	FileURL     *string   `db:"file_url" json:"file_url,omitempty"`
	DueDate     *string   `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MaterialDetail adds the subject name for listings.
type MaterialDetail struct {
	Material
	SubjectName string `db:"subject_name" json:"subject_name"`
}
