package models

import "time"

// Student is the role profile attached to a STUDENT user.
type Student struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	AdmissionNo string    `db:"admission_no" json:"admission_no"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SectionID   *string   `db:"section_id" json:"section_id,omitempty"`
	DOB         *string   `db:"dob" json:"dob,omitempty"`
	Gender      *string   `db:"gender" json:"gender,omitempty"`
	Address     *string   `db:"address" json:"address,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StudentDetail joins the student with user/class/section names for listings.
type StudentDetail struct {
	Student
	FullName    string  `db:"full_name" json:"full_name"`
	Email       string  `db:"email" json:"email"`
	ClassName   string  `db:"class_name" json:"class_name"`
	SectionName *string `db:"section_name" json:"section_name,omitempty"`
}

// StudentPatch carries the updatable student columns. Nil fields are left
// untouched; the repository maps each named field to its column explicitly.
type StudentPatch struct {
	AdmissionNo *string `json:"admission_no"`
	ClassID     *string `json:"class_id"`
	SectionID   *string `json:"section_id"`
	DOB         *string `json:"dob"`
	Gender      *string `json:"gender"`
	Address     *string `json:"address"`
}

// Teacher is the role profile attached to a TEACHER user.
type Teacher struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	EmployeeNo    string    `db:"employee_no" json:"employee_no"`
	Department    *string   `db:"department" json:"department,omitempty"`
	Qualification *string   `db:"qualification" json:"qualification,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TeacherDetail joins the teacher with user fields for listings.
type TeacherDetail struct {
	Teacher
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// TeacherPatch carries the updatable teacher columns.
type TeacherPatch struct {
	EmployeeNo    *string `json:"employee_no"`
	Department    *string `json:"department"`
	Qualification *string `json:"qualification"`
}

// Parent is the role profile attached to a PARENT user.
type Parent struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Occupation *string   `db:"occupation" json:"occupation,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ParentDetail joins the parent with user fields.
type ParentDetail struct {
	Parent
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// StudentParentLink ties a parent to a child student.
type StudentParentLink struct {
	ParentID     string `db:"parent_id" json:"parent_id"`
	StudentID    string `db:"student_id" json:"student_id"`
	Relationship string `db:"relationship" json:"relationship"`
}

// RosterStudent is the minimal student view teachers see when marking
// attendance or filling a marks sheet.
type RosterStudent struct {
	ID          string  `db:"id" json:"id"`
	UserID      string  `db:"user_id" json:"user_id"`
	AdmissionNo string  `db:"admission_no" json:"admission_no"`
	FullName    string  `db:"full_name" json:"full_name"`
	SectionID   *string `db:"section_id" json:"section_id,omitempty"`
}
