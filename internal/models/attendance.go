package models

import "time"

// AttendanceStatus enumerates the accepted attendance states.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
)

// Valid reports whether the status is accepted.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's attendance for one date, unique per
// (student_id, date) and upserted on re-marking.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      string           `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	Remarks   *string          `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceOverviewRow aggregates attendance per class/section for admins.
type AttendanceOverviewRow struct {
	ClassID      string   `db:"class_id" json:"class_id"`
	ClassName    string   `db:"class_name" json:"class_name"`
	SectionName  string   `db:"section_name" json:"section_name"`
	TotalRecords int      `db:"total_records" json:"total_records"`
	PresentCount int      `db:"present_count" json:"present_count"`
	Percentage   *float64 `db:"percentage" json:"percentage,omitempty"`
}
