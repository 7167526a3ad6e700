package models

import "time"

// EntryType discriminates a teaching period from a non-teaching break.
type EntryType string

const (
	EntryLecture EntryType = "lecture"
	EntryBreak   EntryType = "break"
)

// Valid reports whether the entry type is known.
func (t EntryType) Valid() bool {
	return t == EntryLecture || t == EntryBreak
}

// TimetableEntry is a weekly period for a class (or all its sections).
// Lectures carry a subject and teacher; breaks carry a title instead.
type TimetableEntry struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SectionID *string   `db:"section_id" json:"section_id,omitempty"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	EntryType EntryType `db:"entry_type" json:"entry_type"`
	Title     *string   `db:"title" json:"title,omitempty"`
	SubjectID *string   `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Room      *string   `db:"room" json:"room,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableEntryDetail adds display names for listings.
type TimetableEntryDetail struct {
	TimetableEntry
	SubjectName *string `db:"subject_name" json:"subject_name,omitempty"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
	SectionName *string `db:"section_name" json:"section_name,omitempty"`
}

// TimetableGroup summarises one (class, section-or-all) timetable.
type TimetableGroup struct {
	ClassID      string  `db:"class_id" json:"class_id"`
	ClassName    string  `db:"class_name" json:"class_name"`
	SectionID    *string `db:"section_id" json:"section_id,omitempty"`
	SectionName  string  `db:"section_name" json:"section_name"`
	TotalPeriods int     `db:"total_periods" json:"total_periods"`
}

// TimetablePatch carries the updatable timetable columns. Nil fields keep
// their stored value; the repository translates named fields to columns via a
// fixed mapping, never by iterating payload keys.
type TimetablePatch struct {
	DayOfWeek *string    `json:"day_of_week"`
	StartTime *string    `json:"start_time"`
	EndTime   *string    `json:"end_time"`
	EntryType *EntryType `json:"entry_type"`
	Title     *string    `json:"title"`
	SubjectID *string    `json:"subject_id"`
	TeacherID *string    `json:"teacher_id"`
	Room      *string    `json:"room"`
}

// TimetableConflict identifies which dimension blocked a mutation.
type TimetableConflict struct {
	EntryID   string `db:"entry_id" json:"entry_id"`
	Dimension string `db:"dimension" json:"dimension"` // CLASS or TEACHER
	DayOfWeek string `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// WeekDays orders the school week for display sorting.
var WeekDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ValidWeekDay reports whether day names a school day.
func ValidWeekDay(day string) bool {
	for _, d := range WeekDays {
		if d == day {
			return true
		}
	}
	return false
}
