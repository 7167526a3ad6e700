package models

import "time"

// FeeStatus enumerates the fee lifecycle.
type FeeStatus string

const (
	FeePending FeeStatus = "Pending"
	FeePaid    FeeStatus = "Paid"
	FeeOverdue FeeStatus = "Overdue"
)

// Valid reports whether the status is known.
func (s FeeStatus) Valid() bool {
	switch s {
	case FeePending, FeePaid, FeeOverdue:
		return true
	default:
		return false
	}
}

// Fee is a charge raised against a student.
type Fee struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Title     string    `db:"title" json:"title"`
	Amount    float64   `db:"amount" json:"amount"`
	DueDate   string    `db:"due_date" json:"due_date"`
	Status    FeeStatus `db:"status" json:"status"`
	PaidOn    *string   `db:"paid_on" json:"paid_on,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FeePatch carries the updatable fee columns.
type FeePatch struct {
	Title   *string    `json:"title"`
	Amount  *float64   `json:"amount"`
	DueDate *string    `json:"due_date"`
	Status  *FeeStatus `json:"status"`
	PaidOn  *string    `json:"paid_on"`
}
