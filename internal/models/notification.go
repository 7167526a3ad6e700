package models

import "time"

// Notification targets a role, a single user, or everyone (both targets NULL).
type Notification struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Message      string    `db:"message" json:"message"`
	TargetRole   *UserRole `db:"target_role" json:"target_role,omitempty"`
	TargetUserID *string   `db:"target_user_id" json:"target_user_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
