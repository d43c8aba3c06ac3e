package progress

import (
	"time"

	"github.com/google/uuid"
)

// Status of a module for one enrollment. There is no stored not_started
// state; a module without a progress row has simply never been opened.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// ModuleProgress maps to the module_progress table. A row is created on first
// access, which is also the module's transition to in_progress. Completed is
// terminal.
type ModuleProgress struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	EnrollmentID    uuid.UUID  `db:"enrollment_id" json:"enrollment_id"`
	ModuleID        uuid.UUID  `db:"module_id" json:"module_id"`
	Status          Status     `db:"status" json:"status"`
	FirstAccessedAt time.Time  `db:"first_accessed_at" json:"first_accessed_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	// TimeSpentSeconds accumulates the time the patient reported spending on
	// the module.
	TimeSpentSeconds int `db:"time_spent_seconds" json:"time_spent_seconds"`
}
