package enrollment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an enrollment. Assigned moves to
// in_progress on first module activity, then to completed when every required
// module is done. Dropped is a soft delete and is terminal.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDropped    Status = "dropped"
)

// Enrollment maps to the patient_enrollments table. At most one non-dropped
// row exists per patient and program; re-enrolling after a drop creates a new
// row rather than reviving the old one.
type Enrollment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProgramID   uuid.UUID  `db:"program_id" json:"program_id"`
	Status      Status     `db:"status" json:"status"`
	EnrolledAt  time.Time  `db:"enrolled_at" json:"enrolled_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	// ExpectedEndAt is set at enroll time from the program's duration, when
	// the program has one.
	ExpectedEndAt *time.Time `db:"expected_end_at" json:"expected_end_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	DroppedAt     *time.Time `db:"dropped_at" json:"dropped_at,omitempty"`
}

// IsActive reports whether the enrollment still grants program access.
// Completed enrollments keep access so patients can review finished material.
func (e *Enrollment) IsActive() bool {
	return e.Status != StatusDropped
}

// PatientCategory maps to the patient_categories table. A patient has at most
// one category at a time; assigning a new one replaces the old row.
type PatientCategory struct {
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	CategoryID uuid.UUID `db:"category_id" json:"category_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}
