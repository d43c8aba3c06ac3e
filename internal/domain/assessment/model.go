package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Attempt maps to the assessment_attempts table. The row is written before
// any response so a partially stored attempt is visible rather than lost;
// GradedAt is set last, and a graded attempt is never rewritten.
type Attempt struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	AssessmentID uuid.UUID  `db:"assessment_id" json:"assessment_id"`
	EnrollmentID uuid.UUID  `db:"enrollment_id" json:"enrollment_id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	Score        int        `db:"score" json:"score"`
	Passed       bool       `db:"passed" json:"passed"`
	SubmittedAt  time.Time  `db:"submitted_at" json:"submitted_at"`
	GradedAt     *time.Time `db:"graded_at" json:"graded_at,omitempty"`
}

// Response maps to the question_responses table. A choice answer carries
// SelectedOptionID, a text answer carries ResponseText. IsCorrect stays nil
// for text answers and for questions the grader had to skip.
type Response struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	AttemptID        uuid.UUID  `db:"attempt_id" json:"attempt_id"`
	QuestionID       uuid.UUID  `db:"question_id" json:"question_id"`
	SelectedOptionID *uuid.UUID `db:"selected_option_id" json:"selected_option_id,omitempty"`
	ResponseText     *string    `db:"response_text" json:"response_text,omitempty"`
	IsCorrect        *bool      `db:"is_correct" json:"is_correct,omitempty"`
	PointsAwarded    int        `db:"points_awarded" json:"points_awarded"`
}

// Answer is one submitted answer. Exactly one of SelectedOptionID and
// ResponseText should be set, matching the question's type.
type Answer struct {
	QuestionID       uuid.UUID  `json:"question_id"`
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	ResponseText     *string    `json:"response_text,omitempty"`
}
