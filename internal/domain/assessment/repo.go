package assessment

import (
	"context"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/domain/catalog"
	"github.com/rehab/rehab/internal/domain/enrollment"
)

// Repository persists attempts and their responses.
type Repository interface {
	CreateAttempt(ctx context.Context, a *Attempt) error
	UpdateAttempt(ctx context.Context, a *Attempt) error
	GetAttempt(ctx context.Context, id uuid.UUID) (*Attempt, error)
	ListAttempts(ctx context.Context, assessmentID, patientID uuid.UUID) ([]*Attempt, error)
	CreateResponse(ctx context.Context, r *Response) error
	ListResponses(ctx context.Context, attemptID uuid.UUID) ([]*Response, error)
}

// Catalog is the slice of the treatment catalog the grader needs.
type Catalog interface {
	GetAssessment(ctx context.Context, id uuid.UUID) (*catalog.Assessment, error)
	GetModule(ctx context.Context, id uuid.UUID) (*catalog.LearningModule, error)
	ListQuestions(ctx context.Context, assessmentID uuid.UUID) ([]*catalog.Question, error)
	ListOptionsForAssessment(ctx context.Context, assessmentID uuid.UUID) (map[uuid.UUID][]catalog.QuestionOption, error)
}

// Gate is the enrollment access check.
type Gate interface {
	ActiveEnrollment(ctx context.Context, patientID, programID uuid.UUID) (*enrollment.Enrollment, error)
}
