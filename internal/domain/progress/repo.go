package progress

import (
	"context"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/domain/catalog"
	"github.com/rehab/rehab/internal/domain/enrollment"
)

// Repository persists per-enrollment module progress.
type Repository interface {
	Create(ctx context.Context, mp *ModuleProgress) error
	// Get returns the progress row for the enrollment and module, or
	// (nil, nil) when the module has never been accessed.
	Get(ctx context.Context, enrollmentID, moduleID uuid.UUID) (*ModuleProgress, error)
	Update(ctx context.Context, mp *ModuleProgress) error
	ListByEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]*ModuleProgress, error)
}

// Gate is the slice of the enrollment service the tracker needs. Access
// checks and enrollment status transitions stay in one place.
type Gate interface {
	ActiveEnrollment(ctx context.Context, patientID, programID uuid.UUID) (*enrollment.Enrollment, error)
	ListEnrolledPrograms(ctx context.Context, patientID uuid.UUID, categoryFilter string) ([]enrollment.EnrolledProgram, error)
	MarkStarted(ctx context.Context, e *enrollment.Enrollment) error
	MarkCompleted(ctx context.Context, e *enrollment.Enrollment) error
}

// Catalog is the slice of the treatment catalog the tracker needs.
type Catalog interface {
	GetModule(ctx context.Context, id uuid.UUID) (*catalog.LearningModule, error)
	ListModulesByProgram(ctx context.Context, programID uuid.UUID) ([]catalog.ModuleSummary, error)
	ListContentByModule(ctx context.Context, moduleID uuid.UUID) ([]*catalog.ContentItem, error)
}
