package enrollment

import (
	"context"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/domain/catalog"
)

// Repository persists enrollments.
type Repository interface {
	Create(ctx context.Context, e *Enrollment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Enrollment, error)
	// GetActive returns the non-dropped enrollment for the patient and
	// program, or (nil, nil) when none exists. An error means the lookup
	// itself failed.
	GetActive(ctx context.Context, patientID, programID uuid.UUID) (*Enrollment, error)
	Update(ctx context.Context, e *Enrollment) error
	// ListByPatient returns the patient's enrollments, newest first. Dropped
	// rows are excluded unless includeDropped is set.
	ListByPatient(ctx context.Context, patientID uuid.UUID, includeDropped bool) ([]*Enrollment, error)
	ListByProgram(ctx context.Context, programID uuid.UUID, limit, offset int) ([]*Enrollment, int, error)
}

// CategoryAssignmentRepository persists the patient to category mapping.
type CategoryAssignmentRepository interface {
	// Assign replaces the patient's current category with categoryID.
	Assign(ctx context.Context, patientID, categoryID uuid.UUID) error
	// Get returns the patient's assignment, or (nil, nil) when the patient
	// has no category.
	Get(ctx context.Context, patientID uuid.UUID) (*PatientCategory, error)
}

// Catalog is the slice of the treatment catalog the gate needs.
type Catalog interface {
	GetProgram(ctx context.Context, id uuid.UUID) (*catalog.TreatmentProgram, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*catalog.Category, error)
	ListProgramsByCategory(ctx context.Context, categoryID uuid.UUID) ([]*catalog.TreatmentProgram, error)
}
