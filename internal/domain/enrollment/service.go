package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/domain/catalog"
	"github.com/rehab/rehab/internal/platform/apperr"
)

// Service is the enrollment gate. Every patient-facing read of the catalog
// goes through it: a patient sees a program only when a non-dropped enrollment
// links them to it, and category filters resolve against the patient's own
// assigned category.
type Service struct {
	enrollments Repository
	assignments CategoryAssignmentRepository
	catalog     Catalog
}

func NewService(enrollments Repository, assignments CategoryAssignmentRepository, cat Catalog) *Service {
	return &Service{enrollments: enrollments, assignments: assignments, catalog: cat}
}

// EnrollPatient creates an assigned enrollment. Enrolling while a non-dropped
// enrollment exists is rejected; enrolling after a drop starts fresh with a
// new row.
func (s *Service) EnrollPatient(ctx context.Context, patientID, programID uuid.UUID) (*Enrollment, error) {
	if patientID == uuid.Nil || programID == uuid.Nil {
		return nil, apperr.Invalid("patient_id and program_id are required")
	}
	p, err := s.catalog.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, apperr.Invalid("program is not active")
	}
	existing, err := s.enrollments.GetActive(ctx, patientID, programID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	if existing != nil {
		return nil, apperr.Invalid("patient is already enrolled in this program")
	}
	e := newEnrollment(patientID, p)
	if err := s.enrollments.Create(ctx, e); err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return e, nil
}

// newEnrollment builds an assigned enrollment, deriving the expected end date
// from the program's duration when it has one.
func newEnrollment(patientID uuid.UUID, p *catalog.TreatmentProgram) *Enrollment {
	now := time.Now().UTC()
	e := &Enrollment{
		PatientID:  patientID,
		ProgramID:  p.ID,
		Status:     StatusAssigned,
		EnrolledAt: now,
	}
	if p.DurationDays != nil {
		end := now.AddDate(0, 0, *p.DurationDays)
		e.ExpectedEndAt = &end
	}
	return e
}

func (s *Service) GetEnrollment(ctx context.Context, id uuid.UUID) (*Enrollment, error) {
	e, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("enrollment not found")
	}
	return e, nil
}

// DropEnrollment soft-deletes the enrollment. Completed enrollments stay
// completed and dropped ones stay dropped.
func (s *Service) DropEnrollment(ctx context.Context, id uuid.UUID) error {
	e, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		return apperr.NotFound("enrollment not found")
	}
	switch e.Status {
	case StatusCompleted:
		return apperr.Invalid("completed enrollments cannot be dropped")
	case StatusDropped:
		return apperr.Invalid("enrollment is already dropped")
	}
	now := time.Now().UTC()
	e.Status = StatusDropped
	e.DroppedAt = &now
	if err := s.enrollments.Update(ctx, e); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) ListProgramEnrollments(ctx context.Context, programID uuid.UUID, limit, offset int) ([]*Enrollment, int, error) {
	items, total, err := s.enrollments.ListByProgram(ctx, programID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Dependency(err, "store unavailable")
	}
	return items, total, nil
}

// AssignCategory replaces the patient's category and enrolls them into every
// active program of the new category they are not already enrolled in. It
// returns the enrollments created by this call.
func (s *Service) AssignCategory(ctx context.Context, patientID, categoryID uuid.UUID) ([]*Enrollment, error) {
	if patientID == uuid.Nil || categoryID == uuid.Nil {
		return nil, apperr.Invalid("patient_id and category_id are required")
	}
	cat, err := s.catalog.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !cat.Active {
		return nil, apperr.Invalid("category is not active")
	}
	if err := s.assignments.Assign(ctx, patientID, categoryID); err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	programs, err := s.catalog.ListProgramsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	var created []*Enrollment
	for _, p := range programs {
		existing, err := s.enrollments.GetActive(ctx, patientID, p.ID)
		if err != nil {
			return nil, apperr.Dependency(err, "store unavailable")
		}
		if existing != nil {
			continue
		}
		e := newEnrollment(patientID, p)
		if err := s.enrollments.Create(ctx, e); err != nil {
			return nil, apperr.Dependency(err, "store unavailable")
		}
		created = append(created, e)
	}
	return created, nil
}

// AssignedCategory returns the patient's category assignment, or (nil, nil)
// when the patient has none.
func (s *Service) AssignedCategory(ctx context.Context, patientID uuid.UUID) (*PatientCategory, error) {
	pc, err := s.assignments.Get(ctx, patientID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return pc, nil
}

// ActiveEnrollment is the access check other services use before touching
// program material on a patient's behalf. A missing or dropped enrollment is
// an authorization failure, not a lookup failure, so patients cannot probe for
// programs they are not enrolled in. A failing store stays a dependency
// error; it never masquerades as a denial.
func (s *Service) ActiveEnrollment(ctx context.Context, patientID, programID uuid.UUID) (*Enrollment, error) {
	e, err := s.enrollments.GetActive(ctx, patientID, programID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	if e == nil {
		return nil, apperr.Unauthorized("not enrolled in this program")
	}
	return e, nil
}

// CanAccessProgram reports whether a non-dropped enrollment links the patient
// to the program. It never writes.
func (s *Service) CanAccessProgram(ctx context.Context, patientID, programID uuid.UUID) bool {
	e, err := s.enrollments.GetActive(ctx, patientID, programID)
	return err == nil && e != nil
}

// ListPatientEnrollments returns a patient's enrollments for staff review,
// dropped ones included.
func (s *Service) ListPatientEnrollments(ctx context.Context, patientID uuid.UUID) ([]*Enrollment, error) {
	items, err := s.enrollments.ListByPatient(ctx, patientID, true)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return items, nil
}

// MarkStarted moves an assigned enrollment to in_progress. Later states are
// left untouched.
func (s *Service) MarkStarted(ctx context.Context, e *Enrollment) error {
	if e.Status != StatusAssigned {
		return nil
	}
	now := time.Now().UTC()
	e.Status = StatusInProgress
	e.StartedAt = &now
	if err := s.enrollments.Update(ctx, e); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

// MarkCompleted moves the enrollment to completed. Dropped enrollments are
// never completed and completion is idempotent.
func (s *Service) MarkCompleted(ctx context.Context, e *Enrollment) error {
	switch e.Status {
	case StatusDropped:
		return apperr.Invalid("dropped enrollments cannot be completed")
	case StatusCompleted:
		return nil
	}
	now := time.Now().UTC()
	e.Status = StatusCompleted
	e.CompletedAt = &now
	if err := s.enrollments.Update(ctx, e); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

// CategoryFilterAll asks for the patient's own category rather than a
// specific one.
const CategoryFilterAll = "all"

// ResolveEffectiveCategory maps a requested category filter to the category
// actually used. "all" and the empty string resolve to the patient's assigned
// category; a patient with no assignment gets ok=false, which callers treat
// as an empty result rather than an error.
func (s *Service) ResolveEffectiveCategory(ctx context.Context, patientID uuid.UUID, requested string) (uuid.UUID, bool, error) {
	if requested == "" || requested == CategoryFilterAll {
		pc, err := s.AssignedCategory(ctx, patientID)
		if err != nil {
			return uuid.Nil, false, err
		}
		if pc == nil {
			return uuid.Nil, false, nil
		}
		return pc.CategoryID, true, nil
	}
	id, err := uuid.Parse(requested)
	if err != nil {
		return uuid.Nil, false, apperr.Invalid("invalid category filter")
	}
	return id, true, nil
}

// EnrolledProgram pairs a catalog program with the patient's enrollment in it.
type EnrolledProgram struct {
	Program    *catalog.TreatmentProgram `json:"program"`
	Enrollment *Enrollment               `json:"enrollment"`
}

// ListEnrolledPrograms returns the programs the patient may see under the
// given category filter. Only programs with a non-dropped enrollment appear.
func (s *Service) ListEnrolledPrograms(ctx context.Context, patientID uuid.UUID, categoryFilter string) ([]EnrolledProgram, error) {
	categoryID, ok, err := s.ResolveEffectiveCategory(ctx, patientID, categoryFilter)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []EnrolledProgram{}, nil
	}
	programs, err := s.catalog.ListProgramsByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	out := []EnrolledProgram{}
	for _, p := range programs {
		e, err := s.enrollments.GetActive(ctx, patientID, p.ID)
		if err != nil {
			return nil, apperr.Dependency(err, "store unavailable")
		}
		if e == nil {
			continue
		}
		out = append(out, EnrolledProgram{Program: p, Enrollment: e})
	}
	return out, nil
}
