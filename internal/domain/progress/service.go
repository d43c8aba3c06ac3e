package progress

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rehab/rehab/internal/domain/catalog"
	"github.com/rehab/rehab/internal/domain/enrollment"
	"github.com/rehab/rehab/internal/platform/apperr"
)

// Service tracks module activity per enrollment and rolls it up into the
// enrollment's status. Every entry point takes the acting patient's id and
// checks the enrollment gate before reading or writing anything.
type Service struct {
	progress Repository
	gate     Gate
	catalog  Catalog
}

func NewService(progress Repository, gate Gate, cat Catalog) *Service {
	return &Service{progress: progress, gate: gate, catalog: cat}
}

func (s *Service) activeModule(ctx context.Context, moduleID uuid.UUID) (*catalog.LearningModule, error) {
	m, err := s.catalog.GetModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, apperr.NotFound("module not found")
	}
	return m, nil
}

// RecordModuleAccess notes that the patient opened the module. The first
// access creates the progress row and moves an assigned enrollment to
// in_progress; later accesses return the existing row unchanged.
func (s *Service) RecordModuleAccess(ctx context.Context, patientID, moduleID uuid.UUID) (*ModuleProgress, error) {
	m, err := s.activeModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	e, err := s.gate.ActiveEnrollment(ctx, patientID, m.ProgramID)
	if err != nil {
		return nil, err
	}
	mp, err := s.progress.Get(ctx, e.ID, moduleID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	if mp != nil {
		return mp, nil
	}
	mp = &ModuleProgress{
		EnrollmentID:    e.ID,
		ModuleID:        moduleID,
		Status:          StatusInProgress,
		FirstAccessedAt: time.Now().UTC(),
	}
	if err := s.progress.Create(ctx, mp); err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	if err := s.gate.MarkStarted(ctx, e); err != nil {
		return nil, err
	}
	return mp, nil
}

// CompleteModule marks the module done for the patient, adds the reported
// time spent, and re-evaluates the program roll-up. Completing an already
// completed module writes nothing to the row but still re-runs the roll-up.
func (s *Service) CompleteModule(ctx context.Context, patientID, moduleID uuid.UUID, timeSpentSeconds int) (*ModuleProgress, error) {
	if timeSpentSeconds < 0 {
		return nil, apperr.Invalid("time_spent_seconds cannot be negative")
	}
	m, err := s.activeModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	e, err := s.gate.ActiveEnrollment(ctx, patientID, m.ProgramID)
	if err != nil {
		return nil, err
	}
	mp, err := s.progress.Get(ctx, e.ID, moduleID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	now := time.Now().UTC()
	switch {
	case mp == nil:
		// Completing without a prior access still counts as touching the
		// module, so the enrollment starts here too.
		mp = &ModuleProgress{
			EnrollmentID:    e.ID,
			ModuleID:        moduleID,
			Status:          StatusInProgress,
			FirstAccessedAt: now,
		}
		if err := s.progress.Create(ctx, mp); err != nil {
			return nil, apperr.Dependency(err, "store unavailable")
		}
		if err := s.gate.MarkStarted(ctx, e); err != nil {
			return nil, err
		}
		mp.Status = StatusCompleted
		mp.CompletedAt = &now
		mp.TimeSpentSeconds = timeSpentSeconds
		if err := s.progress.Update(ctx, mp); err != nil {
			return nil, apperr.Dependency(err, "store unavailable")
		}
	case mp.Status == StatusCompleted:
		// Completed is terminal for the row, but the roll-up below still
		// runs: if the enrollment transition failed on an earlier call, a
		// retry re-evaluates it instead of hitting a dead end.
	default:
		mp.Status = StatusCompleted
		mp.CompletedAt = &now
		mp.TimeSpentSeconds += timeSpentSeconds
		if err := s.progress.Update(ctx, mp); err != nil {
			return nil, apperr.Dependency(err, "store unavailable")
		}
	}
	if err := s.rollUp(ctx, e); err != nil {
		return nil, err
	}
	return mp, nil
}

// rollUp recomputes the enrollment status from scratch. The enrollment
// completes exactly when the program has at least one required active module
// and every one of them has a completed progress row. Optional modules never
// influence the outcome.
func (s *Service) rollUp(ctx context.Context, e *enrollment.Enrollment) error {
	required, _, err := s.requiredModules(ctx, e.ProgramID)
	if err != nil {
		return err
	}
	if len(required) == 0 {
		return nil
	}
	done, err := s.completedSet(ctx, e.ID)
	if err != nil {
		return err
	}
	for _, id := range required {
		if !done[id] {
			return nil
		}
	}
	if err := s.gate.MarkCompleted(ctx, e); err != nil {
		return err
	}
	log.Info().
		Str("enrollment_id", e.ID.String()).
		Str("program_id", e.ProgramID.String()).
		Msg("program completed")
	return nil
}

func (s *Service) requiredModules(ctx context.Context, programID uuid.UUID) (required []uuid.UUID, all []catalog.ModuleSummary, err error) {
	mods, err := s.catalog.ListModulesByProgram(ctx, programID)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range mods {
		if m.Active && m.IsRequired {
			required = append(required, m.ID)
		}
	}
	return required, mods, nil
}

func (s *Service) completedSet(ctx context.Context, enrollmentID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := s.progress.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	done := make(map[uuid.UUID]bool, len(rows))
	for _, mp := range rows {
		if mp.Status == StatusCompleted {
			done[mp.ModuleID] = true
		}
	}
	return done, nil
}

// ModuleView is a module as a patient sees it: the catalog entry plus their
// own progress.
type ModuleView struct {
	catalog.ModuleSummary
	Status      Status     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ListProgramModules returns the program's active modules with the patient's
// progress folded in. An unenrolled patient is refused before any read.
func (s *Service) ListProgramModules(ctx context.Context, patientID, programID uuid.UUID) ([]ModuleView, error) {
	e, err := s.gate.ActiveEnrollment(ctx, patientID, programID)
	if err != nil {
		return nil, err
	}
	mods, err := s.catalog.ListModulesByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListByEnrollment(ctx, e.ID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	byModule := make(map[uuid.UUID]*ModuleProgress, len(rows))
	for _, mp := range rows {
		byModule[mp.ModuleID] = mp
	}
	out := []ModuleView{}
	for _, m := range mods {
		if !m.Active {
			continue
		}
		v := ModuleView{ModuleSummary: m, Status: StatusNotStarted}
		if mp, ok := byModule[m.ID]; ok {
			v.Status = mp.Status
			v.CompletedAt = mp.CompletedAt
		}
		out = append(out, v)
	}
	return out, nil
}

// ListModuleContent returns the module's content for an enrolled patient.
func (s *Service) ListModuleContent(ctx context.Context, patientID, moduleID uuid.UUID) ([]*catalog.ContentItem, error) {
	m, err := s.activeModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.ActiveEnrollment(ctx, patientID, m.ProgramID); err != nil {
		return nil, err
	}
	return s.catalog.ListContentByModule(ctx, moduleID)
}

// Completion summarizes how far an enrollment is through its program's
// required modules.
type Completion struct {
	ProgramID         uuid.UUID         `json:"program_id"`
	EnrollmentID      uuid.UUID         `json:"enrollment_id"`
	EnrollmentStatus  enrollment.Status `json:"enrollment_status"`
	RequiredModules   int               `json:"required_modules"`
	CompletedRequired int               `json:"completed_required"`
	Percent           int               `json:"percent"`
}

// ProgramCompletion reports the patient's progress through the program. The
// percentage counts required modules only; a program with none reports zero.
func (s *Service) ProgramCompletion(ctx context.Context, patientID, programID uuid.UUID) (*Completion, error) {
	e, err := s.gate.ActiveEnrollment(ctx, patientID, programID)
	if err != nil {
		return nil, err
	}
	return s.completionFor(ctx, e)
}

func (s *Service) completionFor(ctx context.Context, e *enrollment.Enrollment) (*Completion, error) {
	required, _, err := s.requiredModules(ctx, e.ProgramID)
	if err != nil {
		return nil, err
	}
	done, err := s.completedSet(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, id := range required {
		if done[id] {
			completed++
		}
	}
	c := &Completion{
		ProgramID:         e.ProgramID,
		EnrollmentID:      e.ID,
		EnrollmentStatus:  e.Status,
		RequiredModules:   len(required),
		CompletedRequired: completed,
	}
	if len(required) > 0 {
		c.Percent = int(math.Round(float64(completed) / float64(len(required)) * 100))
	}
	return c, nil
}

// ProgramView is one entry of a patient's program listing: the program, their
// enrollment in it, and how far through it they are.
type ProgramView struct {
	Program    *catalog.TreatmentProgram `json:"program"`
	Enrollment *enrollment.Enrollment    `json:"enrollment"`
	Completion *Completion               `json:"completion"`
}

// ListMyPrograms returns the patient's enrolled programs under the category
// filter, each with its completion summary. A patient with no category and no
// explicit filter gets an empty list.
func (s *Service) ListMyPrograms(ctx context.Context, patientID uuid.UUID, categoryFilter string) ([]ProgramView, error) {
	enrolled, err := s.gate.ListEnrolledPrograms(ctx, patientID, categoryFilter)
	if err != nil {
		return nil, err
	}
	out := make([]ProgramView, 0, len(enrolled))
	for _, ep := range enrolled {
		c, err := s.completionFor(ctx, ep.Enrollment)
		if err != nil {
			return nil, err
		}
		out = append(out, ProgramView{Program: ep.Program, Enrollment: ep.Enrollment, Completion: c})
	}
	return out, nil
}
