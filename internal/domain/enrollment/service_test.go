package enrollment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/domain/catalog"
	"github.com/rehab/rehab/internal/platform/apperr"
)

var errNotFound = errors.New("not found")

type mockRepo struct {
	items        map[uuid.UUID]*Enrollment
	getActiveErr error // injected store failure for GetActive
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Enrollment)}
}

func (m *mockRepo) Create(_ context.Context, e *Enrollment) error {
	e.ID = uuid.New()
	cp := *e
	m.items[e.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Enrollment, error) {
	e, ok := m.items[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockRepo) GetActive(_ context.Context, patientID, programID uuid.UUID) (*Enrollment, error) {
	if m.getActiveErr != nil {
		return nil, m.getActiveErr
	}
	for _, e := range m.items {
		if e.PatientID == patientID && e.ProgramID == programID && e.Status != StatusDropped {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) Update(_ context.Context, e *Enrollment) error {
	if _, ok := m.items[e.ID]; !ok {
		return errNotFound
	}
	cp := *e
	m.items[e.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, includeDropped bool) ([]*Enrollment, error) {
	var out []*Enrollment
	for _, e := range m.items {
		if e.PatientID != patientID {
			continue
		}
		if !includeDropped && e.Status == StatusDropped {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepo) ListByProgram(_ context.Context, programID uuid.UUID, limit, offset int) ([]*Enrollment, int, error) {
	var out []*Enrollment
	for _, e := range m.items {
		if e.ProgramID == programID && e.Status != StatusDropped {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

type mockAssignmentRepo struct {
	byPatient map[uuid.UUID]*PatientCategory
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{byPatient: make(map[uuid.UUID]*PatientCategory)}
}

func (m *mockAssignmentRepo) Assign(_ context.Context, patientID, categoryID uuid.UUID) error {
	m.byPatient[patientID] = &PatientCategory{PatientID: patientID, CategoryID: categoryID, AssignedAt: time.Now()}
	return nil
}

func (m *mockAssignmentRepo) Get(_ context.Context, patientID uuid.UUID) (*PatientCategory, error) {
	return m.byPatient[patientID], nil
}

type mockCatalog struct {
	programs   map[uuid.UUID]*catalog.TreatmentProgram
	categories map[uuid.UUID]*catalog.Category
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		programs:   make(map[uuid.UUID]*catalog.TreatmentProgram),
		categories: make(map[uuid.UUID]*catalog.Category),
	}
}

func (m *mockCatalog) addCategory(active bool) *catalog.Category {
	c := &catalog.Category{ID: uuid.New(), Name: "cat", Active: active}
	m.categories[c.ID] = c
	return c
}

func (m *mockCatalog) addProgram(categoryID uuid.UUID, active bool) *catalog.TreatmentProgram {
	p := &catalog.TreatmentProgram{ID: uuid.New(), CategoryID: categoryID, Name: "prog", Active: active}
	m.programs[p.ID] = p
	return p
}

func (m *mockCatalog) GetProgram(_ context.Context, id uuid.UUID) (*catalog.TreatmentProgram, error) {
	p, ok := m.programs[id]
	if !ok {
		return nil, apperr.NotFound("program not found")
	}
	return p, nil
}

func (m *mockCatalog) GetCategory(_ context.Context, id uuid.UUID) (*catalog.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, apperr.NotFound("category not found")
	}
	return c, nil
}

func (m *mockCatalog) ListProgramsByCategory(_ context.Context, categoryID uuid.UUID) ([]*catalog.TreatmentProgram, error) {
	var out []*catalog.TreatmentProgram
	for _, p := range m.programs {
		if p.CategoryID == categoryID && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockRepo, *mockAssignmentRepo, *mockCatalog) {
	repo := newMockRepo()
	assignments := newMockAssignmentRepo()
	cat := newMockCatalog()
	return NewService(repo, assignments, cat), repo, assignments, cat
}

func TestEnrollPatient(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	patientID := uuid.New()

	e, err := svc.EnrollPatient(context.Background(), patientID, p.ID)
	if err != nil {
		t.Fatalf("EnrollPatient: %v", err)
	}
	if e.Status != StatusAssigned {
		t.Errorf("status = %s, want assigned", e.Status)
	}
	if e.EnrolledAt.IsZero() {
		t.Error("enrolled_at was not set")
	}
	if e.ExpectedEndAt != nil {
		t.Error("expected_end_at set for a program with no duration")
	}
}

func TestEnrollPatientSetsExpectedEnd(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	days := 30
	p.DurationDays = &days
	patientID := uuid.New()

	e, err := svc.EnrollPatient(context.Background(), patientID, p.ID)
	if err != nil {
		t.Fatalf("EnrollPatient: %v", err)
	}
	if e.ExpectedEndAt == nil {
		t.Fatal("expected_end_at was not set")
	}
	want := e.EnrolledAt.AddDate(0, 0, days)
	if !e.ExpectedEndAt.Equal(want) {
		t.Errorf("expected_end_at = %v, want %v", e.ExpectedEndAt, want)
	}
}

func TestCanAccessProgram(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	patientID := uuid.New()

	if svc.CanAccessProgram(context.Background(), patientID, p.ID) {
		t.Error("unenrolled patient must not have access")
	}
	e, err := svc.EnrollPatient(context.Background(), patientID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !svc.CanAccessProgram(context.Background(), patientID, p.ID) {
		t.Error("enrolled patient must have access")
	}
	if err := svc.DropEnrollment(context.Background(), e.ID); err != nil {
		t.Fatal(err)
	}
	if svc.CanAccessProgram(context.Background(), patientID, p.ID) {
		t.Error("dropped enrollment must not grant access")
	}
}

func TestEnrollPatientRejectsDuplicate(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	patientID := uuid.New()

	if _, err := svc.EnrollPatient(context.Background(), patientID, p.ID); err != nil {
		t.Fatal(err)
	}
	_, err := svc.EnrollPatient(context.Background(), patientID, p.ID)
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("kind = %v, want invalid input", apperr.KindOf(err))
	}
}

func TestEnrollPatientRejectsInactiveProgram(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, false)

	_, err := svc.EnrollPatient(context.Background(), uuid.New(), p.ID)
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("kind = %v, want invalid input", apperr.KindOf(err))
	}
}

func TestReEnrollAfterDropCreatesNewRow(t *testing.T) {
	svc, repo, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	patientID := uuid.New()

	first, err := svc.EnrollPatient(context.Background(), patientID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DropEnrollment(context.Background(), first.ID); err != nil {
		t.Fatalf("DropEnrollment: %v", err)
	}

	second, err := svc.EnrollPatient(context.Background(), patientID, p.ID)
	if err != nil {
		t.Fatalf("re-enroll after drop: %v", err)
	}
	if second.ID == first.ID {
		t.Error("re-enroll must create a new enrollment, not revive the dropped one")
	}
	dropped, _ := repo.GetByID(context.Background(), first.ID)
	if dropped.Status != StatusDropped {
		t.Errorf("dropped enrollment status = %s, must stay dropped", dropped.Status)
	}
}

func TestDropCompletedEnrollmentRejected(t *testing.T) {
	svc, repo, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)

	e, err := svc.EnrollPatient(context.Background(), uuid.New(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkCompleted(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	err = svc.DropEnrollment(context.Background(), e.ID)
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("kind = %v, want invalid input", apperr.KindOf(err))
	}
	stored, _ := repo.GetByID(context.Background(), e.ID)
	if stored.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestMarkStartedOnlyFromAssigned(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)

	e, err := svc.EnrollPatient(context.Background(), uuid.New(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkStarted(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if e.Status != StatusInProgress || e.StartedAt == nil {
		t.Fatalf("after start: status = %s, started_at = %v", e.Status, e.StartedAt)
	}
	started := *e.StartedAt

	if err := svc.MarkStarted(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if !e.StartedAt.Equal(started) {
		t.Error("second start must not move started_at")
	}
}

func TestMarkCompletedIsTerminalAndIdempotent(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)

	e, err := svc.EnrollPatient(context.Background(), uuid.New(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkCompleted(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	completed := *e.CompletedAt
	if err := svc.MarkCompleted(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	if !e.CompletedAt.Equal(completed) {
		t.Error("second completion must not move completed_at")
	}

	e.Status = StatusDropped
	if err := svc.MarkCompleted(context.Background(), e); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("completing a dropped enrollment: kind = %v, want invalid input", apperr.KindOf(err))
	}
}

func TestActiveEnrollmentUnauthorizedWhenMissing(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)

	_, err := svc.ActiveEnrollment(context.Background(), uuid.New(), p.ID)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("kind = %v, want unauthorized", apperr.KindOf(err))
	}
}

func TestActiveEnrollmentUnauthorizedWhenDropped(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	patientID := uuid.New()

	e, err := svc.EnrollPatient(context.Background(), patientID, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DropEnrollment(context.Background(), e.ID); err != nil {
		t.Fatal(err)
	}
	_, err = svc.ActiveEnrollment(context.Background(), patientID, p.ID)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Fatalf("kind = %v, want unauthorized", apperr.KindOf(err))
	}
}

func TestActiveEnrollmentStoreFailureIsDependency(t *testing.T) {
	svc, repo, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	repo.getActiveErr = errors.New("connection refused")

	_, err := svc.ActiveEnrollment(context.Background(), uuid.New(), p.ID)
	if apperr.KindOf(err) != apperr.KindDependency {
		t.Fatalf("kind = %v, want dependency", apperr.KindOf(err))
	}
}

func TestEnrollPatientAbortsOnStoreFailure(t *testing.T) {
	svc, repo, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	repo.getActiveErr = errors.New("connection refused")

	_, err := svc.EnrollPatient(context.Background(), uuid.New(), p.ID)
	if apperr.KindOf(err) != apperr.KindDependency {
		t.Fatalf("kind = %v, want dependency", apperr.KindOf(err))
	}
	if len(repo.items) != 0 {
		t.Errorf("enrollment created despite failed duplicate check: %d rows", len(repo.items))
	}
}

func TestAssignCategoryEnrollsActivePrograms(t *testing.T) {
	svc, _, assignments, cat := newTestService()
	c := cat.addCategory(true)
	active1 := cat.addProgram(c.ID, true)
	active2 := cat.addProgram(c.ID, true)
	cat.addProgram(c.ID, false)
	patientID := uuid.New()

	created, err := svc.AssignCategory(context.Background(), patientID, c.ID)
	if err != nil {
		t.Fatalf("AssignCategory: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d enrollments, want 2 (inactive program excluded)", len(created))
	}
	got := map[uuid.UUID]bool{}
	for _, e := range created {
		got[e.ProgramID] = true
	}
	if !got[active1.ID] || !got[active2.ID] {
		t.Error("expected enrollments in both active programs")
	}
	if assignments.byPatient[patientID].CategoryID != c.ID {
		t.Error("category assignment was not recorded")
	}
}

func TestAssignCategorySkipsExistingEnrollment(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	p := cat.addProgram(c.ID, true)
	patientID := uuid.New()

	if _, err := svc.EnrollPatient(context.Background(), patientID, p.ID); err != nil {
		t.Fatal(err)
	}
	created, err := svc.AssignCategory(context.Background(), patientID, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 0 {
		t.Fatalf("created %d enrollments, want 0", len(created))
	}
}

func TestAssignCategoryReplacesPrevious(t *testing.T) {
	svc, _, assignments, cat := newTestService()
	c1 := cat.addCategory(true)
	c2 := cat.addCategory(true)
	patientID := uuid.New()

	if _, err := svc.AssignCategory(context.Background(), patientID, c1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AssignCategory(context.Background(), patientID, c2.ID); err != nil {
		t.Fatal(err)
	}
	if assignments.byPatient[patientID].CategoryID != c2.ID {
		t.Error("second assignment must replace the first")
	}
}

func TestResolveEffectiveCategoryAllSentinel(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	patientID := uuid.New()

	if _, err := svc.AssignCategory(context.Background(), patientID, c.ID); err != nil {
		t.Fatal(err)
	}
	for _, filter := range []string{"", CategoryFilterAll} {
		id, ok, err := svc.ResolveEffectiveCategory(context.Background(), patientID, filter)
		if err != nil || !ok {
			t.Fatalf("filter %q: ok=%v err=%v", filter, ok, err)
		}
		if id != c.ID {
			t.Errorf("filter %q resolved to %s, want patient category", filter, id)
		}
	}
}

func TestResolveEffectiveCategoryNoAssignment(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, ok, err := svc.ResolveEffectiveCategory(context.Background(), uuid.New(), CategoryFilterAll)
	if err != nil {
		t.Fatalf("no assignment must not be an error, got %v", err)
	}
	if ok {
		t.Error("ok = true, want false for unassigned patient")
	}
}

func TestListEnrolledProgramsHidesDroppedAndUnenrolled(t *testing.T) {
	svc, _, _, cat := newTestService()
	c := cat.addCategory(true)
	kept := cat.addProgram(c.ID, true)
	droppedProg := cat.addProgram(c.ID, true)
	patientID := uuid.New()

	created, err := svc.AssignCategory(context.Background(), patientID, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range created {
		if e.ProgramID == droppedProg.ID {
			if err := svc.DropEnrollment(context.Background(), e.ID); err != nil {
				t.Fatal(err)
			}
		}
	}

	list, err := svc.ListEnrolledPrograms(context.Background(), patientID, CategoryFilterAll)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].Program.ID != kept.ID {
		t.Errorf("listed program %s, want %s", list[0].Program.ID, kept.ID)
	}
}

func TestListEnrolledProgramsEmptyWithoutCategory(t *testing.T) {
	svc, _, _, _ := newTestService()
	list, err := svc.ListEnrolledPrograms(context.Background(), uuid.New(), CategoryFilterAll)
	if err != nil {
		t.Fatalf("ListEnrolledPrograms: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("len = %d, want 0", len(list))
	}
}
