package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/platform/apperr"
)

var errNotFound = errors.New("not found")

type mockCategoryRepo struct {
	items map[uuid.UUID]*Category
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{items: make(map[uuid.UUID]*Category)}
}

func (m *mockCategoryRepo) Create(_ context.Context, c *Category) error {
	c.ID = uuid.New()
	m.items[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Category, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, errNotFound
	}
	return c, nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *Category) error {
	m.items[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) List(_ context.Context, includeInactive bool, limit, offset int) ([]*Category, int, error) {
	var out []*Category
	for _, c := range m.items {
		if includeInactive || c.Active {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

type mockProgramRepo struct {
	items map[uuid.UUID]*TreatmentProgram
}

func newMockProgramRepo() *mockProgramRepo {
	return &mockProgramRepo{items: make(map[uuid.UUID]*TreatmentProgram)}
}

func (m *mockProgramRepo) Create(_ context.Context, p *TreatmentProgram) error {
	p.ID = uuid.New()
	m.items[p.ID] = p
	return nil
}

func (m *mockProgramRepo) GetByID(_ context.Context, id uuid.UUID) (*TreatmentProgram, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, errNotFound
	}
	return p, nil
}

func (m *mockProgramRepo) Update(_ context.Context, p *TreatmentProgram) error {
	m.items[p.ID] = p
	return nil
}

func (m *mockProgramRepo) List(_ context.Context, includeInactive bool, limit, offset int) ([]*TreatmentProgram, int, error) {
	var out []*TreatmentProgram
	for _, p := range m.items {
		if includeInactive || p.Active {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockProgramRepo) ListByCategory(_ context.Context, categoryID uuid.UUID, activeOnly bool) ([]*TreatmentProgram, error) {
	var out []*TreatmentProgram
	for _, p := range m.items {
		if p.CategoryID != categoryID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type mockModuleRepo struct {
	items  map[uuid.UUID]*LearningModule
	counts map[uuid.UUID]int
}

func newMockModuleRepo() *mockModuleRepo {
	return &mockModuleRepo{items: make(map[uuid.UUID]*LearningModule), counts: make(map[uuid.UUID]int)}
}

func (m *mockModuleRepo) Create(_ context.Context, lm *LearningModule) error {
	lm.ID = uuid.New()
	m.items[lm.ID] = lm
	return nil
}

func (m *mockModuleRepo) GetByID(_ context.Context, id uuid.UUID) (*LearningModule, error) {
	lm, ok := m.items[id]
	if !ok {
		return nil, errNotFound
	}
	return lm, nil
}

func (m *mockModuleRepo) Update(_ context.Context, lm *LearningModule) error {
	m.items[lm.ID] = lm
	return nil
}

func (m *mockModuleRepo) ListByProgram(_ context.Context, programID uuid.UUID, activeOnly bool) ([]*LearningModule, error) {
	var out []*LearningModule
	for _, lm := range m.items {
		if lm.ProgramID != programID {
			continue
		}
		if activeOnly && !lm.Active {
			continue
		}
		out = append(out, lm)
	}
	return out, nil
}

func (m *mockModuleRepo) ContentCounts(_ context.Context, moduleIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int)
	for _, id := range moduleIDs {
		if n, ok := m.counts[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type mockContentRepo struct {
	items map[uuid.UUID]*ContentItem
}

func newMockContentRepo() *mockContentRepo {
	return &mockContentRepo{items: make(map[uuid.UUID]*ContentItem)}
}

func (m *mockContentRepo) Create(_ context.Context, ci *ContentItem) error {
	ci.ID = uuid.New()
	m.items[ci.ID] = ci
	return nil
}

func (m *mockContentRepo) GetByID(_ context.Context, id uuid.UUID) (*ContentItem, error) {
	ci, ok := m.items[id]
	if !ok {
		return nil, errNotFound
	}
	return ci, nil
}

func (m *mockContentRepo) Update(_ context.Context, ci *ContentItem) error {
	m.items[ci.ID] = ci
	return nil
}

func (m *mockContentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return errNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockContentRepo) ListByModule(_ context.Context, moduleID uuid.UUID) ([]*ContentItem, error) {
	var out []*ContentItem
	for _, ci := range m.items {
		if ci.ModuleID == moduleID {
			out = append(out, ci)
		}
	}
	return out, nil
}

type mockAssessmentRepo struct {
	assessments map[uuid.UUID]*Assessment
	questions   map[uuid.UUID]*Question
	options     map[uuid.UUID]*QuestionOption
}

func newMockAssessmentRepo() *mockAssessmentRepo {
	return &mockAssessmentRepo{
		assessments: make(map[uuid.UUID]*Assessment),
		questions:   make(map[uuid.UUID]*Question),
		options:     make(map[uuid.UUID]*QuestionOption),
	}
}

func (m *mockAssessmentRepo) Create(_ context.Context, a *Assessment) error {
	a.ID = uuid.New()
	m.assessments[a.ID] = a
	return nil
}

func (m *mockAssessmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Assessment, error) {
	a, ok := m.assessments[id]
	if !ok {
		return nil, errNotFound
	}
	return a, nil
}

func (m *mockAssessmentRepo) Update(_ context.Context, a *Assessment) error {
	m.assessments[a.ID] = a
	return nil
}

func (m *mockAssessmentRepo) ListByModule(_ context.Context, moduleID uuid.UUID, activeOnly bool) ([]*Assessment, error) {
	var out []*Assessment
	for _, a := range m.assessments {
		if a.ModuleID != moduleID {
			continue
		}
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAssessmentRepo) CreateQuestion(_ context.Context, q *Question) error {
	q.ID = uuid.New()
	m.questions[q.ID] = q
	return nil
}

func (m *mockAssessmentRepo) GetQuestion(_ context.Context, id uuid.UUID) (*Question, error) {
	q, ok := m.questions[id]
	if !ok {
		return nil, errNotFound
	}
	return q, nil
}

func (m *mockAssessmentRepo) UpdateQuestion(_ context.Context, q *Question) error {
	m.questions[q.ID] = q
	return nil
}

func (m *mockAssessmentRepo) DeleteQuestion(_ context.Context, id uuid.UUID) error {
	if _, ok := m.questions[id]; !ok {
		return errNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *mockAssessmentRepo) ListQuestions(_ context.Context, assessmentID uuid.UUID) ([]*Question, error) {
	var out []*Question
	for _, q := range m.questions {
		if q.AssessmentID == assessmentID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockAssessmentRepo) CreateOption(_ context.Context, o *QuestionOption) error {
	o.ID = uuid.New()
	m.options[o.ID] = o
	return nil
}

func (m *mockAssessmentRepo) DeleteOption(_ context.Context, id uuid.UUID) error {
	if _, ok := m.options[id]; !ok {
		return errNotFound
	}
	delete(m.options, id)
	return nil
}

func (m *mockAssessmentRepo) ListOptions(_ context.Context, questionID uuid.UUID) ([]QuestionOption, error) {
	var out []QuestionOption
	for _, o := range m.options {
		if o.QuestionID == questionID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockAssessmentRepo) ListOptionsForAssessment(_ context.Context, assessmentID uuid.UUID) (map[uuid.UUID][]QuestionOption, error) {
	out := make(map[uuid.UUID][]QuestionOption)
	for _, o := range m.options {
		q, ok := m.questions[o.QuestionID]
		if !ok || q.AssessmentID != assessmentID {
			continue
		}
		out[o.QuestionID] = append(out[o.QuestionID], *o)
	}
	return out, nil
}

func newTestService() (*Service, *mockCategoryRepo, *mockProgramRepo, *mockModuleRepo, *mockContentRepo, *mockAssessmentRepo) {
	cats := newMockCategoryRepo()
	progs := newMockProgramRepo()
	mods := newMockModuleRepo()
	content := newMockContentRepo()
	asm := newMockAssessmentRepo()
	return NewService(cats, progs, mods, content, asm), cats, progs, mods, content, asm
}

func TestCreateCategoryValidation(t *testing.T) {
	svc, _, _, _, _, _ := newTestService()
	err := svc.CreateCategory(context.Background(), &Category{})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("kind = %v, want invalid input", apperr.KindOf(err))
	}
}

func TestCreateProgramRequiresCategory(t *testing.T) {
	svc, cats, _, _, _, _ := newTestService()

	err := svc.CreateProgram(context.Background(), &TreatmentProgram{Name: "p", CategoryID: uuid.New()})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want not found", apperr.KindOf(err))
	}

	cat := &Category{Name: "ortho"}
	if err := cats.Create(context.Background(), cat); err != nil {
		t.Fatal(err)
	}
	p := &TreatmentProgram{Name: "knee rehab", CategoryID: cat.ID}
	if err := svc.CreateProgram(context.Background(), p); err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if !p.Active {
		t.Error("new program should be active")
	}
}

func TestCreateProgramRejectsNonPositiveDuration(t *testing.T) {
	svc, cats, _, _, _, _ := newTestService()
	cat := &Category{Name: "c"}
	_ = cats.Create(context.Background(), cat)

	zero := 0
	err := svc.CreateProgram(context.Background(), &TreatmentProgram{Name: "p", CategoryID: cat.ID, DurationDays: &zero})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("kind = %v, want invalid input", apperr.KindOf(err))
	}
}

func TestCreateContentValidatesPayload(t *testing.T) {
	svc, _, _, mods, _, _ := newTestService()
	mod := &LearningModule{Name: "m", ProgramID: uuid.New()}
	_ = mods.Create(context.Background(), mod)

	bad := &ContentItem{ModuleID: mod.ID, Kind: ContentVideo, Title: "v", Payload: json.RawMessage(`{"duration_seconds":10}`)}
	err := svc.CreateContent(context.Background(), bad)
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("kind = %v, want invalid input", apperr.KindOf(err))
	}

	good := &ContentItem{ModuleID: mod.ID, Kind: ContentVideo, Title: "v", Payload: json.RawMessage(`{"url":"https://v.example/1"}`)}
	if err := svc.CreateContent(context.Background(), good); err != nil {
		t.Fatalf("CreateContent: %v", err)
	}
}

func TestCreateAssessmentPassingScoreBounds(t *testing.T) {
	svc, _, _, mods, _, _ := newTestService()
	mod := &LearningModule{Name: "m", ProgramID: uuid.New()}
	_ = mods.Create(context.Background(), mod)

	for _, score := range []int{-1, 101} {
		err := svc.CreateAssessment(context.Background(), &Assessment{ModuleID: mod.ID, Title: "a", PassingScore: score})
		if apperr.KindOf(err) != apperr.KindInvalidInput {
			t.Errorf("score %d: kind = %v, want invalid input", score, apperr.KindOf(err))
		}
	}
	if err := svc.CreateAssessment(context.Background(), &Assessment{ModuleID: mod.ID, Title: "a", PassingScore: 70}); err != nil {
		t.Fatalf("CreateAssessment: %v", err)
	}
}

func TestCreateOptionOnlyOnChoiceQuestions(t *testing.T) {
	svc, _, _, _, _, asm := newTestService()
	a := &Assessment{Title: "a", ModuleID: uuid.New(), PassingScore: 70}
	_ = asm.Create(context.Background(), a)
	q := &Question{AssessmentID: a.ID, Type: QuestionTextResponse, Prompt: "how do you feel", Points: 0}
	_ = asm.CreateQuestion(context.Background(), q)

	err := svc.CreateOption(context.Background(), &QuestionOption{QuestionID: q.ID, Label: "fine"})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("kind = %v, want invalid input", apperr.KindOf(err))
	}
}

func TestListModulesByProgramIncludesContentCounts(t *testing.T) {
	svc, _, _, mods, _, _ := newTestService()
	pid := uuid.New()
	m1 := &LearningModule{Name: "m1", ProgramID: pid, Active: true}
	m2 := &LearningModule{Name: "m2", ProgramID: pid, Active: true}
	_ = mods.Create(context.Background(), m1)
	_ = mods.Create(context.Background(), m2)
	mods.counts[m1.ID] = 3

	out, err := svc.ListModulesByProgram(context.Background(), pid)
	if err != nil {
		t.Fatalf("ListModulesByProgram: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	byID := make(map[uuid.UUID]ModuleSummary)
	for _, s := range out {
		byID[s.ID] = s
	}
	if byID[m1.ID].ContentCount != 3 {
		t.Errorf("m1 count = %d, want 3", byID[m1.ID].ContentCount)
	}
	if byID[m2.ID].ContentCount != 0 {
		t.Errorf("m2 count = %d, want 0", byID[m2.ID].ContentCount)
	}
}
