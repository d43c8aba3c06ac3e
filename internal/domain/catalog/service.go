package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/platform/apperr"
)

// Service owns the treatment catalog: categories, programs, modules, content
// and assessment definitions. It is the write path for clinicians and admins;
// patient-facing reads go through the enrollment and progress services, which
// consume the catalog through their own interfaces.
type Service struct {
	categories  CategoryRepository
	programs    ProgramRepository
	modules     ModuleRepository
	content     ContentRepository
	assessments AssessmentRepository
}

func NewService(categories CategoryRepository, programs ProgramRepository, modules ModuleRepository,
	content ContentRepository, assessments AssessmentRepository) *Service {
	return &Service{
		categories:  categories,
		programs:    programs,
		modules:     modules,
		content:     content,
		assessments: assessments,
	}
}

// --- categories ---

func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if c.Name == "" {
		return apperr.Invalid("name is required")
	}
	c.Active = true
	if err := s.categories.Create(ctx, c); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) GetCategory(ctx context.Context, id uuid.UUID) (*Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("category not found")
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, c *Category) error {
	if c.ID == uuid.Nil {
		return apperr.Invalid("id is required")
	}
	if c.Name == "" {
		return apperr.Invalid("name is required")
	}
	if _, err := s.categories.GetByID(ctx, c.ID); err != nil {
		return apperr.NotFound("category not found")
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) ListCategories(ctx context.Context, includeInactive bool, limit, offset int) ([]*Category, int, error) {
	items, total, err := s.categories.List(ctx, includeInactive, limit, offset)
	if err != nil {
		return nil, 0, apperr.Dependency(err, "store unavailable")
	}
	return items, total, nil
}

// --- programs ---

func (s *Service) CreateProgram(ctx context.Context, p *TreatmentProgram) error {
	if p.Name == "" {
		return apperr.Invalid("name is required")
	}
	if p.CategoryID == uuid.Nil {
		return apperr.Invalid("category_id is required")
	}
	if p.DurationDays != nil && *p.DurationDays <= 0 {
		return apperr.Invalid("duration_days must be positive")
	}
	if _, err := s.categories.GetByID(ctx, p.CategoryID); err != nil {
		return apperr.NotFound("category not found")
	}
	p.Active = true
	if err := s.programs.Create(ctx, p); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) GetProgram(ctx context.Context, id uuid.UUID) (*TreatmentProgram, error) {
	p, err := s.programs.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("program not found")
	}
	return p, nil
}

func (s *Service) UpdateProgram(ctx context.Context, p *TreatmentProgram) error {
	if p.ID == uuid.Nil {
		return apperr.Invalid("id is required")
	}
	if p.Name == "" {
		return apperr.Invalid("name is required")
	}
	if p.DurationDays != nil && *p.DurationDays <= 0 {
		return apperr.Invalid("duration_days must be positive")
	}
	if _, err := s.programs.GetByID(ctx, p.ID); err != nil {
		return apperr.NotFound("program not found")
	}
	if _, err := s.categories.GetByID(ctx, p.CategoryID); err != nil {
		return apperr.NotFound("category not found")
	}
	if err := s.programs.Update(ctx, p); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) ListPrograms(ctx context.Context, includeInactive bool, limit, offset int) ([]*TreatmentProgram, int, error) {
	items, total, err := s.programs.List(ctx, includeInactive, limit, offset)
	if err != nil {
		return nil, 0, apperr.Dependency(err, "store unavailable")
	}
	return items, total, nil
}

func (s *Service) ListProgramsByCategory(ctx context.Context, categoryID uuid.UUID) ([]*TreatmentProgram, error) {
	items, err := s.programs.ListByCategory(ctx, categoryID, true)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return items, nil
}

// --- modules ---

func (s *Service) CreateModule(ctx context.Context, m *LearningModule) error {
	if m.Name == "" {
		return apperr.Invalid("name is required")
	}
	if m.ProgramID == uuid.Nil {
		return apperr.Invalid("program_id is required")
	}
	if _, err := s.programs.GetByID(ctx, m.ProgramID); err != nil {
		return apperr.NotFound("program not found")
	}
	m.Active = true
	if err := s.modules.Create(ctx, m); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) GetModule(ctx context.Context, id uuid.UUID) (*LearningModule, error) {
	m, err := s.modules.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("module not found")
	}
	return m, nil
}

func (s *Service) UpdateModule(ctx context.Context, m *LearningModule) error {
	if m.ID == uuid.Nil {
		return apperr.Invalid("id is required")
	}
	if m.Name == "" {
		return apperr.Invalid("name is required")
	}
	if _, err := s.modules.GetByID(ctx, m.ID); err != nil {
		return apperr.NotFound("module not found")
	}
	if err := s.modules.Update(ctx, m); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

// ModuleSummary is a module together with its content item count, for program
// outline views.
type ModuleSummary struct {
	LearningModule
	ContentCount int `json:"content_count"`
}

func (s *Service) ListModulesByProgram(ctx context.Context, programID uuid.UUID) ([]ModuleSummary, error) {
	mods, err := s.modules.ListByProgram(ctx, programID, false)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	ids := make([]uuid.UUID, len(mods))
	for i, m := range mods {
		ids[i] = m.ID
	}
	counts, err := s.modules.ContentCounts(ctx, ids)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	out := make([]ModuleSummary, len(mods))
	for i, m := range mods {
		out[i] = ModuleSummary{LearningModule: *m, ContentCount: counts[m.ID]}
	}
	return out, nil
}

// --- content ---

func (s *Service) validateContent(ci *ContentItem) error {
	if ci.Title == "" {
		return apperr.Invalid("title is required")
	}
	if !validContentKinds[ci.Kind] {
		return apperr.Invalidf("unknown content kind %q", ci.Kind)
	}
	if len(ci.Payload) == 0 {
		return apperr.Invalid("payload is required")
	}
	if _, err := ci.DecodePayload(); err != nil {
		return apperr.Invalidf("invalid payload: %v", err)
	}
	return nil
}

func (s *Service) CreateContent(ctx context.Context, ci *ContentItem) error {
	if ci.ModuleID == uuid.Nil {
		return apperr.Invalid("module_id is required")
	}
	if err := s.validateContent(ci); err != nil {
		return err
	}
	if _, err := s.modules.GetByID(ctx, ci.ModuleID); err != nil {
		return apperr.NotFound("module not found")
	}
	if err := s.content.Create(ctx, ci); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	ci, err := s.content.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("content item not found")
	}
	return ci, nil
}

func (s *Service) UpdateContent(ctx context.Context, ci *ContentItem) error {
	if ci.ID == uuid.Nil {
		return apperr.Invalid("id is required")
	}
	if err := s.validateContent(ci); err != nil {
		return err
	}
	if _, err := s.content.GetByID(ctx, ci.ID); err != nil {
		return apperr.NotFound("content item not found")
	}
	if err := s.content.Update(ctx, ci); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) DeleteContent(ctx context.Context, id uuid.UUID) error {
	if err := s.content.Delete(ctx, id); err != nil {
		return apperr.NotFound("content item not found")
	}
	return nil
}

func (s *Service) ListContentByModule(ctx context.Context, moduleID uuid.UUID) ([]*ContentItem, error) {
	items, err := s.content.ListByModule(ctx, moduleID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return items, nil
}

// --- assessments ---

func (s *Service) CreateAssessment(ctx context.Context, a *Assessment) error {
	if a.Title == "" {
		return apperr.Invalid("title is required")
	}
	if a.ModuleID == uuid.Nil {
		return apperr.Invalid("module_id is required")
	}
	if a.PassingScore < 0 || a.PassingScore > 100 {
		return apperr.Invalid("passing_score must be between 0 and 100")
	}
	if _, err := s.modules.GetByID(ctx, a.ModuleID); err != nil {
		return apperr.NotFound("module not found")
	}
	a.Active = true
	if err := s.assessments.Create(ctx, a); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) GetAssessment(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	a, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("assessment not found")
	}
	return a, nil
}

func (s *Service) UpdateAssessment(ctx context.Context, a *Assessment) error {
	if a.ID == uuid.Nil {
		return apperr.Invalid("id is required")
	}
	if a.Title == "" {
		return apperr.Invalid("title is required")
	}
	if a.PassingScore < 0 || a.PassingScore > 100 {
		return apperr.Invalid("passing_score must be between 0 and 100")
	}
	if _, err := s.assessments.GetByID(ctx, a.ID); err != nil {
		return apperr.NotFound("assessment not found")
	}
	if err := s.assessments.Update(ctx, a); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) ListAssessmentsByModule(ctx context.Context, moduleID uuid.UUID) ([]*Assessment, error) {
	items, err := s.assessments.ListByModule(ctx, moduleID, false)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return items, nil
}

// --- questions and options ---

func (s *Service) CreateQuestion(ctx context.Context, q *Question) error {
	if q.Prompt == "" {
		return apperr.Invalid("prompt is required")
	}
	if q.AssessmentID == uuid.Nil {
		return apperr.Invalid("assessment_id is required")
	}
	if !validQuestionTypes[q.Type] {
		return apperr.Invalidf("unknown question type %q", q.Type)
	}
	if q.Points < 0 {
		return apperr.Invalid("points must not be negative")
	}
	if _, err := s.assessments.GetByID(ctx, q.AssessmentID); err != nil {
		return apperr.NotFound("assessment not found")
	}
	if err := s.assessments.CreateQuestion(ctx, q); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) GetQuestion(ctx context.Context, id uuid.UUID) (*Question, error) {
	q, err := s.assessments.GetQuestion(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("question not found")
	}
	return q, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, q *Question) error {
	if q.ID == uuid.Nil {
		return apperr.Invalid("id is required")
	}
	if q.Prompt == "" {
		return apperr.Invalid("prompt is required")
	}
	if !validQuestionTypes[q.Type] {
		return apperr.Invalidf("unknown question type %q", q.Type)
	}
	if q.Points < 0 {
		return apperr.Invalid("points must not be negative")
	}
	if _, err := s.assessments.GetQuestion(ctx, q.ID); err != nil {
		return apperr.NotFound("question not found")
	}
	if err := s.assessments.UpdateQuestion(ctx, q); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	if err := s.assessments.DeleteQuestion(ctx, id); err != nil {
		return apperr.NotFound("question not found")
	}
	return nil
}

func (s *Service) ListQuestions(ctx context.Context, assessmentID uuid.UUID) ([]*Question, error) {
	items, err := s.assessments.ListQuestions(ctx, assessmentID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return items, nil
}

func (s *Service) CreateOption(ctx context.Context, o *QuestionOption) error {
	if o.Label == "" {
		return apperr.Invalid("label is required")
	}
	if o.QuestionID == uuid.Nil {
		return apperr.Invalid("question_id is required")
	}
	q, err := s.assessments.GetQuestion(ctx, o.QuestionID)
	if err != nil {
		return apperr.NotFound("question not found")
	}
	if !q.Type.IsChoice() {
		return apperr.Invalid("options are only valid on choice questions")
	}
	if err := s.assessments.CreateOption(ctx, o); err != nil {
		return apperr.Dependency(err, "store unavailable")
	}
	return nil
}

func (s *Service) DeleteOption(ctx context.Context, id uuid.UUID) error {
	if err := s.assessments.DeleteOption(ctx, id); err != nil {
		return apperr.NotFound("option not found")
	}
	return nil
}

func (s *Service) ListOptions(ctx context.Context, questionID uuid.UUID) ([]QuestionOption, error) {
	items, err := s.assessments.ListOptions(ctx, questionID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return items, nil
}

// ListOptionsForAssessment returns every option of the assessment keyed by
// question id, in one round trip.
func (s *Service) ListOptionsForAssessment(ctx context.Context, assessmentID uuid.UUID) (map[uuid.UUID][]QuestionOption, error) {
	out, err := s.assessments.ListOptionsForAssessment(ctx, assessmentID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return out, nil
}
