package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CategoryRepository persists categories.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	Update(ctx context.Context, c *Category) error
	List(ctx context.Context, includeInactive bool, limit, offset int) ([]*Category, int, error)
}

// ProgramRepository persists treatment programs.
type ProgramRepository interface {
	Create(ctx context.Context, p *TreatmentProgram) error
	GetByID(ctx context.Context, id uuid.UUID) (*TreatmentProgram, error)
	Update(ctx context.Context, p *TreatmentProgram) error
	List(ctx context.Context, includeInactive bool, limit, offset int) ([]*TreatmentProgram, int, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, activeOnly bool) ([]*TreatmentProgram, error)
}

// ModuleRepository persists learning modules and their content.
type ModuleRepository interface {
	Create(ctx context.Context, m *LearningModule) error
	GetByID(ctx context.Context, id uuid.UUID) (*LearningModule, error)
	Update(ctx context.Context, m *LearningModule) error
	ListByProgram(ctx context.Context, programID uuid.UUID, activeOnly bool) ([]*LearningModule, error)
	// ContentCounts returns the number of content items per module for the
	// given modules in a single query.
	ContentCounts(ctx context.Context, moduleIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// ContentRepository persists content items.
type ContentRepository interface {
	Create(ctx context.Context, ci *ContentItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	Update(ctx context.Context, ci *ContentItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByModule(ctx context.Context, moduleID uuid.UUID) ([]*ContentItem, error)
}

// AssessmentRepository persists assessments, questions and options.
type AssessmentRepository interface {
	Create(ctx context.Context, a *Assessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error)
	Update(ctx context.Context, a *Assessment) error
	ListByModule(ctx context.Context, moduleID uuid.UUID, activeOnly bool) ([]*Assessment, error)

	CreateQuestion(ctx context.Context, q *Question) error
	GetQuestion(ctx context.Context, id uuid.UUID) (*Question, error)
	UpdateQuestion(ctx context.Context, q *Question) error
	DeleteQuestion(ctx context.Context, id uuid.UUID) error
	ListQuestions(ctx context.Context, assessmentID uuid.UUID) ([]*Question, error)

	CreateOption(ctx context.Context, o *QuestionOption) error
	DeleteOption(ctx context.Context, id uuid.UUID) error
	ListOptions(ctx context.Context, questionID uuid.UUID) ([]QuestionOption, error)
	// ListOptionsForAssessment returns options for every question of the
	// assessment keyed by question id.
	ListOptionsForAssessment(ctx context.Context, assessmentID uuid.UUID) (map[uuid.UUID][]QuestionOption, error)
}
