package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category maps to the categories table. A category groups the programs a
// patient is eligible to see.
type Category struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TreatmentProgram maps to the treatment_programs table.
type TreatmentProgram struct {
	ID           uuid.UUID `db:"id" json:"id"`
	CategoryID   uuid.UUID `db:"category_id" json:"category_id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	DurationDays *int      `db:"duration_days" json:"duration_days,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LearningModule maps to the learning_modules table. Only required modules
// count toward program completion.
type LearningModule struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ProgramID   uuid.UUID `db:"program_id" json:"program_id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Sequence    int       `db:"sequence" json:"sequence"`
	IsRequired  bool      `db:"is_required" json:"is_required"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ContentKind discriminates the content_items payload union.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentVideo    ContentKind = "video"
	ContentDocument ContentKind = "document"
	ContentLink     ContentKind = "link"
)

var validContentKinds = map[ContentKind]bool{
	ContentText: true, ContentVideo: true, ContentDocument: true, ContentLink: true,
}

// ContentItem maps to the content_items table. Payload holds the kind-specific
// fields; DecodePayload checks it against the schema for Kind so malformed
// stored content fails at read time.
type ContentItem struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	ModuleID  uuid.UUID       `db:"module_id" json:"module_id"`
	Kind      ContentKind     `db:"kind" json:"kind"`
	Title     string          `db:"title" json:"title"`
	Sequence  int             `db:"sequence" json:"sequence"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

type TextContent struct {
	Body string `json:"body"`
}

type VideoContent struct {
	URL             string `json:"url"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

type DocumentContent struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type,omitempty"`
}

type LinkContent struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

func strictDecode(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// DecodePayload returns the typed payload for the item's kind. Unknown kinds,
// unknown fields, and missing required fields are errors.
func (ci *ContentItem) DecodePayload() (interface{}, error) {
	switch ci.Kind {
	case ContentText:
		var p TextContent
		if err := strictDecode(ci.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode text payload for %s: %w", ci.ID, err)
		}
		if p.Body == "" {
			return nil, fmt.Errorf("text payload for %s: body is required", ci.ID)
		}
		return p, nil
	case ContentVideo:
		var p VideoContent
		if err := strictDecode(ci.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode video payload for %s: %w", ci.ID, err)
		}
		if p.URL == "" {
			return nil, fmt.Errorf("video payload for %s: url is required", ci.ID)
		}
		return p, nil
	case ContentDocument:
		var p DocumentContent
		if err := strictDecode(ci.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode document payload for %s: %w", ci.ID, err)
		}
		if p.URL == "" {
			return nil, fmt.Errorf("document payload for %s: url is required", ci.ID)
		}
		return p, nil
	case ContentLink:
		var p LinkContent
		if err := strictDecode(ci.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode link payload for %s: %w", ci.ID, err)
		}
		if p.URL == "" {
			return nil, fmt.Errorf("link payload for %s: url is required", ci.ID)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown content kind %q for %s", ci.Kind, ci.ID)
}

// QuestionType discriminates how a question is answered and graded.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionTextResponse   QuestionType = "text_response"
)

var validQuestionTypes = map[QuestionType]bool{
	QuestionMultipleChoice: true, QuestionTrueFalse: true, QuestionTextResponse: true,
}

// IsChoice reports whether the type is auto-graded against options.
func (t QuestionType) IsChoice() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

// Assessment maps to the assessments table.
type Assessment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ModuleID     uuid.UUID `db:"module_id" json:"module_id"`
	Title        string    `db:"title" json:"title"`
	Description  *string   `db:"description" json:"description,omitempty"`
	PassingScore int       `db:"passing_score" json:"passing_score"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Question maps to the questions table.
type Question struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	AssessmentID uuid.UUID    `db:"assessment_id" json:"assessment_id"`
	Type         QuestionType `db:"question_type" json:"question_type"`
	Prompt       string       `db:"prompt" json:"prompt"`
	Points       int          `db:"points" json:"points"`
	Sequence     int          `db:"sequence" json:"sequence"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// QuestionOption maps to the question_options table.
type QuestionOption struct {
	ID         uuid.UUID `db:"id" json:"id"`
	QuestionID uuid.UUID `db:"question_id" json:"question_id"`
	Label      string    `db:"label" json:"label"`
	IsCorrect  bool      `db:"is_correct" json:"is_correct"`
	Sequence   int       `db:"sequence" json:"sequence"`
}

var (
	ErrNoCorrectOption       = errors.New("question has no correct option")
	ErrMultipleCorrectOption = errors.New("question has multiple correct options")
)

// CorrectOption returns the single correct option among options. Zero or more
// than one correct option is a misconfigured question and is reported rather
// than silently picking a match.
func CorrectOption(options []QuestionOption) (*QuestionOption, error) {
	var found *QuestionOption
	for i := range options {
		if options[i].IsCorrect {
			if found != nil {
				return nil, ErrMultipleCorrectOption
			}
			found = &options[i]
		}
	}
	if found == nil {
		return nil, ErrNoCorrectOption
	}
	return found, nil
}
