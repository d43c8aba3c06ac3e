package assessment

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rehab/rehab/internal/domain/catalog"
	"github.com/rehab/rehab/internal/platform/apperr"
)

// Service grades submitted attempts. Grading is best effort: an answer the
// grader cannot score is logged and skipped so one bad question never blocks
// the rest of the attempt.
type Service struct {
	attempts Repository
	catalog  Catalog
	gate     Gate
}

func NewService(attempts Repository, cat Catalog, gate Gate) *Service {
	return &Service{attempts: attempts, catalog: cat, gate: gate}
}

func (s *Service) gatedAssessment(ctx context.Context, patientID, assessmentID uuid.UUID) (*catalog.Assessment, uuid.UUID, error) {
	asm, err := s.catalog.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !asm.Active {
		return nil, uuid.Nil, apperr.NotFound("assessment not found")
	}
	m, err := s.catalog.GetModule(ctx, asm.ModuleID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	e, err := s.gate.ActiveEnrollment(ctx, patientID, m.ProgramID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return asm, e.ID, nil
}

// OptionView is a question option with the answer key stripped.
type OptionView struct {
	ID       uuid.UUID `json:"id"`
	Label    string    `json:"label"`
	Sequence int       `json:"sequence"`
}

// QuestionView is a question as presented to a patient.
type QuestionView struct {
	ID       uuid.UUID            `json:"id"`
	Type     catalog.QuestionType `json:"question_type"`
	Prompt   string               `json:"prompt"`
	Points   int                  `json:"points"`
	Sequence int                  `json:"sequence"`
	Options  []OptionView         `json:"options,omitempty"`
}

// Questions returns the assessment's questions for an enrolled patient, with
// correctness flags removed.
func (s *Service) Questions(ctx context.Context, patientID, assessmentID uuid.UUID) ([]QuestionView, error) {
	if _, _, err := s.gatedAssessment(ctx, patientID, assessmentID); err != nil {
		return nil, err
	}
	questions, err := s.catalog.ListQuestions(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	options, err := s.catalog.ListOptionsForAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	out := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		v := QuestionView{ID: q.ID, Type: q.Type, Prompt: q.Prompt, Points: q.Points, Sequence: q.Sequence}
		for _, o := range options[q.ID] {
			v.Options = append(v.Options, OptionView{ID: o.ID, Label: o.Label, Sequence: o.Sequence})
		}
		out = append(out, v)
	}
	return out, nil
}

// Result is a graded attempt together with its stored responses.
type Result struct {
	Attempt   *Attempt    `json:"attempt"`
	Responses []*Response `json:"responses"`
}

// SubmitAttempt stores and grades one attempt. The attempt row is written
// before any response so partial writes stay attributable, and the score is
// stamped last. There is no wrapping transaction.
func (s *Service) SubmitAttempt(ctx context.Context, patientID, assessmentID uuid.UUID, answers []Answer) (*Result, error) {
	if len(answers) == 0 {
		return nil, apperr.Invalid("at least one answer is required")
	}
	asm, enrollmentID, err := s.gatedAssessment(ctx, patientID, assessmentID)
	if err != nil {
		return nil, err
	}
	questions, err := s.catalog.ListQuestions(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	options, err := s.catalog.ListOptionsForAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*catalog.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	// Every question's points count toward the total, text questions
	// included: their answers wait for clinician review and earn nothing
	// automatically. Choice questions without exactly one correct option are
	// flagged and dropped from grading entirely.
	correctByQuestion := make(map[uuid.UUID]uuid.UUID)
	totalPoints := 0
	for _, q := range questions {
		if !q.Type.IsChoice() {
			totalPoints += q.Points
			continue
		}
		correct, err := catalog.CorrectOption(options[q.ID])
		if err != nil {
			log.Warn().
				Str("assessment_id", assessmentID.String()).
				Str("question_id", q.ID.String()).
				Err(err).
				Msg("question excluded from grading")
			continue
		}
		correctByQuestion[q.ID] = correct.ID
		totalPoints += q.Points
	}

	attempt := &Attempt{
		AssessmentID: assessmentID,
		EnrollmentID: enrollmentID,
		PatientID:    patientID,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}

	earned := 0
	answered := make(map[uuid.UUID]bool, len(answers))
	var responses []*Response
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			log.Warn().
				Str("attempt_id", attempt.ID.String()).
				Str("question_id", ans.QuestionID.String()).
				Msg("answer skipped, question not in assessment")
			continue
		}
		if answered[q.ID] {
			log.Warn().
				Str("attempt_id", attempt.ID.String()).
				Str("question_id", q.ID.String()).
				Msg("duplicate answer skipped")
			continue
		}
		answered[q.ID] = true

		resp := &Response{
			AttemptID:        attempt.ID,
			QuestionID:       q.ID,
			SelectedOptionID: ans.SelectedOptionID,
			ResponseText:     ans.ResponseText,
		}
		if q.Type.IsChoice() {
			correctID, gradeable := correctByQuestion[q.ID]
			if !gradeable {
				// Answers to flagged questions are dropped: storing them with
				// nil correctness would make them look like pending text
				// reviews.
				log.Warn().
					Str("attempt_id", attempt.ID.String()).
					Str("question_id", q.ID.String()).
					Msg("answer skipped, question excluded from grading")
				continue
			}
			correct := ans.SelectedOptionID != nil && *ans.SelectedOptionID == correctID
			resp.IsCorrect = &correct
			if correct {
				resp.PointsAwarded = q.Points
				earned += q.Points
			}
		}
		if err := s.attempts.CreateResponse(ctx, resp); err != nil {
			return nil, apperr.Dependency(err, "store unavailable")
		}
		responses = append(responses, resp)
	}

	divisor := totalPoints
	if divisor < 1 {
		divisor = 1
	}
	now := time.Now().UTC()
	attempt.Score = int(math.Round(float64(earned) / float64(divisor) * 100))
	attempt.Passed = attempt.Score >= asm.PassingScore
	attempt.GradedAt = &now
	if err := s.attempts.UpdateAttempt(ctx, attempt); err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return &Result{Attempt: attempt, Responses: responses}, nil
}

// ListAttempts returns the patient's own attempts at the assessment, newest
// first.
func (s *Service) ListAttempts(ctx context.Context, patientID, assessmentID uuid.UUID) ([]*Attempt, error) {
	if _, _, err := s.gatedAssessment(ctx, patientID, assessmentID); err != nil {
		return nil, err
	}
	items, err := s.attempts.ListAttempts(ctx, assessmentID, patientID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return items, nil
}

// GetAttempt returns one of the patient's attempts with its responses.
// Another patient's attempt is reported as missing, not forbidden, so attempt
// ids cannot be probed.
func (s *Service) GetAttempt(ctx context.Context, patientID, attemptID uuid.UUID) (*Result, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, apperr.NotFound("attempt not found")
	}
	if attempt.PatientID != patientID {
		return nil, apperr.NotFound("attempt not found")
	}
	responses, err := s.attempts.ListResponses(ctx, attemptID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return &Result{Attempt: attempt, Responses: responses}, nil
}

// GetAttemptForReview returns any attempt with its responses, without an
// ownership check. Callers restrict it to staff.
func (s *Service) GetAttemptForReview(ctx context.Context, attemptID uuid.UUID) (*Result, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, apperr.NotFound("attempt not found")
	}
	responses, err := s.attempts.ListResponses(ctx, attemptID)
	if err != nil {
		return nil, apperr.Dependency(err, "store unavailable")
	}
	return &Result{Attempt: attempt, Responses: responses}, nil
}
