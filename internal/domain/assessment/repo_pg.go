package assessment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rehab/rehab/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const attemptCols = `id, assessment_id, enrollment_id, patient_id, score, passed, submitted_at, graded_at`

func scanAttempt(row pgx.Row) (*Attempt, error) {
	var a Attempt
	err := row.Scan(&a.ID, &a.AssessmentID, &a.EnrollmentID, &a.PatientID,
		&a.Score, &a.Passed, &a.SubmittedAt, &a.GradedAt)
	return &a, err
}

func (r *repoPG) CreateAttempt(ctx context.Context, a *Attempt) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assessment_attempts (id, assessment_id, enrollment_id, patient_id, score, passed, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.AssessmentID, a.EnrollmentID, a.PatientID, a.Score, a.Passed, a.SubmittedAt)
	return err
}

func (r *repoPG) UpdateAttempt(ctx context.Context, a *Attempt) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE assessment_attempts SET score = $2, passed = $3, graded_at = $4
		WHERE id = $1 AND graded_at IS NULL`,
		a.ID, a.Score, a.Passed, a.GradedAt)
	return err
}

func (r *repoPG) GetAttempt(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	return scanAttempt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+attemptCols+` FROM assessment_attempts WHERE id = $1`, id))
}

func (r *repoPG) ListAttempts(ctx context.Context, assessmentID, patientID uuid.UUID) ([]*Attempt, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+attemptCols+` FROM assessment_attempts
		WHERE assessment_id = $1 AND patient_id = $2
		ORDER BY submitted_at DESC`, assessmentID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repoPG) CreateResponse(ctx context.Context, resp *Response) error {
	resp.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO question_responses (id, attempt_id, question_id, selected_option_id, response_text, is_correct, points_awarded)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		resp.ID, resp.AttemptID, resp.QuestionID, resp.SelectedOptionID,
		resp.ResponseText, resp.IsCorrect, resp.PointsAwarded)
	return err
}

func (r *repoPG) ListResponses(ctx context.Context, attemptID uuid.UUID) ([]*Response, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, attempt_id, question_id, selected_option_id, response_text, is_correct, points_awarded
		FROM question_responses WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Response
	for rows.Next() {
		var resp Response
		if err := rows.Scan(&resp.ID, &resp.AttemptID, &resp.QuestionID, &resp.SelectedOptionID,
			&resp.ResponseText, &resp.IsCorrect, &resp.PointsAwarded); err != nil {
			return nil, err
		}
		out = append(out, &resp)
	}
	return out, rows.Err()
}
