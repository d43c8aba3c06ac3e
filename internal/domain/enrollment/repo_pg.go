package enrollment

import (
	"context"
	"errors"

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const enrollmentCols = `id, patient_id, program_id, status, enrolled_at, started_at, expected_end_at, completed_at, dropped_at`

func scanEnrollment(row pgx.Row) (*Enrollment, error) {
	var e Enrollment
	err := row.Scan(&e.ID, &e.PatientID, &e.ProgramID, &e.Status, &e.EnrolledAt,
		&e.StartedAt, &e.ExpectedEndAt, &e.CompletedAt, &e.DroppedAt)
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Enrollment) error {
	e.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patient_enrollments (id, patient_id, program_id, status, enrolled_at, expected_end_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.PatientID, e.ProgramID, e.Status, e.EnrolledAt, e.ExpectedEndAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Enrollment, error) {
	return scanEnrollment(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+enrollmentCols+` FROM patient_enrollments WHERE id = $1`, id))
}

func (r *repoPG) GetActive(ctx context.Context, patientID, programID uuid.UUID) (*Enrollment, error) {
	e, err := scanEnrollment(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+enrollmentCols+` FROM patient_enrollments
		WHERE patient_id = $1 AND program_id = $2 AND status <> 'dropped'`,
		patientID, programID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *repoPG) Update(ctx context.Context, e *Enrollment) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE patient_enrollments
		SET status = $2, started_at = $3, completed_at = $4, dropped_at = $5
		WHERE id = $1`,
		e.ID, e.Status, e.StartedAt, e.CompletedAt, e.DroppedAt)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, includeDropped bool) ([]*Enrollment, error) {
	sql := `SELECT ` + enrollmentCols + ` FROM patient_enrollments WHERE patient_id = $1`
	if !includeDropped {
		sql += ` AND status <> 'dropped'`
	}
	sql += ` ORDER BY enrolled_at DESC`
	rows, err := conn(ctx, r.pool).Query(ctx, sql, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repoPG) ListByProgram(ctx context.Context, programID uuid.UUID, limit, offset int) ([]*Enrollment, int, error) {
	q := conn(ctx, r.pool)
	var total int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM patient_enrollments
		WHERE program_id = $1 AND status <> 'dropped'`, programID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT `+enrollmentCols+` FROM patient_enrollments
		WHERE program_id = $1 AND status <> 'dropped'
		ORDER BY enrolled_at DESC LIMIT $2 OFFSET $3`, programID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

type categoryAssignmentRepoPG struct{ pool *pgxpool.Pool }

func NewCategoryAssignmentRepoPG(pool *pgxpool.Pool) CategoryAssignmentRepository {
	return &categoryAssignmentRepoPG{pool: pool}
}

func (r *categoryAssignmentRepoPG) Assign(ctx context.Context, patientID, categoryID uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patient_categories (patient_id, category_id, assigned_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (patient_id) DO UPDATE
		SET category_id = EXCLUDED.category_id, assigned_at = NOW()`,
		patientID, categoryID)
	return err
}

func (r *categoryAssignmentRepoPG) Get(ctx context.Context, patientID uuid.UUID) (*PatientCategory, error) {
	var pc PatientCategory
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT patient_id, category_id, assigned_at FROM patient_categories
		WHERE patient_id = $1`, patientID).
		Scan(&pc.PatientID, &pc.CategoryID, &pc.AssignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pc, nil
}
