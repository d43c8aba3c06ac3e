package progress

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

const progressCols = `id, enrollment_id, module_id, status, first_accessed_at, completed_at, time_spent_seconds`

func scanProgress(row pgx.Row) (*ModuleProgress, error) {
	var mp ModuleProgress
	err := row.Scan(&mp.ID, &mp.EnrollmentID, &mp.ModuleID, &mp.Status,
		&mp.FirstAccessedAt, &mp.CompletedAt, &mp.TimeSpentSeconds)
	return &mp, err
}

func (r *repoPG) Create(ctx context.Context, mp *ModuleProgress) error {
	mp.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO module_progress (id, enrollment_id, module_id, status, first_accessed_at, time_spent_seconds)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		mp.ID, mp.EnrollmentID, mp.ModuleID, mp.Status, mp.FirstAccessedAt, mp.TimeSpentSeconds)
	return err
}

func (r *repoPG) Get(ctx context.Context, enrollmentID, moduleID uuid.UUID) (*ModuleProgress, error) {
	mp, err := scanProgress(r.conn(ctx).QueryRow(ctx, `
		SELECT `+progressCols+` FROM module_progress
		WHERE enrollment_id = $1 AND module_id = $2`, enrollmentID, moduleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mp, nil
}

func (r *repoPG) Update(ctx context.Context, mp *ModuleProgress) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE module_progress SET status = $2, completed_at = $3, time_spent_seconds = $4
		WHERE id = $1`,
		mp.ID, mp.Status, mp.CompletedAt, mp.TimeSpentSeconds)
	return err
}

func (r *repoPG) ListByEnrollment(ctx context.Context, enrollmentID uuid.UUID) ([]*ModuleProgress, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+progressCols+` FROM module_progress
		WHERE enrollment_id = $1 ORDER BY first_accessed_at`, enrollmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ModuleProgress
	for rows.Next() {
		mp, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mp)
	}
	return out, rows.Err()
}
