package catalog

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

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

// --- categories ---

type categoryRepoPG struct{ pool *pgxpool.Pool }

func NewCategoryRepoPG(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepoPG{pool: pool}
}

const categoryCols = `id, name, description, active, created_at, updated_at`

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *categoryRepoPG) Create(ctx context.Context, c *Category) error {
	c.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO categories (id, name, description, active)
		VALUES ($1,$2,$3,$4)`,
		c.ID, c.Name, c.Description, c.Active)
	return err
}

func (r *categoryRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	return scanCategory(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+categoryCols+` FROM categories WHERE id = $1`, id))
}

func (r *categoryRepoPG) Update(ctx context.Context, c *Category) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE categories SET name = $2, description = $3, active = $4, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Description, c.Active)
	return err
}

func (r *categoryRepoPG) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*Category, int, error) {
	q := conn(ctx, r.pool)
	where := `WHERE active`
	if includeInactive {
		where = ``
	}
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM categories `+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT `+categoryCols+` FROM categories `+where+`
		ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// --- treatment programs ---

type programRepoPG struct{ pool *pgxpool.Pool }

func NewProgramRepoPG(pool *pgxpool.Pool) ProgramRepository {
	return &programRepoPG{pool: pool}
}

const programCols = `id, category_id, name, description, duration_days, active, created_at, updated_at`

func scanProgram(row pgx.Row) (*TreatmentProgram, error) {
	var p TreatmentProgram
	err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.DurationDays,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *programRepoPG) Create(ctx context.Context, p *TreatmentProgram) error {
	p.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO treatment_programs (id, category_id, name, description, duration_days, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.CategoryID, p.Name, p.Description, p.DurationDays, p.Active)
	return err
}

func (r *programRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TreatmentProgram, error) {
	return scanProgram(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+programCols+` FROM treatment_programs WHERE id = $1`, id))
}

func (r *programRepoPG) Update(ctx context.Context, p *TreatmentProgram) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE treatment_programs
		SET category_id = $2, name = $3, description = $4, duration_days = $5, active = $6, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.CategoryID, p.Name, p.Description, p.DurationDays, p.Active)
	return err
}

func (r *programRepoPG) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*TreatmentProgram, int, error) {
	q := conn(ctx, r.pool)
	where := `WHERE active`
	if includeInactive {
		where = ``
	}
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM treatment_programs `+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `
		SELECT `+programCols+` FROM treatment_programs `+where+`
		ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*TreatmentProgram
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *programRepoPG) ListByCategory(ctx context.Context, categoryID uuid.UUID, activeOnly bool) ([]*TreatmentProgram, error) {
	sql := `SELECT ` + programCols + ` FROM treatment_programs WHERE category_id = $1`
	if activeOnly {
		sql += ` AND active`
	}
	sql += ` ORDER BY name`
	rows, err := conn(ctx, r.pool).Query(ctx, sql, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TreatmentProgram
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- learning modules ---

type moduleRepoPG struct{ pool *pgxpool.Pool }

func NewModuleRepoPG(pool *pgxpool.Pool) ModuleRepository {
	return &moduleRepoPG{pool: pool}
}

const moduleCols = `id, program_id, name, description, sequence, is_required, active, created_at, updated_at`

func scanModule(row pgx.Row) (*LearningModule, error) {
	var m LearningModule
	err := row.Scan(&m.ID, &m.ProgramID, &m.Name, &m.Description, &m.Sequence,
		&m.IsRequired, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *moduleRepoPG) Create(ctx context.Context, m *LearningModule) error {
	m.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO learning_modules (id, program_id, name, description, sequence, is_required, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.ProgramID, m.Name, m.Description, m.Sequence, m.IsRequired, m.Active)
	return err
}

func (r *moduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LearningModule, error) {
	return scanModule(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+moduleCols+` FROM learning_modules WHERE id = $1`, id))
}

func (r *moduleRepoPG) Update(ctx context.Context, m *LearningModule) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE learning_modules
		SET name = $2, description = $3, sequence = $4, is_required = $5, active = $6, updated_at = NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Description, m.Sequence, m.IsRequired, m.Active)
	return err
}

func (r *moduleRepoPG) ListByProgram(ctx context.Context, programID uuid.UUID, activeOnly bool) ([]*LearningModule, error) {
	sql := `SELECT ` + moduleCols + ` FROM learning_modules WHERE program_id = $1`
	if activeOnly {
		sql += ` AND active`
	}
	sql += ` ORDER BY sequence, name`
	rows, err := conn(ctx, r.pool).Query(ctx, sql, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LearningModule
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *moduleRepoPG) ContentCounts(ctx context.Context, moduleIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(moduleIDs))
	if len(moduleIDs) == 0 {
		return counts, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT module_id, COUNT(*) FROM content_items
		WHERE module_id = ANY($1)
		GROUP BY module_id`, moduleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// --- content items ---

type contentRepoPG struct{ pool *pgxpool.Pool }

func NewContentRepoPG(pool *pgxpool.Pool) ContentRepository {
	return &contentRepoPG{pool: pool}
}

const contentCols = `id, module_id, kind, title, sequence, payload, created_at, updated_at`

func scanContent(row pgx.Row) (*ContentItem, error) {
	var ci ContentItem
	err := row.Scan(&ci.ID, &ci.ModuleID, &ci.Kind, &ci.Title, &ci.Sequence,
		&ci.Payload, &ci.CreatedAt, &ci.UpdatedAt)
	return &ci, err
}

func (r *contentRepoPG) Create(ctx context.Context, ci *ContentItem) error {
	ci.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO content_items (id, module_id, kind, title, sequence, payload)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		ci.ID, ci.ModuleID, ci.Kind, ci.Title, ci.Sequence, ci.Payload)
	return err
}

func (r *contentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	return scanContent(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+contentCols+` FROM content_items WHERE id = $1`, id))
}

func (r *contentRepoPG) Update(ctx context.Context, ci *ContentItem) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE content_items
		SET kind = $2, title = $3, sequence = $4, payload = $5, updated_at = NOW()
		WHERE id = $1`,
		ci.ID, ci.Kind, ci.Title, ci.Sequence, ci.Payload)
	return err
}

func (r *contentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM content_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *contentRepoPG) ListByModule(ctx context.Context, moduleID uuid.UUID) ([]*ContentItem, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+contentCols+` FROM content_items
		WHERE module_id = $1 ORDER BY sequence, title`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ContentItem
	for rows.Next() {
		ci, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}

// --- assessments ---

type assessmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssessmentRepoPG(pool *pgxpool.Pool) AssessmentRepository {
	return &assessmentRepoPG{pool: pool}
}

const assessmentCols = `id, module_id, title, description, passing_score, active, created_at, updated_at`

func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	err := row.Scan(&a.ID, &a.ModuleID, &a.Title, &a.Description, &a.PassingScore,
		&a.Active, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *assessmentRepoPG) Create(ctx context.Context, a *Assessment) error {
	a.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO assessments (id, module_id, title, description, passing_score, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.ModuleID, a.Title, a.Description, a.PassingScore, a.Active)
	return err
}

func (r *assessmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	return scanAssessment(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+assessmentCols+` FROM assessments WHERE id = $1`, id))
}

func (r *assessmentRepoPG) Update(ctx context.Context, a *Assessment) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE assessments
		SET title = $2, description = $3, passing_score = $4, active = $5, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Title, a.Description, a.PassingScore, a.Active)
	return err
}

func (r *assessmentRepoPG) ListByModule(ctx context.Context, moduleID uuid.UUID, activeOnly bool) ([]*Assessment, error) {
	sql := `SELECT ` + assessmentCols + ` FROM assessments WHERE module_id = $1`
	if activeOnly {
		sql += ` AND active`
	}
	sql += ` ORDER BY title`
	rows, err := conn(ctx, r.pool).Query(ctx, sql, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const questionCols = `id, assessment_id, question_type, prompt, points, sequence, created_at, updated_at`

func scanQuestion(row pgx.Row) (*Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.AssessmentID, &q.Type, &q.Prompt, &q.Points, &q.Sequence,
		&q.CreatedAt, &q.UpdatedAt)
	return &q, err
}

func (r *assessmentRepoPG) CreateQuestion(ctx context.Context, q *Question) error {
	q.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO questions (id, assessment_id, question_type, prompt, points, sequence)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		q.ID, q.AssessmentID, q.Type, q.Prompt, q.Points, q.Sequence)
	return err
}

func (r *assessmentRepoPG) GetQuestion(ctx context.Context, id uuid.UUID) (*Question, error) {
	return scanQuestion(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+questionCols+` FROM questions WHERE id = $1`, id))
}

func (r *assessmentRepoPG) UpdateQuestion(ctx context.Context, q *Question) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE questions
		SET question_type = $2, prompt = $3, points = $4, sequence = $5, updated_at = NOW()
		WHERE id = $1`,
		q.ID, q.Type, q.Prompt, q.Points, q.Sequence)
	return err
}

func (r *assessmentRepoPG) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assessmentRepoPG) ListQuestions(ctx context.Context, assessmentID uuid.UUID) ([]*Question, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+questionCols+` FROM questions
		WHERE assessment_id = $1 ORDER BY sequence, created_at`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *assessmentRepoPG) CreateOption(ctx context.Context, o *QuestionOption) error {
	o.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO question_options (id, question_id, label, is_correct, sequence)
		VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.QuestionID, o.Label, o.IsCorrect, o.Sequence)
	return err
}

func (r *assessmentRepoPG) DeleteOption(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM question_options WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assessmentRepoPG) ListOptions(ctx context.Context, questionID uuid.UUID) ([]QuestionOption, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, question_id, label, is_correct, sequence FROM question_options
		WHERE question_id = $1 ORDER BY sequence`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QuestionOption
	for rows.Next() {
		var o QuestionOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.IsCorrect, &o.Sequence); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *assessmentRepoPG) ListOptionsForAssessment(ctx context.Context, assessmentID uuid.UUID) (map[uuid.UUID][]QuestionOption, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT o.id, o.question_id, o.label, o.is_correct, o.sequence
		FROM question_options o
		JOIN questions q ON q.id = o.question_id
		WHERE q.assessment_id = $1
		ORDER BY o.question_id, o.sequence`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]QuestionOption)
	for rows.Next() {
		var o QuestionOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.IsCorrect, &o.Sequence); err != nil {
			return nil, err
		}
		out[o.QuestionID] = append(out[o.QuestionID], o)
	}
	return out, rows.Err()
}
