package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/tasks"
)

// AnalysisRepository mirrors the MySQL implementation for Postgres deployments.
type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, task_id, employee_id, team_id, status, analysis_type,
       symptoms, signals, hypotheses, environment, timeline, dependencies, risk,
       readiness_score, manager_feedback, revision_count, created_at, updated_at`

func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis, hist *domain.StatusHistoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertAnalysis(ctx, tx, a); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, hist); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *AnalysisRepository) CreateWithTask(ctx context.Context, t *tasks.Task, a *domain.Analysis, hist *domain.StatusHistoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `INSERT INTO tasks (id, title, assignee_id, team_id, created_at) VALUES ($1,$2,$3,$4,$5);`
	if _, err := tx.ExecContext(ctx, q, t.ID, t.Title, t.AssigneeID, nullIfEmpty(t.TeamID), t.CreatedAt); err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	if err := insertAnalysis(ctx, tx, a); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, hist); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE id=$1 LIMIT 1;`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, id))
}

func (r *AnalysisRepository) GetByTask(ctx context.Context, taskID string) (*domain.Analysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE task_id=$1 LIMIT 1;`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, taskID))
}

func (r *AnalysisRepository) UpdateContent(ctx context.Context, a *domain.Analysis, rev *domain.Revision, expectedRevision int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cols, err := encodeContent(a)
	if err != nil {
		return err
	}
	const q = `
UPDATE analyses
SET symptoms=$1, signals=$2, hypotheses=$3, environment=$4, timeline=$5, dependencies=$6, risk=$7,
    readiness_score=$8, revision_count=$9, updated_at=$10
WHERE id=$11 AND revision_count=$12;
`
	res, err := tx.ExecContext(ctx, q,
		cols.symptoms, cols.signals, cols.hypotheses, cols.environment, cols.timeline, cols.dependencies, cols.risk,
		a.ReadinessScore, a.RevisionCount, a.UpdatedAt,
		a.ID, expectedRevision,
	)
	if err != nil {
		return err
	}
	if err := requireRow(ctx, tx, res, a.ID); err != nil {
		return err
	}

	revSymptoms, err := encodeJSON(rev.Symptoms)
	if err != nil {
		return err
	}
	revSignals, err := encodeJSON(rev.Signals)
	if err != nil {
		return err
	}
	revHypotheses, err := encodeJSON(rev.Hypotheses)
	if err != nil {
		return err
	}
	const rq = `
INSERT INTO analysis_revisions
  (analysis_id, revision_number, symptoms, signals, hypotheses, readiness_score, author_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);
`
	if _, err := tx.ExecContext(ctx, rq,
		rev.AnalysisID, rev.Number, revSymptoms, revSignals, revHypotheses,
		rev.ReadinessScore, rev.AuthorID, rev.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting revision: %w", err)
	}
	return tx.Commit()
}

func (r *AnalysisRepository) UpdateStatus(ctx context.Context, a *domain.Analysis, hist *domain.StatusHistoryEntry, expectedStatus domain.Status) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
UPDATE analyses
SET status=$1, readiness_score=$2, manager_feedback=$3, updated_at=$4
WHERE id=$5 AND status=$6;
`
	res, err := tx.ExecContext(ctx, q,
		a.Status, a.ReadinessScore, nullIfEmpty(a.ManagerFeedback), a.UpdatedAt,
		a.ID, expectedStatus,
	)
	if err != nil {
		return err
	}
	if err := requireRow(ctx, tx, res, a.ID); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, hist); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *AnalysisRepository) Revisions(ctx context.Context, id domain.AnalysisID) ([]*domain.Revision, error) {
	const q = `
SELECT analysis_id, revision_number, symptoms, signals, hypotheses, readiness_score, author_id, created_at
FROM analysis_revisions
WHERE analysis_id=$1
ORDER BY revision_number ASC;
`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Revision
	for rows.Next() {
		var rev domain.Revision
		var symptoms, signals, hypotheses sql.NullString
		if err := rows.Scan(&rev.AnalysisID, &rev.Number, &symptoms, &signals, &hypotheses,
			&rev.ReadinessScore, &rev.AuthorID, &rev.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeJSON(symptoms, &rev.Symptoms); err != nil {
			return nil, err
		}
		if err := decodeJSON(signals, &rev.Signals); err != nil {
			return nil, err
		}
		if err := decodeJSON(hypotheses, &rev.Hypotheses); err != nil {
			return nil, err
		}
		out = append(out, &rev)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) StatusHistory(ctx context.Context, id domain.AnalysisID) ([]*domain.StatusHistoryEntry, error) {
	const q = `
SELECT id, analysis_id, status, changed_by, changed_at, details
FROM analysis_status_history
WHERE analysis_id=$1
ORDER BY changed_at ASC, id ASC;
`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.StatusHistoryEntry
	for rows.Next() {
		var e domain.StatusHistoryEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.AnalysisID, &e.Status, &e.ChangedBy, &e.ChangedAt, &details); err != nil {
			return nil, err
		}
		e.Details = details.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

//
// ==== helpers ====
//

type contentColumns struct {
	symptoms, signals, hypotheses, environment, timeline, dependencies, risk any
}

func encodeContent(a *domain.Analysis) (contentColumns, error) {
	var c contentColumns
	var err error
	if c.symptoms, err = encodeJSON(a.Symptoms); err != nil {
		return c, err
	}
	if c.signals, err = encodeJSON(a.Signals); err != nil {
		return c, err
	}
	if c.hypotheses, err = encodeJSON(a.Hypotheses); err != nil {
		return c, err
	}
	if c.environment, err = encodeJSON(a.Environment); err != nil {
		return c, err
	}
	if c.timeline, err = encodeJSON(a.Timeline); err != nil {
		return c, err
	}
	if c.dependencies, err = encodeJSON(a.Dependencies); err != nil {
		return c, err
	}
	if c.risk, err = encodeJSON(a.Risk); err != nil {
		return c, err
	}
	return c, nil
}

func encodeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding json column: %w", err)
	}
	if string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

func decodeJSON(raw sql.NullString, out any) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), out); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func insertAnalysis(ctx context.Context, tx *sql.Tx, a *domain.Analysis) error {
	cols, err := encodeContent(a)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO analyses
  (id, task_id, employee_id, team_id, status, analysis_type,
   symptoms, signals, hypotheses, environment, timeline, dependencies, risk,
   readiness_score, manager_feedback, revision_count, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18);
`
	_, err = tx.ExecContext(ctx, q,
		a.ID, a.TaskID, a.EmployeeID, nullIfEmpty(a.TeamID), a.Status, a.Type,
		cols.symptoms, cols.signals, cols.hypotheses, cols.environment, cols.timeline, cols.dependencies, cols.risk,
		a.ReadinessScore, nullIfEmpty(a.ManagerFeedback), a.RevisionCount, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting analysis: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, e *domain.StatusHistoryEntry) error {
	const q = `
INSERT INTO analysis_status_history (id, analysis_id, status, changed_by, changed_at, details)
VALUES ($1,$2,$3,$4,$5,$6);
`
	if _, err := tx.ExecContext(ctx, q, e.ID, e.AnalysisID, e.Status, e.ChangedBy, e.ChangedAt, nullIfEmpty(e.Details)); err != nil {
		return fmt.Errorf("inserting status history: %w", err)
	}
	return nil
}

func requireRow(ctx context.Context, tx *sql.Tx, res sql.Result, id domain.AnalysisID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM analyses WHERE id=$1 LIMIT 1;`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: analysis %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	return domain.ErrStaleState
}

func scanAnalysis(row *sql.Row) (*domain.Analysis, error) {
	var a domain.Analysis
	var teamID, feedback sql.NullString
	var symptoms, signals, hypotheses, environment, timeline, dependencies, risk sql.NullString
	err := row.Scan(
		&a.ID, &a.TaskID, &a.EmployeeID, &teamID, &a.Status, &a.Type,
		&symptoms, &signals, &hypotheses, &environment, &timeline, &dependencies, &risk,
		&a.ReadinessScore, &feedback, &a.RevisionCount, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.TeamID = teamID.String
	a.ManagerFeedback = feedback.String
	if err := decodeJSON(symptoms, &a.Symptoms); err != nil {
		return nil, err
	}
	if err := decodeJSON(signals, &a.Signals); err != nil {
		return nil, err
	}
	if err := decodeJSON(hypotheses, &a.Hypotheses); err != nil {
		return nil, err
	}
	if err := decodeJSON(environment, &a.Environment); err != nil {
		return nil, err
	}
	if err := decodeJSON(timeline, &a.Timeline); err != nil {
		return nil, err
	}
	if err := decodeJSON(dependencies, &a.Dependencies); err != nil {
		return nil, err
	}
	if err := decodeJSON(risk, &a.Risk); err != nil {
		return nil, err
	}
	return &a, nil
}
