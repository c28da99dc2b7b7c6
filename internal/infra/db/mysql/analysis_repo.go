package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/tasks"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, task_id, employee_id, team_id, status, analysis_type,
       symptoms, signals, hypotheses, environment, timeline, dependencies, risk,
       readiness_score, manager_feedback, revision_count, created_at, updated_at`

// Create inserts a new analysis plus its initial history entry in one tx.
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

// CreateWithTask inserts the backing task and the analysis atomically.
func (r *AnalysisRepository) CreateWithTask(ctx context.Context, t *tasks.Task, a *domain.Analysis, hist *domain.StatusHistoryEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
INSERT INTO tasks (id, title, assignee_id, team_id, created_at)
VALUES (?,?,?,?,?);
`
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
	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE id=? LIMIT 1;`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, id))
}

func (r *AnalysisRepository) GetByTask(ctx context.Context, taskID string) (*domain.Analysis, error) {
	q := `SELECT ` + analysisColumns + ` FROM analyses WHERE task_id=? LIMIT 1;`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, taskID))
}

// UpdateContent writes content + the revision snapshot in one tx, CAS-guarded
// on the previous revision count.
func (r *AnalysisRepository) UpdateContent(ctx context.Context, a *domain.Analysis, rev *domain.Revision, expectedRevision int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	symptoms, err := encodeJSON(a.Symptoms)
	if err != nil {
		return err
	}
	signals, err := encodeJSON(a.Signals)
	if err != nil {
		return err
	}
	hypotheses, err := encodeJSON(a.Hypotheses)
	if err != nil {
		return err
	}
	environment, err := encodeJSON(a.Environment)
	if err != nil {
		return err
	}
	timeline, err := encodeJSON(a.Timeline)
	if err != nil {
		return err
	}
	dependencies, err := encodeJSON(a.Dependencies)
	if err != nil {
		return err
	}
	risk, err := encodeJSON(a.Risk)
	if err != nil {
		return err
	}

	const q = `
UPDATE analyses
SET symptoms=?, signals=?, hypotheses=?, environment=?, timeline=?, dependencies=?, risk=?,
    readiness_score=?, revision_count=?, updated_at=?
WHERE id=? AND revision_count=?;
`
	res, err := tx.ExecContext(ctx, q,
		symptoms, signals, hypotheses, environment, timeline, dependencies, risk,
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
VALUES (?,?,?,?,?,?,?,?);
`
	if _, err := tx.ExecContext(ctx, rq,
		rev.AnalysisID, rev.Number, revSymptoms, revSignals, revHypotheses,
		rev.ReadinessScore, rev.AuthorID, rev.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting revision: %w", err)
	}
	return tx.Commit()
}

// UpdateStatus writes the transition + the history entry in one tx,
// CAS-guarded on the previous status.
func (r *AnalysisRepository) UpdateStatus(ctx context.Context, a *domain.Analysis, hist *domain.StatusHistoryEntry, expectedStatus domain.Status) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
UPDATE analyses
SET status=?, readiness_score=?, manager_feedback=?, updated_at=?
WHERE id=? AND status=?;
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

// Revisions returns all snapshots ordered by revision number.
func (r *AnalysisRepository) Revisions(ctx context.Context, id domain.AnalysisID) ([]*domain.Revision, error) {
	const q = `
SELECT analysis_id, revision_number, symptoms, signals, hypotheses, readiness_score, author_id, created_at
FROM analysis_revisions
WHERE analysis_id=?
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

// StatusHistory returns transition entries oldest first.
func (r *AnalysisRepository) StatusHistory(ctx context.Context, id domain.AnalysisID) ([]*domain.StatusHistoryEntry, error) {
	const q = `
SELECT id, analysis_id, status, changed_by, changed_at, details
FROM analysis_status_history
WHERE analysis_id=?
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
// ==== shared statement helpers ====
//

func insertAnalysis(ctx context.Context, tx *sql.Tx, a *domain.Analysis) error {
	symptoms, err := encodeJSON(a.Symptoms)
	if err != nil {
		return err
	}
	signals, err := encodeJSON(a.Signals)
	if err != nil {
		return err
	}
	hypotheses, err := encodeJSON(a.Hypotheses)
	if err != nil {
		return err
	}
	environment, err := encodeJSON(a.Environment)
	if err != nil {
		return err
	}
	timeline, err := encodeJSON(a.Timeline)
	if err != nil {
		return err
	}
	dependencies, err := encodeJSON(a.Dependencies)
	if err != nil {
		return err
	}
	risk, err := encodeJSON(a.Risk)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO analyses
  (id, task_id, employee_id, team_id, status, analysis_type,
   symptoms, signals, hypotheses, environment, timeline, dependencies, risk,
   readiness_score, manager_feedback, revision_count, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);
`
	_, err = tx.ExecContext(ctx, q,
		a.ID, a.TaskID, a.EmployeeID, nullIfEmpty(a.TeamID), a.Status, a.Type,
		symptoms, signals, hypotheses, environment, timeline, dependencies, risk,
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
VALUES (?,?,?,?,?,?);
`
	if _, err := tx.ExecContext(ctx, q, e.ID, e.AnalysisID, e.Status, e.ChangedBy, e.ChangedAt, nullIfEmpty(e.Details)); err != nil {
		return fmt.Errorf("inserting status history: %w", err)
	}
	return nil
}

// requireRow distinguishes a lost CAS race from a missing aggregate.
func requireRow(ctx context.Context, tx *sql.Tx, res sql.Result, id domain.AnalysisID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM analyses WHERE id=? LIMIT 1;`, id).Scan(&exists)
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
