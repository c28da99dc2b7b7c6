package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bryanwahyu/rootcause/internal/domain/aioutputs"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
)

type AiOutputRepository struct {
	db *sql.DB
}

func NewAiOutputRepository(db *sql.DB) *AiOutputRepository {
	return &AiOutputRepository{db: db}
}

// Save inserts a generated output record
func (r *AiOutputRepository) Save(ctx context.Context, o *aioutputs.AiOutput) error {
	const q = `
INSERT INTO ai_outputs (id, analysis_id, output_type, generated_by, status, payload, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);
`
	_, err := r.db.ExecContext(ctx, q, o.ID, o.AnalysisID, o.Type, o.GeneratedBy, o.Status, []byte(o.Payload), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting ai output: %w", err)
	}
	return nil
}

func (r *AiOutputRepository) Get(ctx context.Context, id aioutputs.OutputID) (*aioutputs.AiOutput, error) {
	const q = `
SELECT id, analysis_id, output_type, generated_by, status, payload, created_at
FROM ai_outputs WHERE id=$1 LIMIT 1;
`
	var o aioutputs.AiOutput
	var payload []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&o.ID, &o.AnalysisID, &o.Type, &o.GeneratedBy, &o.Status, &payload, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ai output %s", analyses.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	o.Payload = json.RawMessage(payload)
	return &o, nil
}

// ListByAnalysis returns outputs newest first.
func (r *AiOutputRepository) ListByAnalysis(ctx context.Context, analysisID string) ([]*aioutputs.AiOutput, error) {
	const q = `
SELECT id, analysis_id, output_type, generated_by, status, payload, created_at
FROM ai_outputs WHERE analysis_id=$1
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*aioutputs.AiOutput
	for rows.Next() {
		var o aioutputs.AiOutput
		var payload []byte
		if err := rows.Scan(&o.ID, &o.AnalysisID, &o.Type, &o.GeneratedBy, &o.Status, &payload, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Payload = json.RawMessage(payload)
		out = append(out, &o)
	}
	return out, rows.Err()
}

// UpdateStatus moves the review status with CAS on the current one. The
// payload is replaced only when provided (EDITED).
func (r *AiOutputRepository) UpdateStatus(ctx context.Context, id aioutputs.OutputID, expected, next aioutputs.ReviewStatus, payload json.RawMessage) error {
	var res sql.Result
	var err error
	if payload != nil {
		const q = `UPDATE ai_outputs SET status=$1, payload=$2 WHERE id=$3 AND status=$4;`
		res, err = r.db.ExecContext(ctx, q, next, []byte(payload), id, expected)
	} else {
		const q = `UPDATE ai_outputs SET status=$1 WHERE id=$2 AND status=$3;`
		res, err = r.db.ExecContext(ctx, q, next, id, expected)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM ai_outputs WHERE id=$1 LIMIT 1;`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: ai output %s", analyses.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return analyses.ErrStaleState
	}
	return nil
}
