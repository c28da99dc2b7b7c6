package aioutputs

import (
	"context"
	"encoding/json"
)

// Repository port for persisting and reviewing generated outputs.
type Repository interface {
	Save(ctx context.Context, o *AiOutput) error
	Get(ctx context.Context, id OutputID) (*AiOutput, error)
	ListByAnalysis(ctx context.Context, analysisID string) ([]*AiOutput, error)

	// UpdateStatus moves the review status, optionally replacing the payload
	// (EDITED only). Guarded by CAS on the current status.
	UpdateStatus(ctx context.Context, id OutputID, expected, next ReviewStatus, payload json.RawMessage) error
}
