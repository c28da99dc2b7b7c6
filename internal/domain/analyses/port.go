package analyses

import (
	"context"

	"github.com/bryanwahyu/rootcause/internal/domain/tasks"
)

// Repository port (interface untuk persistence).
//
// Compound operations are transactional: the aggregate write and the
// revision/history append commit together or not at all. Updates are guarded
// with compare-and-swap on the freshly-read revision count or status; a losing
// concurrent writer gets ErrStaleState.
type Repository interface {
	// Create persists a new DRAFT analysis together with its initial
	// status-history entry.
	Create(ctx context.Context, a *Analysis, hist *StatusHistoryEntry) error

	// CreateWithTask persists a manager-created backing task and its analysis
	// atomically: either both rows exist afterwards, or neither.
	CreateWithTask(ctx context.Context, t *tasks.Task, a *Analysis, hist *StatusHistoryEntry) error

	Get(ctx context.Context, id AnalysisID) (*Analysis, error)

	// GetByTask returns the analysis backed by taskID, or ErrNotFound.
	GetByTask(ctx context.Context, taskID string) (*Analysis, error)

	// UpdateContent writes new content plus the revision snapshot in one
	// transaction, guarded by CAS on (id, expectedRevision).
	UpdateContent(ctx context.Context, a *Analysis, rev *Revision, expectedRevision int) error

	// UpdateStatus writes the new status plus the history entry in one
	// transaction, guarded by CAS on (id, expectedStatus).
	UpdateStatus(ctx context.Context, a *Analysis, hist *StatusHistoryEntry, expectedStatus Status) error

	Revisions(ctx context.Context, id AnalysisID) ([]*Revision, error)
	StatusHistory(ctx context.Context, id AnalysisID) ([]*StatusHistoryEntry, error)
}
