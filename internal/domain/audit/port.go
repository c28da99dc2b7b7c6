package audit

import "context"

// Recorder is the append-only audit sink. Entries are never updated or deleted.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*Entry, error)
}
