package tasks

import "context"

// Repository port, read-only from the engine's point of view. Task creation
// happens atomically with analysis creation through the analyses repository.
type Repository interface {
	Get(ctx context.Context, id TaskID) (*Task, error)
}
