package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bryanwahyu/rootcause/internal/domain/audit"
)

// AuditRepository is the append-only forensic log. Rows are never updated or
// deleted.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, e *audit.Entry) error {
	changes, err := encodeJSON(e.Changes)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO audit_log (id, entity_type, entity_id, action, actor_id, changes, created_at)
VALUES (?,?,?,?,?,?,?);
`
	if _, err := r.db.ExecContext(ctx, q, e.ID, e.EntityType, e.EntityID, e.Action, e.ActorID, changes, e.CreatedAt); err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// ListByEntity returns entries newest first.
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, entity_type, entity_id, action, actor_id, changes, created_at
FROM audit_log
WHERE entity_type=? AND entity_id=?
ORDER BY created_at DESC, id DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*audit.Entry
	for rows.Next() {
		var e audit.Entry
		var changes sql.NullString
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.ActorID, &changes, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeJSON(changes, &e.Changes); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
