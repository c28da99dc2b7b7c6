package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
	"github.com/bryanwahyu/rootcause/internal/domain/tasks"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Get(ctx context.Context, id tasks.TaskID) (*tasks.Task, error) {
	const q = `SELECT id, title, assignee_id, team_id, created_at FROM tasks WHERE id=$1 LIMIT 1;`
	var t tasks.Task
	var teamID sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Title, &t.AssigneeID, &teamID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", analyses.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	t.TeamID = teamID.String
	return &t, nil
}
