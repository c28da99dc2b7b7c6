package tasks

import "time"

// TaskID identifier type
type TaskID string

// Task is the originating unit of work an analysis is written against.
type Task struct {
	ID         TaskID    `json:"id"`
	Title      string    `json:"title"`
	AssigneeID string    `json:"assignee_id"`
	TeamID     string    `json:"team_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
