package postgres

import (
	"context"
	"database/sql"
)

// TeamDirectory answers the read-only team-membership questions the
// authorization guard asks.
type TeamDirectory struct {
	db *sql.DB
}

func NewTeamDirectory(db *sql.DB) *TeamDirectory {
	return &TeamDirectory{db: db}
}

// ManagerOf reports whether employeeID belongs to any team managed by managerID.
func (d *TeamDirectory) ManagerOf(ctx context.Context, managerID, employeeID string) (bool, error) {
	const q = `
SELECT COUNT(*)
FROM teams t
JOIN team_members m ON m.team_id = t.id
WHERE t.manager_id=$1 AND m.employee_id=$2;
`
	var n int
	if err := d.db.QueryRowContext(ctx, q, managerID, employeeID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Member reports whether employeeID is on teamID.
func (d *TeamDirectory) Member(ctx context.Context, teamID, employeeID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM team_members WHERE team_id=$1 AND employee_id=$2;`
	var n int
	if err := d.db.QueryRowContext(ctx, q, teamID, employeeID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
