package auth

import "context"

// Directory is the read-only team-membership view used for authorization.
type Directory interface {
	// ManagerOf reports whether employeeID belongs to a team whose manager
	// is managerID.
	ManagerOf(ctx context.Context, managerID, employeeID string) (bool, error)

	// Member reports whether employeeID is a member of teamID.
	Member(ctx context.Context, teamID, employeeID string) (bool, error)
}
