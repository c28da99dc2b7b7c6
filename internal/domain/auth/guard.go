package auth

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
)

// Guard composes the three capability checks. Every engine operation evaluates
// exactly one composed predicate here before touching storage.
type Guard struct {
	dir Directory
}

func NewGuard(dir Directory) *Guard {
	return &Guard{dir: dir}
}

// RequireRole checks the static policy table only.
func (g *Guard) RequireRole(actor Actor, op Operation) error {
	if !RoleAllows(actor.Role, op) {
		return fmt.Errorf("%w: role %s may not %s", analyses.ErrDenied, actor.Role, op)
	}
	return nil
}

// RequireOwner checks role plus aggregate ownership.
func (g *Guard) RequireOwner(actor Actor, op Operation, a *analyses.Analysis) error {
	if err := g.RequireRole(actor, op); err != nil {
		return err
	}
	if actor.ID != a.EmployeeID {
		return fmt.Errorf("%w: actor %s does not own analysis %s", analyses.ErrDenied, actor.ID, a.ID)
	}
	return nil
}

// RequireManagerOf checks role plus the manager-of-employee relation.
func (g *Guard) RequireManagerOf(ctx context.Context, actor Actor, op Operation, employeeID string) error {
	if err := g.RequireRole(actor, op); err != nil {
		return err
	}
	manages, err := g.dir.ManagerOf(ctx, actor.ID, employeeID)
	if err != nil {
		return fmt.Errorf("checking team ownership: %w", err)
	}
	if !manages {
		return fmt.Errorf("%w: actor %s does not manage employee %s", analyses.ErrDenied, actor.ID, employeeID)
	}
	return nil
}

// RequireMember checks that employeeID belongs to teamID.
func (g *Guard) RequireMember(ctx context.Context, teamID, employeeID string) error {
	member, err := g.dir.Member(ctx, teamID, employeeID)
	if err != nil {
		return fmt.Errorf("checking team membership: %w", err)
	}
	if !member {
		return fmt.Errorf("%w: employee %s is not a member of team %s", analyses.ErrDenied, employeeID, teamID)
	}
	return nil
}

// RequireOwnerOrManager is the shared rule for reads, AI generation and report
// generation: the owning employee, or a manager who manages the owner.
func (g *Guard) RequireOwnerOrManager(ctx context.Context, actor Actor, op Operation, a *analyses.Analysis) error {
	if err := g.RequireRole(actor, op); err != nil {
		return err
	}
	if actor.Role == RoleEmployee {
		if actor.ID != a.EmployeeID {
			return fmt.Errorf("%w: actor %s does not own analysis %s", analyses.ErrDenied, actor.ID, a.ID)
		}
		return nil
	}
	manages, err := g.dir.ManagerOf(ctx, actor.ID, a.EmployeeID)
	if err != nil {
		return fmt.Errorf("checking team ownership: %w", err)
	}
	if !manages {
		return fmt.Errorf("%w: actor %s does not manage employee %s", analyses.ErrDenied, actor.ID, a.EmployeeID)
	}
	return nil
}
