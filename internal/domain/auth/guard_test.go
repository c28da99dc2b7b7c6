package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
)

// fakeDirectory answers membership questions from fixed maps.
type fakeDirectory struct {
	managers map[string][]string // managerID -> employees they manage
	teams    map[string][]string // teamID -> members
}

func (d *fakeDirectory) ManagerOf(_ context.Context, managerID, employeeID string) (bool, error) {
	for _, e := range d.managers[managerID] {
		if e == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) Member(_ context.Context, teamID, employeeID string) (bool, error) {
	for _, e := range d.teams[teamID] {
		if e == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func testGuard() *Guard {
	return NewGuard(&fakeDirectory{
		managers: map[string][]string{"mgr-1": {"emp-1", "emp-2"}},
		teams:    map[string][]string{"team-1": {"emp-1"}},
	})
}

func TestRequireRole(t *testing.T) {
	g := testGuard()

	assert.NoError(t, g.RequireRole(Actor{ID: "emp-1", Role: RoleEmployee}, OpCreateAnalysis))
	assert.NoError(t, g.RequireRole(Actor{ID: "mgr-1", Role: RoleManager}, OpReview))

	err := g.RequireRole(Actor{ID: "emp-1", Role: RoleEmployee}, OpReview)
	assert.ErrorIs(t, err, analyses.ErrDenied)

	err = g.RequireRole(Actor{ID: "mgr-1", Role: RoleManager}, OpCreateAnalysis)
	assert.ErrorIs(t, err, analyses.ErrDenied)
}

func TestRequireRoleOwnerDeniedEverything(t *testing.T) {
	g := testGuard()
	owner := Actor{ID: "own-1", Role: RoleOwner}
	for _, op := range []Operation{
		OpCreateAnalysis, OpCreateAssigned, OpUpdateContent, OpSubmit, OpReview,
		OpRead, OpGenerateHypotheses, OpGenerateReportDraft, OpReviewAiOutput, OpGenerateReport,
	} {
		assert.ErrorIs(t, g.RequireRole(owner, op), analyses.ErrDenied, string(op))
	}
}

func TestRequireOwner(t *testing.T) {
	g := testGuard()
	a := &analyses.Analysis{ID: "a-1", EmployeeID: "emp-1"}

	require.NoError(t, g.RequireOwner(Actor{ID: "emp-1", Role: RoleEmployee}, OpUpdateContent, a))

	err := g.RequireOwner(Actor{ID: "emp-2", Role: RoleEmployee}, OpUpdateContent, a)
	assert.ErrorIs(t, err, analyses.ErrDenied)
}

func TestRequireManagerOf(t *testing.T) {
	g := testGuard()
	ctx := context.Background()

	require.NoError(t, g.RequireManagerOf(ctx, Actor{ID: "mgr-1", Role: RoleManager}, OpReview, "emp-1"))

	err := g.RequireManagerOf(ctx, Actor{ID: "mgr-2", Role: RoleManager}, OpReview, "emp-1")
	assert.ErrorIs(t, err, analyses.ErrDenied)
}

func TestRequireMember(t *testing.T) {
	g := testGuard()
	ctx := context.Background()

	require.NoError(t, g.RequireMember(ctx, "team-1", "emp-1"))
	assert.ErrorIs(t, g.RequireMember(ctx, "team-1", "emp-2"), analyses.ErrDenied)
}

func TestRequireOwnerOrManager(t *testing.T) {
	g := testGuard()
	ctx := context.Background()
	a := &analyses.Analysis{ID: "a-1", EmployeeID: "emp-1"}

	assert.NoError(t, g.RequireOwnerOrManager(ctx, Actor{ID: "emp-1", Role: RoleEmployee}, OpRead, a))
	assert.NoError(t, g.RequireOwnerOrManager(ctx, Actor{ID: "mgr-1", Role: RoleManager}, OpRead, a))

	// Another employee, even a teammate, has no access.
	err := g.RequireOwnerOrManager(ctx, Actor{ID: "emp-2", Role: RoleEmployee}, OpRead, a)
	assert.ErrorIs(t, err, analyses.ErrDenied)

	// A manager of a different team has no access.
	err = g.RequireOwnerOrManager(ctx, Actor{ID: "mgr-2", Role: RoleManager}, OpRead, a)
	assert.ErrorIs(t, err, analyses.ErrDenied)
}
