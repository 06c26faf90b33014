package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modes(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func testIdentities() []*Identity {
	return []*Identity{
		{
			IdentityID:     "ORCH-01",
			Class:          ClassSystemOrchestrator,
			PermittedModes: modes("ORCHESTRATION"),
			PermittedLanes: modes("ALL"),
			CanIssuePAC:    true,
			CanIssueBER:    true,
		},
		{
			IdentityID:     "GID-01",
			Class:          ClassAgent,
			PermittedModes: modes("EXECUTION"),
			PermittedLanes: modes("CORE"),
			CanIssueWRAP:   true,
		},
		{
			IdentityID:     "DRAFT-01",
			Class:          ClassDraftingSurface,
			PermittedModes: modes("ADVISORY"),
			PermittedLanes: modes("CORE"),
		},
	}
}

func TestNewRegistry_RequiresExactlyOneOrchestrator(t *testing.T) {
	idents := testIdentities()
	idents = append(idents, &Identity{IdentityID: "ORCH-02", Class: ClassSystemOrchestrator})

	_, err := NewRegistry(idents)
	assert.Error(t, err)

	_, err = NewRegistry([]*Identity{idents[1], idents[2]})
	assert.Error(t, err)
}

func TestNewRegistry_RejectsMalformedAgentID(t *testing.T) {
	idents := testIdentities()
	idents[1].IdentityID = "agent-one"

	_, err := NewRegistry(idents)
	assert.Error(t, err)
}

func TestNewRegistry_RejectsDraftingSurfaceAuthority(t *testing.T) {
	idents := testIdentities()
	idents[2].CanIssueBER = true

	_, err := NewRegistry(idents)
	assert.Error(t, err)
}

func TestRegistry_Resolve(t *testing.T) {
	reg, err := NewRegistry(testIdentities())
	require.NoError(t, err)

	ident, err := reg.Resolve("GID-01")
	require.NoError(t, err)
	assert.Equal(t, ClassAgent, ident.Class)

	_, err = reg.Resolve("GID-99")
	var unknown *UnknownIdentity
	assert.ErrorAs(t, err, &unknown)
}

func TestRegistry_ValidateIdentity(t *testing.T) {
	reg, err := NewRegistry(testIdentities())
	require.NoError(t, err)

	_, err = reg.ValidateIdentity("GID-01", "EXECUTION", "CORE")
	assert.NoError(t, err)

	_, err = reg.ValidateIdentity("GID-01", "ORCHESTRATION", "CORE")
	var modeErr *ModeNotPermitted
	assert.ErrorAs(t, err, &modeErr)

	_, err = reg.ValidateIdentity("GID-01", "EXECUTION", "EDGE")
	var laneErr *LaneNotPermitted
	assert.ErrorAs(t, err, &laneErr)
}

func TestRegistry_Orchestrator(t *testing.T) {
	reg, err := NewRegistry(testIdentities())
	require.NoError(t, err)

	orch := reg.Orchestrator()
	require.NotNil(t, orch)
	assert.Equal(t, "ORCH-01", orch.IdentityID)
}
