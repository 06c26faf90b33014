package pdo

import (
	"testing"
	"time"

	"github.com/mindburn-labs/governor/core/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orchestrator() *identity.Identity {
	return &identity.Identity{IdentityID: "ORCH-01", Class: identity.ClassSystemOrchestrator}
}

func agent() *identity.Identity {
	return &identity.Identity{IdentityID: "GID-01", Class: identity.ClassAgent}
}

func TestConstruct_RejectionOrder(t *testing.T) {
	now := time.Now()

	// Invalid outcome status is checked before authority or completeness.
	_, err := Construct("", "", nil, "", nil, "BOGUS", nil, now, now, now)
	var invalidOutcome *InvalidOutcome
	assert.ErrorAs(t, err, &invalidOutcome)

	// Valid outcome but wrong issuer: authority error, not completeness.
	_, err = Construct("", "", nil, "", nil, OutcomeAccepted, agent(), now, now, now)
	var authErr *PDOAuthorityError
	assert.ErrorAs(t, err, &authErr)

	// Valid outcome, correct issuer class, but incomplete inputs.
	_, err = Construct("", "", nil, "", nil, OutcomeAccepted, orchestrator(), now, now, now)
	var incomplete *PDOIncomplete
	assert.ErrorAs(t, err, &incomplete)
}

func TestConstruct_Success(t *testing.T) {
	now := time.Now()
	wrapPayload := map[string]interface{}{"status": "COMPLETE"}
	berPayload := map[string]interface{}{"decision": "APPROVE"}

	p, err := Construct("PAC-001", "WRAP-001", wrapPayload, "BER-001", berPayload, OutcomeAccepted, orchestrator(), now, now, now)
	require.NoError(t, err)
	assert.Equal(t, "ORCH-01", p.Issuer)
	assert.NotEmpty(t, p.PdoHash)
	assert.True(t, Verify(p, wrapPayload, berPayload))
	assert.True(t, VerifyChain(p))
}

// TestVerify_SingleBitMutation covers L2.
func TestVerify_SingleBitMutation(t *testing.T) {
	now := time.Now()
	wrapPayload := map[string]interface{}{"status": "COMPLETE"}
	berPayload := map[string]interface{}{"decision": "APPROVE"}

	p, err := Construct("PAC-001", "WRAP-001", wrapPayload, "BER-001", berPayload, OutcomeAccepted, orchestrator(), now, now, now)
	require.NoError(t, err)

	mutatedWrap := map[string]interface{}{"status": "COMPLETEX"}
	assert.False(t, Verify(p, mutatedWrap, berPayload))

	mutatedBer := map[string]interface{}{"decision": "APPROVEX"}
	assert.False(t, Verify(p, wrapPayload, mutatedBer))
}

func TestConstruct_NonOrchestratorIssuerAlwaysRejected(t *testing.T) {
	now := time.Now()
	_, err := Construct("PAC-001", "WRAP-001", map[string]interface{}{"a": 1}, "BER-001", map[string]interface{}{"b": 1}, OutcomeAccepted, agent(), now, now, now)
	var authErr *PDOAuthorityError
	assert.ErrorAs(t, err, &authErr)
}
