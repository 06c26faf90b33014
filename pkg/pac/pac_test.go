package pac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPAC() *PAC {
	return &PAC{
		PacID:          "PAC-ALPHA-EXEC-CORE-TEST-001",
		Issuer:         "ORCH-01",
		TargetIdentity: "GID-01",
		Mode:           "EXECUTION",
		Discipline:     "ENGINEERING",

		Objective:            "ship the thing",
		ExecutionPlan:        "do the work",
		RequiredDeliverables: []string{"a.py"},
		Constraints:          []string{"no_network"},
		SuccessCriteria:      []string{"tests pass"},
		Dispatch: Dispatch{
			TargetIdentity: "GID-01",
			Role:           "executor",
			Lane:           "CORE",
			Mode:           "EXECUTION",
		},
		WrapObligation: "required",
		BerObligation:  "required",
		FinalState:     "CLOSED",
	}
}

func TestValidate_ValidPAC(t *testing.T) {
	result := Validate(validPAC())
	assert.True(t, result.Valid)
	assert.Empty(t, result.MissingSections)
}

func TestValidate_MissingBerObligation(t *testing.T) {
	p := validPAC()
	p.BerObligation = ""

	result := Validate(p)
	assert.False(t, result.Valid)
	assert.Contains(t, result.MissingSections, SectionBerObligation)

	_, err := ValidateAndRaise(p)
	var missing *MissingBERObligation
	assert.ErrorAs(t, err, &missing)
}

func TestValidate_MissingWrapObligationTakesPrecedence(t *testing.T) {
	p := validPAC()
	p.WrapObligation = ""
	p.BerObligation = ""
	p.FinalState = ""

	_, err := ValidateAndRaise(p)
	var missing *MissingWRAPObligation
	assert.ErrorAs(t, err, &missing)
}

func TestValidate_MissingFinalState(t *testing.T) {
	p := validPAC()
	p.FinalState = ""

	_, err := ValidateAndRaise(p)
	var missing *MissingFinalState
	assert.ErrorAs(t, err, &missing)
}

// TestValidate_PacIDBoundary covers B1: just outside the pattern is
// rejected, just inside is accepted.
func TestValidate_PacIDBoundary(t *testing.T) {
	p := validPAC()
	p.PacID = "PAC-ALPHA-EXEC-CORE-TEST-001"
	assert.True(t, Validate(p).Valid)

	p.PacID = "PAC-ALPHA-EXEC-CORE-TEST-01" // two digits, not three
	result := Validate(p)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, (&InvalidPACID{PacID: p.PacID}).Error())
}

func TestParseCanonicalText(t *testing.T) {
	text := `{
		"pac_id": "PAC-ALPHA-EXEC-CORE-TEST-001",
		"issuer": "ORCH-01",
		"target_identity": "GID-01",
		"mode": "EXECUTION",
		"discipline": "ENGINEERING",
		"objective": "ship",
		"execution_plan": "plan",
		"required_deliverables": ["a.py"],
		"constraints": ["none"],
		"success_criteria": ["pass"],
		"dispatch": {"target_identity": "GID-01", "role": "executor", "lane": "CORE", "mode": "EXECUTION"},
		"wrap_obligation": "required",
		"ber_obligation": "required",
		"final_state": "CLOSED"
	}`

	p, err := ParseCanonicalText([]byte(text))
	require.NoError(t, err)
	assert.True(t, Validate(p).Valid)
}

func TestParseCanonicalText_RejectsMissingDispatchField(t *testing.T) {
	text := `{
		"pac_id": "PAC-ALPHA-EXEC-CORE-TEST-001",
		"issuer": "ORCH-01",
		"target_identity": "GID-01",
		"mode": "EXECUTION",
		"discipline": "ENGINEERING",
		"objective": "ship",
		"execution_plan": "plan",
		"required_deliverables": ["a.py"],
		"constraints": ["none"],
		"success_criteria": ["pass"],
		"dispatch": {"target_identity": "GID-01", "role": "executor", "lane": "CORE"},
		"wrap_obligation": "required",
		"ber_obligation": "required",
		"final_state": "CLOSED"
	}`

	_, err := ParseCanonicalText([]byte(text))
	assert.Error(t, err)
}
