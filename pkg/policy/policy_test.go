package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestEvaluate_ReviewAdvisoryNoWriteOrAuthorityTools covers P7: for any
// (mode, lane) with mode in REVIEW/ADVISORY, the allowed tool set contains
// no write or authority tools.
func TestEvaluate_ReviewAdvisoryNoWriteOrAuthorityTools(t *testing.T) {
	forbidden := toSet(append(append([]string{}, authorityTools...), writeTools...))

	for _, mode := range []Mode{ModeReview, ModeAdvisory} {
		for _, lane := range []string{"CORE", "EDGE", LaneAll, "UNKNOWN"} {
			decision := Evaluate(string(mode), lane)
			for _, tool := range decision.AllowedTools {
				_, denied := forbidden[tool]
				assert.Falsef(t, denied, "mode=%s lane=%s allowed forbidden tool %q", mode, lane, tool)
			}
		}
	}
}

func TestEvaluate_OrchestrationHasAuthorityTools(t *testing.T) {
	decision := Evaluate(string(ModeOrchestration), LaneAll)
	assert.Contains(t, decision.AllowedTools, "issue_ber")
	assert.Nil(t, decision.PathPrefixes)
}

func TestEvaluate_UnknownLaneIsFailClosed(t *testing.T) {
	decision := Evaluate(string(ModeExecution), "NOT-A-LANE")
	assert.NotNil(t, decision.PathPrefixes)
	assert.Empty(t, decision.PathPrefixes)
}

func TestEvaluate_UnknownModeIsMostRestrictive(t *testing.T) {
	decision := Evaluate("NOT-A-MODE", LaneAll)
	assert.Equal(t, []string{"read_file"}, decision.AllowedTools)
}

// TestStrip_Idempotent covers L3: strip(strip(tools, m, l), m, l) ==
// strip(tools, m, l).
func TestStrip_Idempotent(t *testing.T) {
	tools := []string{"write_file", "read_file", "issue_ber", "unknown_tool", "list_files"}

	once := Strip(tools, string(ModeExecution), "CORE")
	twice := Strip(once, string(ModeExecution), "CORE")

	assert.Equal(t, once, twice)
}

func TestStrip_PreservesOrder(t *testing.T) {
	tools := []string{"list_files", "write_file", "read_file"}
	out := Strip(tools, string(ModeExecution), "CORE")
	assert.Equal(t, []string{"list_files", "write_file", "read_file"}, out)
}

func TestAssertTool_DeniesUnknownTool(t *testing.T) {
	err := AssertTool("nonexistent_tool", string(ModeOrchestration), LaneAll)
	assert.Error(t, err)
}

func TestAssertTool_AllowsKnownAllowedTool(t *testing.T) {
	err := AssertTool("issue_ber", string(ModeOrchestration), LaneAll)
	assert.NoError(t, err)
}

func TestAssertPath(t *testing.T) {
	assert.NoError(t, AssertPath("/core/file.go", "CORE"))
	assert.Error(t, AssertPath("/edge/file.go", "CORE"))
	assert.NoError(t, AssertPath("/anything", LaneAll))
}
