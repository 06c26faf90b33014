package invariant

import (
	"testing"
	"time"

	"github.com/mindburn-labs/governor/core/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeFlags() ActivationFlags {
	return ActivationFlags{
		SchemaValidationEnabled:    true,
		InvariantRegistryLoaded:    true,
		FailClosedEnabled:          true,
		RuntimeAdmissionHookEnabled: true,
	}
}

func TestEvaluate_NotActivatedAlwaysFails(t *testing.T) {
	registry, err := NewRegistry(nil)
	require.NoError(t, err)

	e := NewEngine(registry, ActivationFlags{}, true)
	report := e.Evaluate(PACAdmission, "PAC-1", "PAC", EvalContext{})

	assert.Equal(t, ResultFail, report.Result)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "RUNTIME-001", report.Violations[0].InvariantID)
}

func TestEvaluate_EmptyRegistryPassesWhenActivated(t *testing.T) {
	registry, err := NewRegistry(nil)
	require.NoError(t, err)

	e := NewEngine(registry, activeFlags(), true)
	report := e.Evaluate(PACAdmission, "PAC-1", "PAC", EvalContext{})

	assert.Equal(t, ResultPass, report.Result)
	assert.Empty(t, report.Violations)
	assert.NotEmpty(t, report.ReportHash)
}

func TestEvaluate_StructuralFailure(t *testing.T) {
	def := Definition{
		ID:                         "S-INV-001",
		Class:                      ClassStructural,
		Name:                       "required fields present",
		ApplicableEnforcementPoints: []EnforcementPoint{PACAdmission},
		Severity:                   SeverityCritical,
		RequiredFields:             []string{"objective"},
	}
	registry, err := NewRegistry([]Definition{def})
	require.NoError(t, err)

	e := NewEngine(registry, activeFlags(), true)

	report := e.Evaluate(PACAdmission, "PAC-1", "PAC", EvalContext{Data: map[string]interface{}{}})
	assert.Equal(t, ResultFail, report.Result)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "S-INV-001", report.Violations[0].InvariantID)

	report = e.Evaluate(PACAdmission, "PAC-1", "PAC", EvalContext{Data: map[string]interface{}{"objective": "ship it"}})
	assert.Equal(t, ResultPass, report.Result)
}

func TestEvaluate_HardFailStopsAtFirstFailure(t *testing.T) {
	defs := []Definition{
		{ID: "A-001", Class: ClassStructural, ApplicableEnforcementPoints: []EnforcementPoint{PACAdmission}, Severity: SeverityCritical, RequiredFields: []string{"missing_one"}},
		{ID: "B-002", Class: ClassStructural, ApplicableEnforcementPoints: []EnforcementPoint{PACAdmission}, Severity: SeverityCritical, RequiredFields: []string{"missing_two"}},
	}
	registry, err := NewRegistry(defs)
	require.NoError(t, err)

	e := NewEngine(registry, activeFlags(), true)
	report := e.Evaluate(PACAdmission, "PAC-1", "PAC", EvalContext{Data: map[string]interface{}{}})

	assert.Equal(t, ResultFail, report.Result)
	assert.Len(t, report.Violations, 1)
	assert.Equal(t, "A-001", report.Violations[0].InvariantID)
}

func TestEvaluate_ReportModeCollectsAllFailures(t *testing.T) {
	defs := []Definition{
		{ID: "A-001", Class: ClassStructural, ApplicableEnforcementPoints: []EnforcementPoint{PACAdmission}, Severity: SeverityCritical, RequiredFields: []string{"missing_one"}},
		{ID: "B-002", Class: ClassStructural, ApplicableEnforcementPoints: []EnforcementPoint{PACAdmission}, Severity: SeverityCritical, RequiredFields: []string{"missing_two"}},
	}
	registry, err := NewRegistry(defs)
	require.NoError(t, err)

	e := NewEngine(registry, activeFlags(), false)
	report := e.Evaluate(PACAdmission, "PAC-1", "PAC", EvalContext{Data: map[string]interface{}{}})

	assert.Len(t, report.Violations, 2)
}

func TestEvaluate_EvaluatorPanicBecomesViolation(t *testing.T) {
	def := Definition{
		ID:                         "PANIC-001",
		Class:                      ClassSemantic,
		ApplicableEnforcementPoints: []EnforcementPoint{PACAdmission},
		Severity:                   SeverityCritical,
	}
	registry, err := NewRegistry([]Definition{def})
	require.NoError(t, err)

	e := NewEngine(registry, activeFlags(), true)
	classEvaluators[ClassSemantic] = func(ctx EvalContext, def Definition) (bool, string) {
		panic("boom")
	}
	defer func() { classEvaluators[ClassSemantic] = evaluateSemantic }()

	report := e.Evaluate(PACAdmission, "PAC-1", "PAC", EvalContext{})
	assert.Equal(t, ResultFail, report.Result)
	require.Len(t, report.Violations, 1)
	assert.Contains(t, report.Violations[0].Description, "panic")
}

func TestEvaluate_SemanticCELPredicate(t *testing.T) {
	def := Definition{
		ID:                         "M-INV-001",
		Class:                      ClassSemantic,
		ApplicableEnforcementPoints: []EnforcementPoint{RG01Evaluation},
		Severity:                   SeverityHigh,
		Expression:                 `input.execution_mode in ["PARALLEL", "SEQUENTIAL"]`,
	}
	registry, err := NewRegistry([]Definition{def})
	require.NoError(t, err)

	e := NewEngine(registry, activeFlags(), true)

	report := e.Evaluate(RG01Evaluation, "PAC-1", "PAC", EvalContext{Data: map[string]interface{}{"execution_mode": "PARALLEL"}})
	assert.Equal(t, ResultPass, report.Result)

	report = e.Evaluate(RG01Evaluation, "PAC-1", "PAC", EvalContext{Data: map[string]interface{}{"execution_mode": "BOGUS"}})
	assert.Equal(t, ResultFail, report.Result)
}

func TestAckBarrier_SatisfiedOnlyWhenAllRequiredAcked(t *testing.T) {
	b := NewAckBarrier()
	deadline := time.Now().Add(time.Minute)
	b.SetRequired("PAC-1", []string{"GID-01", "GID-02"}, deadline)

	assert.False(t, b.IsSatisfied("PAC-1"))

	require.NoError(t, b.RecordAck("PAC-1", "GID-01"))
	assert.False(t, b.IsSatisfied("PAC-1"))

	require.NoError(t, b.RecordAck("PAC-1", "GID-02"))
	assert.True(t, b.IsSatisfied("PAC-1"))
}

func TestAckBarrier_ExpiresPastDeadlineWhenUnsatisfied(t *testing.T) {
	b := NewAckBarrier()
	now := time.Now()
	b.SetRequired("PAC-1", []string{"GID-01"}, now.Add(time.Second))

	assert.False(t, b.Expired("PAC-1", now))
	assert.True(t, b.Expired("PAC-1", now.Add(2*time.Second)))

	require.NoError(t, b.RecordAck("PAC-1", "GID-01"))
	assert.False(t, b.Expired("PAC-1", now.Add(2*time.Second)))
}

func TestCheckpointTracker_EnforcesStrictOrder(t *testing.T) {
	tr := NewCheckpointTracker()
	require.NoError(t, tr.Complete("PAC-1", StagePACAdmission))
	require.NoError(t, tr.Complete("PAC-1", StageRuntimeActivation))

	err := tr.Complete("PAC-1", StageAgentExecution)
	var outOfOrder *OutOfOrderCheckpoint
	assert.ErrorAs(t, err, &outOfOrder)
	assert.Equal(t, StageRuntimeAckCollection, outOfOrder.Expected)

	require.NoError(t, tr.Complete("PAC-1", StageRuntimeAckCollection))
	assert.Equal(t, StageRuntimeAckCollection, tr.CurrentStage("PAC-1"))
}

func TestEvaluateAuthority_RejectsUnpermittedLane(t *testing.T) {
	def := Definition{
		ID:                         "A-INV-001",
		Class:                      ClassAuthority,
		ApplicableEnforcementPoints: []EnforcementPoint{AgentExecution},
		Severity:                   SeverityCritical,
	}
	registry, err := NewRegistry([]Definition{def})
	require.NoError(t, err)

	e := NewEngine(registry, activeFlags(), true)
	agent := &identity.Identity{IdentityID: "GID-01", Class: identity.ClassAgent, PermittedLanes: map[string]struct{}{"core": {}}}

	report := e.Evaluate(AgentExecution, "PAC-1", "PAC", EvalContext{Identity: agent, Lane: "restricted"})
	assert.Equal(t, ResultFail, report.Result)

	report = e.Evaluate(AgentExecution, "PAC-1", "PAC", EvalContext{Identity: agent, Lane: "core"})
	assert.Equal(t, ResultPass, report.Result)
}

type captureSink struct{ signals []TrainingSignal }

func (c *captureSink) Accept(s TrainingSignal) { c.signals = append(c.signals, s) }

func TestEngine_EmitsTrainingSignalsPerReportAndViolation(t *testing.T) {
	def := Definition{
		ID:                         "S-INV-002",
		Class:                      ClassStructural,
		ApplicableEnforcementPoints: []EnforcementPoint{PACAdmission},
		Severity:                   SeverityCritical,
		RequiredFields:             []string{"objective"},
	}
	registry, err := NewRegistry([]Definition{def})
	require.NoError(t, err)

	sink := &captureSink{}
	e := NewEngine(registry, activeFlags(), true)
	e.SetSignalSink(sink)

	e.Evaluate(PACAdmission, "PAC-1", "PAC", EvalContext{Data: map[string]interface{}{}})

	require.Len(t, sink.signals, 2)
	assert.Equal(t, SignalOverallResult, sink.signals[0].Kind)
	assert.False(t, sink.signals[0].Passed)
	assert.Equal(t, SignalViolation, sink.signals[1].Kind)
	assert.Equal(t, "S-INV-002", sink.signals[1].InvariantID)
}
