package invariant

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mindburn-labs/governor/core/pkg/canonicalize"
)

// ActivationFlags are the four runtime preconditions the engine checks
// before any evaluation. They are written once at activation and read
// thereafter (§5 "Shared-resource policy").
type ActivationFlags struct {
	SchemaValidationEnabled    bool
	InvariantRegistryLoaded    bool
	FailClosedEnabled          bool
	RuntimeAdmissionHookEnabled bool
}

func (f ActivationFlags) missing() []string {
	var m []string
	if !f.SchemaValidationEnabled {
		m = append(m, "schema_validation_enabled")
	}
	if !f.InvariantRegistryLoaded {
		m = append(m, "invariant_registry_loaded")
	}
	if !f.FailClosedEnabled {
		m = append(m, "fail_closed_enabled")
	}
	if !f.RuntimeAdmissionHookEnabled {
		m = append(m, "runtime_admission_hook_enabled")
	}
	return m
}

// Engine evaluates the invariant registry at enforcement points, gated by
// runtime activation, the ack barrier, and the checkpoint sequence.
type Engine struct {
	registry    *Registry
	flags       ActivationFlags
	hardFail    bool
	ackBarrier  *AckBarrier
	checkpoints *CheckpointTracker
	sink        SignalSink
	now         func() time.Time
}

// NewEngine constructs an engine around a fixed registry. hardFail selects
// fail-fast (stop at first violation) vs report mode (collect all).
func NewEngine(registry *Registry, flags ActivationFlags, hardFail bool) *Engine {
	return &Engine{
		registry:    registry,
		flags:       flags,
		hardFail:    hardFail,
		ackBarrier:  NewAckBarrier(),
		checkpoints: NewCheckpointTracker(),
		now:         time.Now,
	}
}

// AckBarrier exposes the engine's ack barrier for the orchestrator to
// record acknowledgements against.
func (e *Engine) AckBarrier() *AckBarrier { return e.ackBarrier }

// Checkpoints exposes the engine's checkpoint tracker.
func (e *Engine) Checkpoints() *CheckpointTracker { return e.checkpoints }

// SetSignalSink attaches a downstream training-signal collector. Leaving
// this nil means signals are produced and discarded.
func (e *Engine) SetSignalSink(sink SignalSink) { e.sink = sink }

// Evaluate runs every invariant applicable at ep against ctx. Before
// activation it always returns a FAIL report carrying a single fabricated
// RUNTIME-001 violation — never PASS by default.
func (e *Engine) Evaluate(ep EnforcementPoint, artifactID, artifactType string, ctx EvalContext) *EvaluationReport {
	started := e.now()

	if missing := e.flags.missing(); len(missing) > 0 {
		return e.finalize(&EvaluationReport{
			ReportID:         uuid.NewString(),
			EnforcementPoint: ep,
			ArtifactID:       artifactID,
			ArtifactType:     artifactType,
			Result:           ResultFail,
			Violations: []Violation{{
				InvariantID:      "RUNTIME-001",
				Class:            ClassStructural,
				EnforcementPoint: ep,
				ArtifactID:       artifactID,
				Description:      fmt.Sprintf("runtime not activated: missing %v", missing),
				DetectedAt:       started,
			}},
			StartedAt: started,
		})
	}

	applicable := e.registry.ApplicableAt(ep)
	sort.Slice(applicable, func(i, j int) bool { return applicable[i].ID < applicable[j].ID })

	var violations []Violation
	evaluated := make([]string, 0, len(applicable))

	for _, def := range applicable {
		evaluated = append(evaluated, def.ID)

		passed, reason := e.runEvaluator(def, ctx)
		if !passed {
			violations = append(violations, Violation{
				InvariantID:      def.ID,
				Class:            def.Class,
				EnforcementPoint: ep,
				ArtifactID:       artifactID,
				Description:      reason,
				DetectedAt:       e.now(),
			})
			if e.hardFail {
				break
			}
		}
	}

	result := ResultPass
	if len(violations) > 0 {
		result = ResultFail
	}

	report := &EvaluationReport{
		ReportID:            uuid.NewString(),
		EnforcementPoint:    ep,
		ArtifactID:          artifactID,
		ArtifactType:        artifactType,
		Result:              result,
		Violations:          violations,
		InvariantsEvaluated: evaluated,
		StartedAt:           started,
	}
	return e.finalize(report)
}

// runEvaluator dispatches def to its class evaluator, recovering any panic
// as a violation (§4.6 rule 5: fail-closed, no silent success).
func (e *Engine) runEvaluator(def Definition, ctx EvalContext) (passed bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			passed = false
			reason = fmt.Sprintf("evaluator panic: %v", r)
		}
	}()

	fn, ok := classEvaluators[def.Class]
	if !ok {
		return false, fmt.Sprintf("no evaluator registered for class %s", def.Class)
	}
	return fn(ctx, def)
}

func (e *Engine) finalize(report *EvaluationReport) *EvaluationReport {
	report.CompletedAt = e.now()
	report.Duration = report.CompletedAt.Sub(report.StartedAt)

	hash, err := canonicalize.CanonicalHash(reportForHashing(report))
	if err == nil {
		report.ReportHash = hash
	}

	e.emitSignals(report)
	return report
}

func reportForHashing(r *EvaluationReport) map[string]interface{} {
	return map[string]interface{}{
		"report_id":            r.ReportID,
		"enforcement_point":    string(r.EnforcementPoint),
		"artifact_id":          r.ArtifactID,
		"artifact_type":        r.ArtifactType,
		"result":               string(r.Result),
		"invariants_evaluated": r.InvariantsEvaluated,
		"violation_count":      len(r.Violations),
	}
}

func (e *Engine) emitSignals(report *EvaluationReport) {
	if e.sink == nil {
		return
	}
	e.sink.Accept(TrainingSignal{
		ReportID: report.ReportID,
		Kind:     SignalOverallResult,
		Passed:   report.Result == ResultPass,
	})
	for _, v := range report.Violations {
		e.sink.Accept(TrainingSignal{
			ReportID:    report.ReportID,
			Kind:        SignalViolation,
			InvariantID: v.InvariantID,
			Passed:      false,
		})
	}
}
