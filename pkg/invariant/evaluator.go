package invariant

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// classEvaluator is the signature every class dispatches to. It returns
// (passed, reason) — reason is only meaningful when passed is false.
type classEvaluator func(ctx EvalContext, def Definition) (bool, string)

var classEvaluators = map[Class]classEvaluator{
	ClassStructural:    evaluateStructural,
	ClassSemantic:      evaluateSemantic,
	ClassCrossArtifact: evaluateCrossArtifact,
	ClassTemporal:      evaluateTemporal,
	ClassAuthority:     evaluateAuthority,
	ClassFinality:      evaluateFinality,
	ClassTraining:      evaluateTraining,
	ClassPlatform:      evaluatePlatform,
}

// evaluateStructural checks that every field named in RequiredFields is
// present in the context data and non-empty.
func evaluateStructural(ctx EvalContext, def Definition) (bool, string) {
	for _, name := range def.RequiredFields {
		v, ok := ctx.field(name)
		if !ok || isEmpty(v) {
			return false, fmt.Sprintf("required field %q missing or empty", name)
		}
	}
	return true, ""
}

// evaluateSemantic compiles and evaluates def.Expression as a CEL boolean
// predicate over the context data, bound as the variable "input" (e.g.
// "input.execution_mode in ['PARALLEL', 'SEQUENTIAL']"); "known_ids" is
// bound as well.
func evaluateSemantic(ctx EvalContext, def Definition) (bool, string) {
	return evalCELPredicate(ctx, def)
}

// evaluateCrossArtifact also compiles def.Expression as CEL, with the same
// bindings as evaluateSemantic: "input" for the context data and
// "known_ids" for ctx.KnownIDs, so predicates can check referenced ids exist
// (e.g. "input.pac_id in known_ids").
func evaluateCrossArtifact(ctx EvalContext, def Definition) (bool, string) {
	return evalCELPredicate(ctx, def)
}

func evalCELPredicate(ctx EvalContext, def Definition) (bool, string) {
	if def.Expression == "" {
		return false, "no expression configured for " + def.ID
	}

	knownIDs := make([]string, 0, len(ctx.KnownIDs))
	for id := range ctx.KnownIDs {
		knownIDs = append(knownIDs, id)
	}

	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("known_ids", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return false, fmt.Sprintf("cel env construction failed: %v", err)
	}

	ast, issues := env.Compile(def.Expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Sprintf("cel compile error: %v", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return false, fmt.Sprintf("cel program construction failed: %v", err)
	}

	data := ctx.Data
	if data == nil {
		data = map[string]interface{}{}
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"input":     data,
		"known_ids": knownIDs,
	})
	if err != nil {
		return false, fmt.Sprintf("cel eval error: %v", err)
	}

	passed, ok := out.Value().(bool)
	if !ok {
		return false, "cel expression did not evaluate to a boolean"
	}
	if !passed {
		return false, fmt.Sprintf("expression %q evaluated false", def.Expression)
	}
	return true, ""
}

// evaluateTemporal compares two named timestamps in ctx.Timestamps; the
// evaluator tag names which pair and in which order, e.g.
// "ack_precedes_wrap" expects Timestamps["ack"] before Timestamps["wrap"].
func evaluateTemporal(ctx EvalContext, def Definition) (bool, string) {
	before, after, ok := temporalPair(def.EvaluatorTag)
	if !ok {
		return false, fmt.Sprintf("unknown temporal evaluator tag %q", def.EvaluatorTag)
	}

	beforeTime, hasBefore := ctx.Timestamps[before]
	afterTime, hasAfter := ctx.Timestamps[after]
	if !hasBefore || !hasAfter {
		return false, fmt.Sprintf("missing timestamp(s) for %s/%s", before, after)
	}
	if !beforeTime.Before(afterTime) {
		return false, fmt.Sprintf("%s does not precede %s", before, after)
	}
	return true, ""
}

func temporalPair(tag string) (before, after string, ok bool) {
	switch tag {
	case "ack_precedes_wrap":
		return "ack", "wrap", true
	case "wrap_precedes_ber":
		return "wrap", "ber", true
	case "rg01_precedes_ber":
		return "rg01", "ber", true
	default:
		return "", "", false
	}
}

// evaluateAuthority checks that the acting identity is recognized and
// permitted on the given lane. It does not re-derive authority from a
// display name — that path is categorically rejected elsewhere
// (pkg/authority.AssertNoPersonaAuthority).
func evaluateAuthority(ctx EvalContext, def Definition) (bool, string) {
	if ctx.Identity == nil {
		return false, "no identity present in evaluation context"
	}
	if ctx.Lane != "" {
		if _, ok := ctx.Identity.PermittedLanes[ctx.Lane]; !ok {
			return false, fmt.Sprintf("identity %s not permitted on lane %s", ctx.Identity.IdentityID, ctx.Lane)
		}
	}
	return true, ""
}

// evaluateFinality checks that the context data's completeness flags are
// all true, per the tag naming which flag.
func evaluateFinality(ctx EvalContext, def Definition) (bool, string) {
	v, ok := ctx.field(def.EvaluatorTag)
	if !ok {
		return false, fmt.Sprintf("finality flag %q not present", def.EvaluatorTag)
	}
	flag, ok := v.(bool)
	if !ok || !flag {
		return false, fmt.Sprintf("finality flag %q is not satisfied", def.EvaluatorTag)
	}
	return true, ""
}

// evaluateTraining checks that a WRAP carries a non-empty training signal
// and a non-empty positive-closure field; the contents of the closure are
// not otherwise checked.
func evaluateTraining(ctx EvalContext, def Definition) (bool, string) {
	signal, hasSignal := ctx.field("training_signal")
	closure, hasClosure := ctx.field("positive_closure")
	if !hasSignal || isEmpty(signal) {
		return false, "missing or empty training_signal"
	}
	if !hasClosure || isEmpty(closure) {
		return false, "missing or empty positive_closure"
	}
	return true, ""
}

// evaluatePlatform checks the boolean context flag named by
// def.EvaluatorTag. Engine.Evaluate dispatches PLATFORM definitions here like
// any other class; the ack barrier and the checkpoint sequence are not
// evaluated here but enforced through AckBarrier and CheckpointTracker,
// which the orchestrator consults directly.
func evaluatePlatform(ctx EvalContext, def Definition) (bool, string) {
	v, ok := ctx.field(def.EvaluatorTag)
	if !ok {
		return false, fmt.Sprintf("platform flag %q not present", def.EvaluatorTag)
	}
	flag, ok := v.(bool)
	if !ok || !flag {
		return false, fmt.Sprintf("platform flag %q is not satisfied", def.EvaluatorTag)
	}
	return true, ""
}
