// Package closure implements POSITIVE_CLOSURE: the artifact asserting
// that every obligation between BER emission and PDO emission was met,
// carrying the ordered set of WRAP hashes consumed and a Merkle closure
// hash over the closure's constituent artifacts.
package closure

import (
	"fmt"

	"github.com/mindburn-labs/governor/core/pkg/merkle"
)

// Decision is the closed set of closure decisions.
type Decision string

const (
	DecisionClean      Decision = "CLEAN"
	DecisionCorrective Decision = "CORRECTIVE"
	DecisionInvalid    Decision = "INVALID"
)

func (d Decision) valid() bool {
	switch d {
	case DecisionClean, DecisionCorrective, DecisionInvalid:
		return true
	default:
		return false
	}
}

// InvalidDecision is returned when Build is given a decision outside the
// closed set.
type InvalidDecision struct{ Decision string }

func (e *InvalidDecision) Error() string {
	return fmt.Sprintf("closure: invalid decision %q", e.Decision)
}

// Closure is the immutable POSITIVE_CLOSURE artifact.
type Closure struct {
	ClosureID           string
	PacID               string
	BerID               string
	WrapHashes          []string
	FinalState          string
	InvariantsVerified  bool
	CheckpointsResolved int
	Decision            Decision
	ClosureHash         string
}

// Build constructs a frozen Closure. closure_hash is the Merkle root over
// {ber_id, final_state, wrap_hashes...} — the spec leaves the exact
// formula open; Merkle composition is the natural generalization of the
// "wrap_hashes (ordered set)" field into a single tamper-evident digest.
func Build(closureID, pacID, berID string, wrapHashes []string, finalState string, invariantsVerified bool, checkpointsResolved int, decision Decision) (*Closure, error) {
	if !decision.valid() {
		return nil, &InvalidDecision{Decision: string(decision)}
	}

	tree, err := merkle.BuildMerkleTree(map[string]interface{}{
		"ber_id":      berID,
		"final_state": finalState,
		"wrap_hashes": wrapHashes,
	})
	if err != nil {
		return nil, err
	}

	return &Closure{
		ClosureID:           closureID,
		PacID:               pacID,
		BerID:               berID,
		WrapHashes:          wrapHashes,
		FinalState:          finalState,
		InvariantsVerified:  invariantsVerified,
		CheckpointsResolved: checkpointsResolved,
		Decision:            decision,
		ClosureHash:         tree.Root,
	}, nil
}
