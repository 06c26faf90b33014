package invariant

import "fmt"

// RuntimeNotActivated is never returned as an error from Evaluate — Evaluate
// instead returns a FAIL report carrying the fabricated RUNTIME-001
// violation, per §4.6's "never PASS by default" rule. It is exported for
// callers that want a typed error for that condition, matched with errors.As.
type RuntimeNotActivated struct{ Missing []string }

func (e *RuntimeNotActivated) Error() string {
	return fmt.Sprintf("invariant: runtime not activated, missing: %v", e.Missing)
}

// OutOfOrderCheckpoint is returned when a PAC attempts to complete a
// checkpoint stage before its predecessors in the fixed sequence.
type OutOfOrderCheckpoint struct {
	PacID    string
	Stage    CheckpointStage
	Expected CheckpointStage
}

func (e *OutOfOrderCheckpoint) Error() string {
	return fmt.Sprintf("invariant: pac %s attempted checkpoint %s out of order, expected %s next",
		e.PacID, e.Stage, e.Expected)
}

// UnknownBarrier is returned when an ack barrier operation is attempted
// against a pac_id that was never registered with SetRequired.
type UnknownBarrier struct{ PacID string }

func (e *UnknownBarrier) Error() string {
	return fmt.Sprintf("invariant: no ack barrier registered for pac %s", e.PacID)
}

// AckBarrierUnsatisfied is INV-LINT-PLAT-002: agent execution attempted
// without an ACK from every required agent.
type AckBarrierUnsatisfied struct {
	PacID   string
	Missing []string
}

func (e *AckBarrierUnsatisfied) Error() string {
	return fmt.Sprintf("invariant: INV-LINT-PLAT-002 pac %s crossed AGENT_EXECUTION without ACK from %v", e.PacID, e.Missing)
}
