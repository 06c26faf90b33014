package orchestrator

import "fmt"

// UnknownSession is returned when an operation references a pac_id with no
// open session record.
type UnknownSession struct{ PacID string }

func (e *UnknownSession) Error() string {
	return fmt.Sprintf("orchestrator: no session for pac %q", e.PacID)
}

// DuplicateSession is returned when Dispatch is called for a pac_id that
// already has a session record, in any state, including one that an earlier
// Dispatch recorded as REJECTED.
type DuplicateSession struct{ PacID string }

func (e *DuplicateSession) Error() string {
	return fmt.Sprintf("orchestrator: session for pac %q already dispatched", e.PacID)
}

// WrapPacMismatch is returned when a WRAP references a different pac_id
// than the session it was submitted against.
type WrapPacMismatch struct {
	PacID    string
	WrapPacID string
}

func (e *WrapPacMismatch) Error() string {
	return fmt.Sprintf("orchestrator: wrap pac_id %q does not match session %q", e.WrapPacID, e.PacID)
}

// DispatchRateLimited is returned when a target identity's dispatch rate
// bucket has no tokens left. The PAC is rejected, not queued: its session is
// recorded as REJECTED, so a later Dispatch of the same pac_id fails with
// DuplicateSession.
type DispatchRateLimited struct{ TargetIdentity string }

func (e *DispatchRateLimited) Error() string {
	return fmt.Sprintf("orchestrator: dispatch rate limit exceeded for target %q", e.TargetIdentity)
}

// InvariantFailure wraps a FAIL invariant evaluation report encountered
// inline in the dispatch/receive_wrap flow, carrying the first violation's
// id for quick identification.
type InvariantFailure struct {
	PacID            string
	EnforcementPoint string
	InvariantID      string
}

func (e *InvariantFailure) Error() string {
	return fmt.Sprintf("orchestrator: pac %q failed invariant %q at %s", e.PacID, e.InvariantID, e.EnforcementPoint)
}
