package session

import (
	"fmt"
	"time"
)

// Transition moves the record from its current state to target, failing
// with InvalidTransition if the table does not permit it (including any
// attempt from a terminal state, rule (a)).
func (r *Record) Transition(target State, now time.Time) error {
	if IsTerminal(r.State) {
		return &InvalidTransition{PacID: r.PacID, From: r.State, To: target}
	}

	allowed, ok := transitions[r.State]
	if !ok {
		return &InvalidTransition{PacID: r.PacID, From: r.State, To: target}
	}
	if _, ok := allowed[target]; !ok {
		return &InvalidTransition{PacID: r.PacID, From: r.State, To: target}
	}

	r.State = target
	if r.Timestamps == nil {
		r.Timestamps = map[State]time.Time{}
	}
	r.Timestamps[target] = now
	return nil
}

// Complete attempts the terminal transition to SESSION_COMPLETE. Per rule
// (c), it fails with BERRequired while the record sits in BER_REQUIRED and
// with BERNotEmitted while it sits in BER_ISSUED. Per rule (d), it also
// requires that POSITIVE_CLOSURE and PDO have both been recorded before
// BER_EMITTED may close out.
func (r *Record) Complete(now time.Time) error {
	switch r.State {
	case BERRequiredState:
		return &BERRequired{PacID: r.PacID}
	case BERIssued:
		return &BERNotEmitted{PacID: r.PacID}
	case BEREmitted:
		if !r.PositiveClosureEmitted || !r.PDOEmitted {
			return fmt.Errorf("session %q: cannot complete, positive closure or PDO not yet recorded", r.PacID)
		}
		return r.Transition(SessionComplete, now)
	default:
		return &InvalidTransition{PacID: r.PacID, From: r.State, To: SessionComplete}
	}
}

// Invalidate forces the record into SESSION_INVALID, recording reason.
// Invalidate itself obeys rule (a): it fails if the record is already in a
// terminal state.
func (r *Record) Invalidate(reason error, now time.Time) error {
	if IsTerminal(r.State) {
		if r.State == SessionInvalidState {
			return &SessionInvalid{PacID: r.PacID}
		}
		return &InvalidTransition{PacID: r.PacID, From: r.State, To: SessionInvalidState}
	}
	r.Error = reason
	return r.Transition(SessionInvalidState, now)
}

// Reject transitions a freshly received PAC straight to REJECTED, used
// when PAC validation fails at dispatch before any session work begins.
func (r *Record) Reject(reason error, now time.Time) error {
	if err := r.Transition(Rejected, now); err != nil {
		return err
	}
	r.Error = reason
	return nil
}
