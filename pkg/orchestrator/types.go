// Package orchestrator implements the orchestration engine (C10): the
// single entry point that validates a PAC, dispatches it, receives its
// WRAP, and synchronously drives the session through BER issuance and
// emission, POSITIVE_CLOSURE, and PDO emission and registration.
package orchestrator

import (
	"time"

	"github.com/mindburn-labs/governor/core/pkg/ber"
	"github.com/mindburn-labs/governor/core/pkg/closure"
	"github.com/mindburn-labs/governor/core/pkg/pac"
	"github.com/mindburn-labs/governor/core/pkg/pdo"
	"github.com/mindburn-labs/governor/core/pkg/session"
)

// DispatchStatus is the closed set of dispatch outcomes.
type DispatchStatus string

const (
	Dispatched DispatchStatus = "DISPATCHED"
	DispatchRejected DispatchStatus = "REJECTED"
)

// DispatchResult is the return value of Dispatch.
type DispatchResult struct {
	Status           DispatchStatus
	PacID            string
	TargetIdentity   string
	ValidationResult pac.ValidationResult
	DispatchedAt     time.Time
}

// SessionSnapshot is a read-only view of a session record, safe to hand to
// callers without exposing the live record. The three artifact fields are
// nil until their respective stage completes.
type SessionSnapshot struct {
	PacID                  string
	State                  session.State
	WrapReceived           bool
	BERIssued              bool
	BEREmitted             bool
	PositiveClosureEmitted bool
	PDOEmitted             bool
	Error                  error

	BER     *ber.BER
	Closure *closure.Closure
	PDO     *pdo.PDO
}

// snapshot type-asserts session.Record's interface{} artifact fields back
// to their concrete types; this is the one place that does so.
func snapshot(r *session.Record) SessionSnapshot {
	s := SessionSnapshot{
		PacID:                  r.PacID,
		State:                  r.State,
		WrapReceived:           r.WrapReceived,
		BERIssued:              r.BERIssued,
		BEREmitted:             r.BEREmitted,
		PositiveClosureEmitted: r.PositiveClosureEmitted,
		PDOEmitted:             r.PDOEmitted,
		Error:                  r.Error,
	}
	if r.BERArtifact != nil {
		s.BER = r.BERArtifact.(*ber.BER)
	}
	if r.PositiveClosure != nil {
		s.Closure = r.PositiveClosure.(*closure.Closure)
	}
	if r.PDOArtifact != nil {
		s.PDO = r.PDOArtifact.(*pdo.PDO)
	}
	return s
}
