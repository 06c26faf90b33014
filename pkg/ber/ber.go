// Package ber defines the BER (Binding Execution Ruling) artifact: the
// sole authorized decision the orchestration engine issues for a PAC, with
// two lifecycle points — issued (internal) and emitted (observable).
package ber

import (
	"fmt"
	"time"

	"github.com/mindburn-labs/governor/core/pkg/canonicalize"
)

// Decision is the closed set of BER decisions.
type Decision string

const (
	DecisionApprove    Decision = "APPROVE"
	DecisionCorrective Decision = "CORRECTIVE"
	DecisionReject     Decision = "REJECT"
)

func (d Decision) valid() bool {
	switch d {
	case DecisionApprove, DecisionCorrective, DecisionReject:
		return true
	default:
		return false
	}
}

// InvalidDecision is returned when New is given a decision outside the
// closed set.
type InvalidDecision struct{ Decision string }

func (e *InvalidDecision) Error() string {
	return fmt.Sprintf("ber: invalid decision %q", e.Decision)
}

// BER is the immutable binding execution ruling. Frozen once constructed;
// EmittedAt is set separately by MarkEmitted, the only field BER permits
// changing after construction, modeling the issued-then-emitted lifecycle.
// BerID is opaque but deterministic given the payload, per the artifact id
// contract — it is not itself a field the data model section enumerates,
// but downstream artifacts (POSITIVE_CLOSURE, PDO) reference a BER by id.
type BER struct {
	BerID          string
	PacID          string
	Decision       Decision
	IssuerIdentity string
	IssuedAt       time.Time
	EmittedAt      time.Time
	WrapStatus     string
	SessionState   string
}

// New constructs a BER in its issued (not yet emitted) state.
func New(pacID string, decision Decision, issuerIdentity, wrapStatus, sessionState string, issuedAt time.Time) (*BER, error) {
	if !decision.valid() {
		return nil, &InvalidDecision{Decision: string(decision)}
	}

	berID, err := canonicalize.CanonicalHash(map[string]interface{}{
		"pac_id":          pacID,
		"decision":        string(decision),
		"issuer_identity": issuerIdentity,
		"issued_at":       issuedAt.UnixNano(),
	})
	if err != nil {
		return nil, err
	}

	return &BER{
		BerID:          berID,
		PacID:          pacID,
		Decision:       decision,
		IssuerIdentity: issuerIdentity,
		IssuedAt:       issuedAt,
		WrapStatus:     wrapStatus,
		SessionState:   sessionState,
	}, nil
}

// MarkEmitted records the BER's emission time. Only emission counts for
// loop closure.
func (b *BER) MarkEmitted(at time.Time) {
	b.EmittedAt = at
}

// Emitted reports whether the BER has been marked emitted.
func (b *BER) Emitted() bool {
	return !b.EmittedAt.IsZero()
}
