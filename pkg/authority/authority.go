// Package authority implements the authority guard (C3): the set of pure
// predicates deciding which identity class may issue which artifact.
// Authority here is always structural (derived from an Identity's class),
// never nominal (derived from a display name).
package authority

import (
	"fmt"

	"github.com/mindburn-labs/governor/core/pkg/identity"
)

// BERAuthorityError is returned when an identity that is not
// SYSTEM_ORCHESTRATOR attempts to issue a BER.
type BERAuthorityError struct {
	IdentityID string
	Class      identity.Class
}

func (e *BERAuthorityError) Error() string {
	return fmt.Sprintf("authority: %q (class %s) may not issue BER", e.IdentityID, e.Class)
}

// WRAPAuthorityError is returned when an identity that is not AGENT
// attempts to issue a WRAP.
type WRAPAuthorityError struct {
	IdentityID string
	Class      identity.Class
}

func (e *WRAPAuthorityError) Error() string {
	return fmt.Sprintf("authority: %q (class %s) may not issue WRAP", e.IdentityID, e.Class)
}

// SelfApprovalError is returned when an approver attempts to approve its
// own WRAP.
type SelfApprovalError struct {
	ApproverID string
}

func (e *SelfApprovalError) Error() string {
	return fmt.Sprintf("authority: %q may not approve its own WRAP", e.ApproverID)
}

// PersonaAuthorityError is returned unconditionally whenever authority is
// claimed from a persona (display name) rather than from an Identity.
type PersonaAuthorityError struct {
	Persona string
}

func (e *PersonaAuthorityError) Error() string {
	return fmt.Sprintf("authority: persona %q cannot carry authority; authority is structural, not nominal", e.Persona)
}

// MayIssueBER reports whether ident may issue a BER: true iff its class is
// SYSTEM_ORCHESTRATOR.
func MayIssueBER(ident *identity.Identity) bool {
	return ident != nil && ident.Class == identity.ClassSystemOrchestrator
}

// AssertMayIssueBER fails with BERAuthorityError unless MayIssueBER holds.
func AssertMayIssueBER(ident *identity.Identity) error {
	if MayIssueBER(ident) {
		return nil
	}
	id, class := "", identity.Class("")
	if ident != nil {
		id, class = ident.IdentityID, ident.Class
	}
	return &BERAuthorityError{IdentityID: id, Class: class}
}

// MayIssueWRAP reports whether ident may issue a WRAP: true iff its class
// is AGENT.
func MayIssueWRAP(ident *identity.Identity) bool {
	return ident != nil && ident.Class == identity.ClassAgent
}

// AssertMayIssueWRAP fails with WRAPAuthorityError unless MayIssueWRAP
// holds.
func AssertMayIssueWRAP(ident *identity.Identity) error {
	if MayIssueWRAP(ident) {
		return nil
	}
	id, class := "", identity.Class("")
	if ident != nil {
		id, class = ident.IdentityID, ident.Class
	}
	return &WRAPAuthorityError{IdentityID: id, Class: class}
}

// NotSelfApproval reports whether approverID and wrapAuthorID differ.
func NotSelfApproval(approverID, wrapAuthorID string) bool {
	return approverID != wrapAuthorID
}

// AssertNotSelfApproval fails with SelfApprovalError unless the approver
// and the WRAP author differ.
func AssertNotSelfApproval(approverID, wrapAuthorID string) error {
	if NotSelfApproval(approverID, wrapAuthorID) {
		return nil
	}
	return &SelfApprovalError{ApproverID: approverID}
}

// AssertNoPersonaAuthority unconditionally fails with
// PersonaAuthorityError: no caller may derive authority from a persona
// string.
func AssertNoPersonaAuthority(persona string) error {
	return &PersonaAuthorityError{Persona: persona}
}
