package wrap

import (
	"fmt"

	"github.com/mindburn-labs/governor/core/pkg/identity"
)

// AttestationVerifier validates a WRAP attestation's signature_hash against
// the identity it claims to be signed by. *identity.TokenManager and
// *identity.MasterKeyring both satisfy this.
type AttestationVerifier interface {
	VerifyAttestation(signatureHash, expectedIdentityID string) error
}

// Validator validates WRAP artifacts against an identity registry. It is a
// pure reader: it does not mutate the registry or the WRAP it validates.
type Validator struct {
	registry *identity.Registry
	tokens   AttestationVerifier
}

func NewValidator(registry *identity.Registry) *Validator {
	return &Validator{registry: registry}
}

// WithTokens enables attestation signature verification: when set, Validate
// additionally rejects a WRAP whose attestation.signature_hash is missing
// or does not verify as a token issued to its issuer_identity.
func (v *Validator) WithTokens(tokens AttestationVerifier) *Validator {
	v.tokens = tokens
	return v
}

// Validate enforces presence of all five blocks (HEADER, PROOF, DECISION,
// OUTCOME, ATTESTATION), a header identity recognized by the identity
// registry, non-empty proof evidence, a closed-set outcome status, and a
// complete attestation.
func (v *Validator) Validate(w *WRAP) error {
	if w.WrapID == "" || w.PacID == "" || w.IssuerIdentity == "" {
		return &WRAPValidation{WrapID: w.WrapID, Reason: "missing HEADER fields"}
	}

	if _, err := v.registry.Resolve(w.IssuerIdentity); err != nil {
		return &WRAPValidation{WrapID: w.WrapID, Reason: fmt.Sprintf("header identity not recognized: %v", err)}
	}

	if !w.Proof.hasEvidence() {
		return &WRAPValidation{WrapID: w.WrapID, Reason: "PROOF block carries no artifacts_created, artifacts_modified, or commands_executed"}
	}

	if w.Decision.ActionSummary == "" {
		return &WRAPValidation{WrapID: w.WrapID, Reason: "missing DECISION block"}
	}

	if !w.Outcome.Status.valid() {
		return &WRAPValidation{WrapID: w.WrapID, Reason: fmt.Sprintf("invalid OUTCOME status %q", w.Outcome.Status)}
	}

	if w.Attestation.IssuerIdentity == "" || w.Attestation.Timestamp.IsZero() {
		return &WRAPValidation{WrapID: w.WrapID, Reason: "incomplete ATTESTATION block"}
	}

	if v.tokens != nil {
		if w.Attestation.SignatureHash == "" {
			return &WRAPValidation{WrapID: w.WrapID, Reason: "ATTESTATION missing signature_hash"}
		}
		if err := v.tokens.VerifyAttestation(w.Attestation.SignatureHash, w.Attestation.IssuerIdentity); err != nil {
			return &WRAPValidation{WrapID: w.WrapID, Reason: err.Error()}
		}
	}

	return nil
}
