// Package pdo implements the PDO (Proof-of-Decision Object) artifact
// factory (C8): a constructor that rejects malformed or unauthorized
// construction, and computes the frozen proof/decision/outcome/pdo hash
// chain from its inputs.
package pdo

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/mindburn-labs/governor/core/pkg/canonicalize"
	"github.com/mindburn-labs/governor/core/pkg/identity"
)

// OutcomeStatus is the closed set of PDO outcome statuses.
type OutcomeStatus string

const (
	OutcomeAccepted   OutcomeStatus = "ACCEPTED"
	OutcomeCorrective OutcomeStatus = "CORRECTIVE"
	OutcomeRejected   OutcomeStatus = "REJECTED"
)

func (s OutcomeStatus) valid() bool {
	switch s {
	case OutcomeAccepted, OutcomeCorrective, OutcomeRejected:
		return true
	default:
		return false
	}
}

// PDO is the immutable, hash-chained proof-of-decision object. Exactly one
// PDO may exist per pac_id (enforced by the store, not by this factory).
type PDO struct {
	PdoID         string
	PacID         string
	WrapID        string
	BerID         string
	OutcomeStatus OutcomeStatus
	Issuer        string

	ProofHash    string
	DecisionHash string
	OutcomeHash  string
	PdoHash      string

	ProofAt    time.Time
	DecisionAt time.Time
	OutcomeAt  time.Time
	CreatedAt  time.Time
}

// Construct builds a frozen PDO from its constituent artifacts. Rejections
// are checked in order: outcome_status validity, issuer authority, then
// input completeness — matching the factory's fixed rejection order.
func Construct(
	pacID, wrapID string,
	wrapPayload interface{},
	berID string,
	berPayload interface{},
	outcomeStatus OutcomeStatus,
	issuer *identity.Identity,
	proofAt, decisionAt, now time.Time,
) (*PDO, error) {
	if !outcomeStatus.valid() {
		return nil, &InvalidOutcome{OutcomeStatus: string(outcomeStatus)}
	}

	if issuer == nil || issuer.Class != identity.ClassSystemOrchestrator {
		issuerID := ""
		if issuer != nil {
			issuerID = issuer.IdentityID
		}
		return nil, &PDOAuthorityError{Issuer: issuerID}
	}

	if pacID == "" || wrapID == "" || wrapPayload == nil || berID == "" || berPayload == nil {
		return nil, &PDOIncomplete{PacID: pacID}
	}

	proofHash, err := canonicalize.ChainHash("", wrapPayload)
	if err != nil {
		return nil, err
	}

	decisionHash, err := canonicalize.ChainHash(proofHash, berPayload)
	if err != nil {
		return nil, err
	}

	outcomeHash, err := canonicalize.ChainHash(decisionHash, string(outcomeStatus))
	if err != nil {
		return nil, err
	}

	// Name-based id: the same pac, wrap, BER and outcome chain give the same id.
	pdoID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(pacID+"|"+wrapID+"|"+berID+"|"+outcomeHash)).String()
	pdoHash := topLevelHash(pdoID, pacID, wrapID, berID, proofHash, decisionHash, outcomeHash, issuer.IdentityID)

	return &PDO{
		PdoID:         pdoID,
		PacID:         pacID,
		WrapID:        wrapID,
		BerID:         berID,
		OutcomeStatus: outcomeStatus,
		Issuer:        issuer.IdentityID,
		ProofHash:     proofHash,
		DecisionHash:  decisionHash,
		OutcomeHash:   outcomeHash,
		PdoHash:       pdoHash,
		ProofAt:       proofAt,
		DecisionAt:    decisionAt,
		OutcomeAt:     now,
		CreatedAt:     now,
	}, nil
}

func topLevelHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Verify recomputes all four hashes from wrapPayload, berPayload, and the
// PDO's stored outcome_status/ids/issuer, and compares them against the
// stored values. Any mismatch — including a single-bit mutation of either
// payload — makes Verify return false (tamper-evident).
func Verify(p *PDO, wrapPayload, berPayload interface{}) bool {
	proofHash, err := canonicalize.ChainHash("", wrapPayload)
	if err != nil || proofHash != p.ProofHash {
		return false
	}

	decisionHash, err := canonicalize.ChainHash(proofHash, berPayload)
	if err != nil || decisionHash != p.DecisionHash {
		return false
	}

	outcomeHash, err := canonicalize.ChainHash(decisionHash, string(p.OutcomeStatus))
	if err != nil || outcomeHash != p.OutcomeHash {
		return false
	}

	pdoHash := topLevelHash(p.PdoID, p.PacID, p.WrapID, p.BerID, proofHash, decisionHash, outcomeHash, p.Issuer)
	return pdoHash == p.PdoHash
}

// VerifyChain is a structural check: it verifies hash lengths are correct
// SHA-256 hex digests, and recomputes outcome_hash and pdo_hash from the
// PDO's own stored components (proof_hash and decision_hash cannot be
// recomputed without the original payloads, so only their shape is
// checked).
func VerifyChain(p *PDO) bool {
	for _, h := range []string{p.ProofHash, p.DecisionHash, p.OutcomeHash, p.PdoHash} {
		if len(h) != hex.EncodedLen(sha256.Size) {
			return false
		}
	}

	outcomeHash, err := canonicalize.ChainHash(p.DecisionHash, string(p.OutcomeStatus))
	if err != nil || outcomeHash != p.OutcomeHash {
		return false
	}

	pdoHash := topLevelHash(p.PdoID, p.PacID, p.WrapID, p.BerID, p.ProofHash, p.DecisionHash, outcomeHash, p.Issuer)
	return pdoHash == p.PdoHash
}
