// Package invariant implements the invariant (lint) engine (C6): a
// registry of named predicates evaluated at fixed enforcement points,
// gated by runtime activation flags and a per-PAC agent acknowledgement
// barrier, producing a binary PASS/FAIL report with enumerated
// violations.
package invariant

import "time"

// Class is the closed set of invariant classes.
type Class string

const (
	ClassStructural    Class = "STRUCTURAL"
	ClassSemantic      Class = "SEMANTIC"
	ClassCrossArtifact Class = "CROSS_ARTIFACT"
	ClassTemporal      Class = "TEMPORAL"
	ClassAuthority     Class = "AUTHORITY"
	ClassFinality      Class = "FINALITY"
	ClassTraining      Class = "TRAINING"
	ClassPlatform      Class = "PLATFORM"
)

func (c Class) valid() bool {
	switch c {
	case ClassStructural, ClassSemantic, ClassCrossArtifact, ClassTemporal,
		ClassAuthority, ClassFinality, ClassTraining, ClassPlatform:
		return true
	default:
		return false
	}
}

// Severity is the closed set of invariant severities. Both are HARD_FAIL;
// there is no warning tier.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
)

func (s Severity) valid() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// EnforcementPoint is the closed set of named checkpoints at which the
// engine evaluates the applicable invariant subset.
type EnforcementPoint string

const (
	PACAdmission       EnforcementPoint = "PAC_ADMISSION"
	WRAPIngestion      EnforcementPoint = "WRAP_INGESTION"
	RG01Evaluation     EnforcementPoint = "RG01_EVALUATION"
	BEREligibility     EnforcementPoint = "BER_ELIGIBILITY"
	SettlementReady    EnforcementPoint = "SETTLEMENT_READINESS"
	RuntimeActivation  EnforcementPoint = "RUNTIME_ACTIVATION"
	AgentACKCollection EnforcementPoint = "AGENT_ACK_COLLECTION"
	AgentExecution     EnforcementPoint = "AGENT_EXECUTION"
	APIAdmission       EnforcementPoint = "API_ADMISSION"
	UIRenderValidation EnforcementPoint = "UI_RENDER_VALIDATION"
	ReviewGates        EnforcementPoint = "REVIEW_GATES"
	LedgerCommit       EnforcementPoint = "LEDGER_COMMIT"
	FinalitySeal       EnforcementPoint = "FINALITY_SEAL"
)

func (e EnforcementPoint) valid() bool {
	switch e {
	case PACAdmission, WRAPIngestion, RG01Evaluation, BEREligibility, SettlementReady,
		RuntimeActivation, AgentACKCollection, AgentExecution, APIAdmission,
		UIRenderValidation, ReviewGates, LedgerCommit, FinalitySeal:
		return true
	default:
		return false
	}
}

// Definition is one entry in the closed, statically defined invariant
// registry. Expression is only consulted by the SEMANTIC and
// CROSS_ARTIFACT evaluators (compiled as CEL); RequiredFields is only
// consulted by the STRUCTURAL evaluator. The applicable_enforcement_points
// on a Definition are authoritative over any separate checkpoint map per
// the source's own documented disagreement rule.
type Definition struct {
	ID                         string
	Class                      Class
	Name                       string
	Description                string
	ApplicableEnforcementPoints []EnforcementPoint
	Severity                   Severity
	EvaluatorTag               string

	RequiredFields []string
	Expression     string
}

// Violation records a single failed invariant evaluation.
type Violation struct {
	InvariantID      string
	Class            Class
	EnforcementPoint EnforcementPoint
	ArtifactID       string
	Description      string
	Context          map[string]interface{}
	DetectedAt       time.Time
	Hash             string
}

// Result is the closed PASS/FAIL result of an evaluation. There is no
// warning tier.
type Result string

const (
	ResultPass Result = "PASS"
	ResultFail Result = "FAIL"
)

// EvaluationReport is the output of a single Evaluate call: a tamper
// evident record of what was checked and what, if anything, failed.
type EvaluationReport struct {
	ReportID            string
	EnforcementPoint    EnforcementPoint
	ArtifactID          string
	ArtifactType        string
	Result              Result
	Violations          []Violation
	InvariantsEvaluated []string
	StartedAt           time.Time
	CompletedAt         time.Time
	Duration            time.Duration
	ReportHash          string
}

// TrainingSignalKind distinguishes the overall-result signal from a
// per-violation signal.
type TrainingSignalKind string

const (
	SignalOverallResult TrainingSignalKind = "OVERALL_RESULT"
	SignalViolation     TrainingSignalKind = "VIOLATION"
)

// TrainingSignal is an opaque-to-the-engine signal object; a downstream
// collector interprets it. The engine's responsibility ends at producing
// these alongside the report.
type TrainingSignal struct {
	ReportID    string
	Kind        TrainingSignalKind
	InvariantID string // empty for SignalOverallResult
	Passed      bool
}

// SignalSink receives training signals as the engine produces them. Engine
// users that don't care about training signals may leave this nil.
type SignalSink interface {
	Accept(signal TrainingSignal)
}
