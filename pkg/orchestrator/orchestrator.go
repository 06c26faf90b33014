package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mindburn-labs/governor/core/pkg/authority"
	"github.com/mindburn-labs/governor/core/pkg/ber"
	"github.com/mindburn-labs/governor/core/pkg/closure"
	"github.com/mindburn-labs/governor/core/pkg/config"
	"github.com/mindburn-labs/governor/core/pkg/identity"
	"github.com/mindburn-labs/governor/core/pkg/invariant"
	"github.com/mindburn-labs/governor/core/pkg/ledger"
	"github.com/mindburn-labs/governor/core/pkg/pac"
	"github.com/mindburn-labs/governor/core/pkg/pdo"
	"github.com/mindburn-labs/governor/core/pkg/pdostore"
	"github.com/mindburn-labs/governor/core/pkg/session"
	"github.com/mindburn-labs/governor/core/pkg/telemetry"
	"github.com/mindburn-labs/governor/core/pkg/wrap"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator is the single entry point (C10) wiring the identity
// registry, WRAP validator, authority guard, PDO factory, and PDO store
// into the dispatch/receive-WRAP lifecycle. Every PAC's processing is
// serialized against its own lock; distinct PACs proceed concurrently.
type Orchestrator struct {
	registry      *identity.Registry
	wrapValidator *wrap.Validator
	invariants    *invariant.Engine
	store         *pdostore.Store
	cfg           *config.Config
	telemetry     *telemetry.Provider
	events        *ledger.Ledger
	keyring       *identity.MasterKeyring
	limiter       *dispatchLimiter

	mu       sync.Mutex
	sessions map[string]*session.Record
	pacs     map[string]*pac.PAC
	pacLocks map[string]*sync.Mutex

	now func() time.Time
}

// New builds an Orchestrator around its dependencies. cfg and provider must
// not be nil; provider supplies the ambient tracer used for dispatch and
// WRAP-receipt spans. A fresh master keyring backs per-identity attestation
// signing and verification; seed generation failure here is an environment
// fault (no entropy source), not a recoverable condition, so it panics like
// the embedded-schema compiles elsewhere in this module do.
func New(registry *identity.Registry, engine *invariant.Engine, store *pdostore.Store, cfg *config.Config, provider *telemetry.Provider) *Orchestrator {
	keyring, err := identity.NewMasterKeyring()
	if err != nil {
		panic(fmt.Sprintf("orchestrator: failed to initialize attestation keyring: %v", err))
	}

	return &Orchestrator{
		registry:      registry,
		wrapValidator: wrap.NewValidator(registry).WithTokens(keyring),
		invariants:    engine,
		store:         store,
		cfg:           cfg,
		telemetry:     provider,
		events:        ledger.NewLedger(ledger.LedgerTypeEvent),
		keyring:       keyring,
		limiter:       newDispatchLimiter(cfg),
		sessions:      make(map[string]*session.Record),
		pacs:          make(map[string]*pac.PAC),
		pacLocks:      make(map[string]*sync.Mutex),
		now:           time.Now,
	}
}

// Events exposes the observable session-event ledger.
func (o *Orchestrator) Events() *ledger.Ledger { return o.events }

// TokensFor returns a token manager backed by identityID's own derived
// key, so a caller preparing a WRAP can sign its attestation on that
// identity's behalf before submitting it to ReceiveWrap.
func (o *Orchestrator) TokensFor(identityID string) (*identity.TokenManager, error) {
	return o.keyring.TokensFor(identityID)
}

// Evaluate delegates to the invariant engine, the external surface's
// evaluate(enforcement_point, artifact_id, artifact_type, context) entry
// point.
func (o *Orchestrator) Evaluate(ep invariant.EnforcementPoint, artifactID, artifactType string, ctx invariant.EvalContext) *invariant.EvaluationReport {
	return o.invariants.Evaluate(ep, artifactID, artifactType, ctx)
}

// LookupPDO returns the sole PDO registered for pacID, if any.
func (o *Orchestrator) LookupPDO(pacID string) (pdostore.Entry, bool) {
	entries := o.store.FindByPac(pacID)
	if len(entries) == 0 {
		return pdostore.Entry{}, false
	}
	return entries[0], true
}

// ValidateStoreIntegrity delegates to the PDO store's integrity check.
func (o *Orchestrator) ValidateStoreIntegrity() (bool, []string) {
	return o.store.ValidateIntegrity()
}

func (o *Orchestrator) lockFor(pacID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.pacLocks[pacID]
	if !ok {
		l = &sync.Mutex{}
		o.pacLocks[pacID] = l
	}
	return l
}

func (o *Orchestrator) appendEvent(entryType, pacID string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["pac_id"] = pacID
	_, _ = o.events.Append(entryType, "SYSTEM_ORCHESTRATOR", data)
}

func pacEvalData(p *pac.PAC) map[string]interface{} {
	return map[string]interface{}{
		"pac_id":          p.PacID,
		"issuer":          p.Issuer,
		"target_identity": p.TargetIdentity,
		"mode":            p.Mode,
		"discipline":      p.Discipline,
		"objective":       p.Objective,
		"wrap_obligation": p.WrapObligation,
		"ber_obligation":  p.BerObligation,
		"final_state":     p.FinalState,
	}
}

func wrapEvalData(w *wrap.WRAP) map[string]interface{} {
	return map[string]interface{}{
		"wrap_id":         w.WrapID,
		"pac_id":          w.PacID,
		"issuer_identity": w.IssuerIdentity,
		"outcome_status":  string(w.Outcome.Status),
	}
}

// Dispatch opens a new session for p, validates it, and, only if it is valid
// and admitted, transitions the session to PAC_DISPATCHED. An invalid PAC is
// never dispatched: its session is opened only long enough to record REJECTED.
func (o *Orchestrator) Dispatch(p *pac.PAC) (*DispatchResult, error) {
	var span trace.Span
	ctx := context.Background()
	if o.telemetry != nil {
		ctx, span = o.telemetry.Tracer.Start(ctx, "dispatch")
		defer span.End()
	}
	_ = ctx

	o.mu.Lock()
	if _, exists := o.sessions[p.PacID]; exists {
		o.mu.Unlock()
		return nil, &DuplicateSession{PacID: p.PacID}
	}
	now := o.now()
	record := session.NewRecord(p.PacID, now)
	o.sessions[p.PacID] = record
	o.mu.Unlock()

	result, valErr := pac.ValidateAndRaise(p)
	if valErr != nil {
		_ = record.Reject(valErr, o.now())
		o.appendEvent("PAC_REJECTED", p.PacID, map[string]interface{}{"reason": valErr.Error()})
		return &DispatchResult{
			Status:           DispatchRejected,
			PacID:            p.PacID,
			ValidationResult: result,
			DispatchedAt:     now,
		}, valErr
	}

	if _, err := o.registry.Resolve(p.Dispatch.TargetIdentity); err != nil {
		_ = record.Reject(err, o.now())
		o.appendEvent("PAC_REJECTED", p.PacID, map[string]interface{}{"reason": err.Error()})
		return &DispatchResult{
			Status:           DispatchRejected,
			PacID:            p.PacID,
			ValidationResult: result,
			DispatchedAt:     now,
		}, err
	}

	if !o.limiter.allow(p.Dispatch.TargetIdentity) {
		rlErr := &DispatchRateLimited{TargetIdentity: p.Dispatch.TargetIdentity}
		_ = record.Reject(rlErr, o.now())
		o.appendEvent("PAC_REJECTED", p.PacID, map[string]interface{}{"reason": rlErr.Error()})
		return &DispatchResult{
			Status:           DispatchRejected,
			PacID:            p.PacID,
			ValidationResult: result,
			DispatchedAt:     now,
		}, rlErr
	}

	if err := o.invariants.Checkpoints().Complete(p.PacID, invariant.StagePACAdmission); err != nil {
		_ = record.Reject(err, o.now())
		o.appendEvent("PAC_REJECTED", p.PacID, map[string]interface{}{"reason": err.Error()})
		return &DispatchResult{Status: DispatchRejected, PacID: p.PacID, ValidationResult: result, DispatchedAt: now}, err
	}

	admissionReport := o.invariants.Evaluate(invariant.PACAdmission, p.PacID, "PAC", invariant.EvalContext{Data: pacEvalData(p)})
	if admissionReport.Result == invariant.ResultFail {
		failErr := &InvariantFailure{PacID: p.PacID, EnforcementPoint: string(invariant.PACAdmission), InvariantID: admissionReport.Violations[0].InvariantID}
		_ = record.Reject(failErr, o.now())
		o.appendEvent("PAC_REJECTED", p.PacID, map[string]interface{}{"reason": failErr.Error()})
		return &DispatchResult{Status: DispatchRejected, PacID: p.PacID, ValidationResult: result, DispatchedAt: now}, failErr
	}

	o.invariants.AckBarrier().SetRequired(p.PacID, p.RequiredAgents, now.Add(o.cfg.ACKDeadline))

	if err := record.Transition(session.PACDispatched, o.now()); err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.pacs[p.PacID] = p
	o.mu.Unlock()

	o.appendEvent("PAC_DISPATCHED", p.PacID, map[string]interface{}{"target_identity": p.Dispatch.TargetIdentity})

	return &DispatchResult{
		Status:           Dispatched,
		PacID:            p.PacID,
		TargetIdentity:   p.Dispatch.TargetIdentity,
		ValidationResult: result,
		DispatchedAt:     now,
	}, nil
}

// RecordAck records that agentID has acknowledged pacID, satisfying one
// member of its ack barrier's required set (INV-LINT-PLAT-001: runtime ACK
// required). Only AGENT-class identities may ACK — an unrecognized or
// non-agent caller never implicitly activates a PAC (A-INV-004).
func (o *Orchestrator) RecordAck(pacID, agentID string) error {
	o.mu.Lock()
	_, ok := o.sessions[pacID]
	o.mu.Unlock()
	if !ok {
		return &UnknownSession{PacID: pacID}
	}

	agent, err := o.registry.Resolve(agentID)
	if err != nil {
		return err
	}
	if err := authority.AssertMayIssueWRAP(agent); err != nil {
		return err
	}

	if err := o.invariants.AckBarrier().RecordAck(pacID, agentID); err != nil {
		return err
	}
	o.appendEvent("AGENT_ACK_RECORDED", pacID, map[string]interface{}{"agent_id": agentID})
	return nil
}

// ExpireAckBarrier invalidates pacID's session if its ack barrier deadline
// has passed without an ACK from every required agent. The core does not
// measure time itself (§5 "Cancellation & timeouts"); callers drive this
// with an externally supplied now.
func (o *Orchestrator) ExpireAckBarrier(pacID string, now time.Time) error {
	o.mu.Lock()
	record, ok := o.sessions[pacID]
	o.mu.Unlock()
	if !ok {
		return &UnknownSession{PacID: pacID}
	}

	if !o.invariants.AckBarrier().Expired(pacID, now) {
		return nil
	}

	missing := o.invariants.AckBarrier().MissingAgents(pacID)
	return o.fail(record, &invariant.AckBarrierUnsatisfied{PacID: pacID, Missing: missing})
}

// decisionForOutcome maps a WRAP's outcome status to the BER decision it
// obliges, consulting FailedWrapPolicy only for the FAILED case.
func (o *Orchestrator) decisionForOutcome(status wrap.Status) ber.Decision {
	switch status {
	case wrap.StatusComplete:
		return ber.DecisionApprove
	case wrap.StatusPartial:
		return ber.DecisionCorrective
	default: // wrap.StatusFailed
		if o.cfg.FailedWrapPolicy == config.FailedWrapReject {
			return ber.DecisionReject
		}
		return ber.DecisionCorrective
	}
}

func berDecisionToOutcome(d ber.Decision) pdo.OutcomeStatus {
	switch d {
	case ber.DecisionApprove:
		return pdo.OutcomeAccepted
	case ber.DecisionCorrective:
		return pdo.OutcomeCorrective
	default:
		return pdo.OutcomeRejected
	}
}

// fail invalidates record with err and records the invalidation as an
// observable event, then returns err unchanged. Every early return from
// ReceiveWrap's (a)-(h) steps routes through this: no partial state is
// left observable without a corresponding SESSION_INVALID transition.
func (o *Orchestrator) fail(record *session.Record, err error) error {
	_ = record.Invalidate(err, o.now())
	o.appendEvent("SESSION_INVALID", record.PacID, map[string]interface{}{"reason": err.Error()})
	return err
}

// ReceiveWrap drives a dispatched session through WRAP validation, BER
// issuance and emission, POSITIVE_CLOSURE, and PDO construction and
// registration, finally closing the session out as SESSION_COMPLETE. Every
// step is serialized against the session's own per-pac lock; any failure
// from WRAP_RECEIVED onward invalidates the session before the error is
// returned. An unknown pac_id, or a WRAP whose pac_id differs from the
// session's, is refused with an error and leaves the session untouched.
func (o *Orchestrator) ReceiveWrap(ctx context.Context, pacID string, w *wrap.WRAP, fromIdentity string) (*pdo.PDO, error) {
	if o.telemetry != nil {
		var span trace.Span
		ctx, span = o.telemetry.Tracer.Start(ctx, "receive_wrap")
		defer span.End()
	}
	_ = ctx

	lock := o.lockFor(pacID)
	lock.Lock()
	defer lock.Unlock()

	o.mu.Lock()
	record, ok := o.sessions[pacID]
	p := o.pacs[pacID]
	o.mu.Unlock()
	if !ok {
		return nil, &UnknownSession{PacID: pacID}
	}
	if w.PacID != pacID {
		return nil, &WrapPacMismatch{PacID: pacID, WrapPacID: w.PacID}
	}

	// (a) WRAP_RECEIVED
	if err := record.Transition(session.WrapReceived, o.now()); err != nil {
		return nil, o.fail(record, err)
	}
	record.WrapReceived = true
	record.WrapStatus = string(w.Outcome.Status)
	record.WrapHash = w.WrapID
	o.appendEvent("WRAP_RECEIVED", pacID, map[string]interface{}{"wrap_id": w.WrapID, "status": string(w.Outcome.Status)})

	// (b) validate WRAP
	if err := o.wrapValidator.Validate(w); err != nil {
		return nil, o.fail(record, err)
	}

	ingestReport := o.invariants.Evaluate(invariant.WRAPIngestion, w.WrapID, "WRAP", invariant.EvalContext{Data: wrapEvalData(w)})
	if ingestReport.Result == invariant.ResultFail {
		return nil, o.fail(record, &InvariantFailure{PacID: pacID, EnforcementPoint: string(invariant.WRAPIngestion), InvariantID: ingestReport.Violations[0].InvariantID})
	}

	wrapAuthor, err := o.registry.Resolve(fromIdentity)
	if err != nil {
		return nil, o.fail(record, err)
	}
	if err := authority.AssertMayIssueWRAP(wrapAuthor); err != nil {
		return nil, o.fail(record, err)
	}

	// (c) BER_REQUIRED
	if err := record.Transition(session.BERRequiredState, o.now()); err != nil {
		return nil, o.fail(record, err)
	}
	o.appendEvent("BER_REQUIRED", pacID, map[string]interface{}{"wrap_id": w.WrapID})

	// The gated checkpoint sequence between PAC admission and BER
	// eligibility runs synchronously here: by the time a WRAP arrives, the
	// agent-side stages it represents have already happened.
	for _, stage := range []invariant.CheckpointStage{
		invariant.StageRuntimeActivation,
		invariant.StageRuntimeAckCollection,
		invariant.StageAgentActivation,
		invariant.StageAgentAckCollection,
		invariant.StageAgentExecution,
		invariant.StageReviewGates,
	} {
		// INV-LINT-PLAT-002: execution may not cross AGENT_EXECUTION until
		// the ack barrier has received an ACK from every required agent.
		if stage == invariant.StageAgentExecution && !o.invariants.AckBarrier().IsSatisfied(pacID) {
			missing := o.invariants.AckBarrier().MissingAgents(pacID)
			return nil, o.fail(record, &invariant.AckBarrierUnsatisfied{PacID: pacID, Missing: missing})
		}
		if err := o.invariants.Checkpoints().Complete(pacID, stage); err != nil {
			return nil, o.fail(record, err)
		}
	}

	// (d) decision from outcome + policy
	decision := o.decisionForOutcome(w.Outcome.Status)

	eligibilityReport := o.invariants.Evaluate(invariant.BEREligibility, w.WrapID, "WRAP", invariant.EvalContext{Data: wrapEvalData(w)})
	if eligibilityReport.Result == invariant.ResultFail {
		return nil, o.fail(record, &InvariantFailure{PacID: pacID, EnforcementPoint: string(invariant.BEREligibility), InvariantID: eligibilityReport.Violations[0].InvariantID})
	}
	if err := o.invariants.Checkpoints().Complete(pacID, invariant.StageBEREligibility); err != nil {
		return nil, o.fail(record, err)
	}

	// (e) authority checks: the orchestrator identity issues the BER, and
	// it must never be the same identity that authored the WRAP.
	orchestratorIdent := o.registry.Orchestrator()
	if err := authority.AssertMayIssueBER(orchestratorIdent); err != nil {
		return nil, o.fail(record, err)
	}
	if err := authority.AssertNotSelfApproval(orchestratorIdent.IdentityID, fromIdentity); err != nil {
		return nil, o.fail(record, err)
	}

	// (f) BER_ISSUED
	if err := record.Transition(session.BERIssued, o.now()); err != nil {
		return nil, o.fail(record, err)
	}
	issuedAt := o.now()
	berArtifact, err := ber.New(pacID, decision, orchestratorIdent.IdentityID, string(w.Outcome.Status), string(session.BERIssued), issuedAt)
	if err != nil {
		return nil, o.fail(record, err)
	}
	record.BERIssued = true
	record.BERStatus = string(decision)
	record.BERArtifact = berArtifact
	o.appendEvent("BER_ISSUED", pacID, map[string]interface{}{"ber_id": berArtifact.BerID, "decision": string(decision)})

	// (g) BER_EMITTED
	if err := record.Transition(session.BEREmitted, o.now()); err != nil {
		return nil, o.fail(record, err)
	}
	berArtifact.MarkEmitted(o.now())
	record.BEREmitted = true
	o.appendEvent("BER_EMITTED", pacID, map[string]interface{}{"ber_id": berArtifact.BerID})

	// (h) POSITIVE_CLOSURE, then PDO construction and registration.
	finalState := ""
	if p != nil {
		finalState = p.FinalState
	}
	closureDecision := closure.DecisionClean
	switch decision {
	case ber.DecisionCorrective:
		closureDecision = closure.DecisionCorrective
	case ber.DecisionReject:
		closureDecision = closure.DecisionInvalid
	}

	closureArtifact, err := closure.Build(uuid.NewString(), pacID, berArtifact.BerID, []string{w.WrapID}, finalState, true, 8, closureDecision)
	if err != nil {
		return nil, o.fail(record, err)
	}
	record.PositiveClosureEmitted = true
	record.PositiveClosure = closureArtifact
	o.appendEvent("POSITIVE_CLOSURE_EMITTED", pacID, map[string]interface{}{"closure_id": closureArtifact.ClosureID, "closure_hash": closureArtifact.ClosureHash})

	pdoArtifact, err := pdo.Construct(
		pacID, w.WrapID, w,
		berArtifact.BerID, berArtifact,
		berDecisionToOutcome(decision),
		orchestratorIdent,
		w.Attestation.Timestamp, berArtifact.IssuedAt, o.now(),
	)
	if err != nil {
		return nil, o.fail(record, err)
	}

	if err := o.store.Store(pdoArtifact.PdoID, pdoArtifact, pdoArtifact.PdoHash, fromIdentity, pdoArtifact.CreatedAt.Format("2006-01-02")); err != nil {
		return nil, o.fail(record, err)
	}
	record.PDOEmitted = true
	record.PDOArtifact = pdoArtifact
	o.appendEvent("PDO_EMITTED", pacID, map[string]interface{}{"pdo_id": pdoArtifact.PdoID, "pdo_hash": pdoArtifact.PdoHash})

	if err := record.Complete(o.now()); err != nil {
		return nil, o.fail(record, err)
	}
	o.appendEvent("SESSION_COMPLETE", pacID, map[string]interface{}{"pdo_id": pdoArtifact.PdoID})

	return pdoArtifact, nil
}

// GetLoopState returns a read-only snapshot of pacID's session.
func (o *Orchestrator) GetLoopState(pacID string) (SessionSnapshot, error) {
	o.mu.Lock()
	record, ok := o.sessions[pacID]
	o.mu.Unlock()
	if !ok {
		return SessionSnapshot{}, &UnknownSession{PacID: pacID}
	}
	return snapshot(record), nil
}

// LoopClosed reports whether pacID's session reached SESSION_COMPLETE with
// its BER emitted, its POSITIVE_CLOSURE recorded, and exactly one PDO
// registered — the full definition of loop closure.
func (o *Orchestrator) LoopClosed(pacID string) (bool, error) {
	o.mu.Lock()
	record, ok := o.sessions[pacID]
	o.mu.Unlock()
	if !ok {
		return false, &UnknownSession{PacID: pacID}
	}
	return record.State == session.SessionComplete &&
		record.BEREmitted &&
		record.PositiveClosureEmitted &&
		record.PDOEmitted &&
		len(o.store.FindByPac(pacID)) == 1, nil
}

// OpenSessions returns the pac_ids of every session not yet in a terminal
// state.
func (o *Orchestrator) OpenSessions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for id, r := range o.sessions {
		if !session.IsTerminal(r.State) {
			out = append(out, id)
		}
	}
	return out
}

// AwaitingBER returns the pac_ids of sessions that have received their
// WRAP and are waiting on BER issuance.
func (o *Orchestrator) AwaitingBER() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for id, r := range o.sessions {
		if r.State == session.BERRequiredState {
			out = append(out, id)
		}
	}
	return out
}

// AwaitingEmission returns the pac_ids of sessions holding an issued but
// not yet emitted BER.
func (o *Orchestrator) AwaitingEmission() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for id, r := range o.sessions {
		if r.State == session.BERIssued {
			out = append(out, id)
		}
	}
	return out
}
