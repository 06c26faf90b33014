// Command govcored wires the governance enforcement core's ten components
// together and drives one PAC through the full dispatch -> receive_wrap
// lifecycle, printing the observable event stream and the resulting PDO.
// It is a demonstration of wiring, not a network service: the core is a
// library, and this binary is its minimal embedding.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mindburn-labs/governor/core/pkg/config"
	"github.com/mindburn-labs/governor/core/pkg/identity"
	"github.com/mindburn-labs/governor/core/pkg/invariant"
	"github.com/mindburn-labs/governor/core/pkg/orchestrator"
	"github.com/mindburn-labs/governor/core/pkg/pac"
	"github.com/mindburn-labs/governor/core/pkg/pdostore"
	"github.com/mindburn-labs/governor/core/pkg/telemetry"
	"github.com/mindburn-labs/governor/core/pkg/wrap"
)

func main() {
	cfg := config.Load()
	provider := telemetry.New(telemetry.Config{ServiceName: "govcored"})

	registry, err := identity.NewRegistry([]*identity.Identity{
		{
			IdentityID:     "SYS-ORCH-01",
			Class:          identity.ClassSystemOrchestrator,
			DisplayRole:    "orchestrator",
			PermittedModes: map[string]struct{}{"EXEC": {}},
			PermittedLanes: map[string]struct{}{"core": {}},
			CanIssueBER:    true,
		},
		{
			IdentityID:     "GID-01",
			Class:          identity.ClassAgent,
			DisplayRole:    "builder agent",
			PermittedModes: map[string]struct{}{"EXEC": {}},
			PermittedLanes: map[string]struct{}{"core": {}},
			CanIssueWRAP:   true,
		},
	})
	if err != nil {
		log.Fatalf("govcored: failed to build identity registry: %v", err)
	}

	invariantRegistry, err := invariant.NewRegistry([]invariant.Definition{
		{
			ID:                          "S-PAC-001",
			Class:                       invariant.ClassStructural,
			Name:                        "objective present",
			ApplicableEnforcementPoints: []invariant.EnforcementPoint{invariant.PACAdmission},
			Severity:                    invariant.SeverityCritical,
			RequiredFields:              []string{"objective"},
		},
	})
	if err != nil {
		log.Fatalf("govcored: failed to build invariant registry: %v", err)
	}

	engine := invariant.NewEngine(invariantRegistry, invariant.ActivationFlags{
		SchemaValidationEnabled:     true,
		InvariantRegistryLoaded:     true,
		FailClosedEnabled:           cfg.HardFailMode,
		RuntimeAdmissionHookEnabled: true,
	}, cfg.HardFailMode)

	store := pdostore.New(cfg.ShardCount, cfg.ShardCapacity, provider)
	orch := orchestrator.New(registry, engine, store, cfg, provider)

	p := &pac.PAC{
		PacID:                "PAC-ORCH-EXEC-CORE-DEMO-001",
		Issuer:               "SYS-ORCH-01",
		TargetIdentity:       "GID-01",
		Mode:                 "EXEC",
		Discipline:           "BUILD",
		Objective:            "demonstrate the enforcement loop end to end",
		ExecutionPlan:        "dispatch, execute, submit WRAP, close the loop",
		RequiredDeliverables: []string{"pdo"},
		Constraints:          []string{"single pass"},
		SuccessCriteria:      []string{"session reaches SESSION_COMPLETE"},
		Dispatch: pac.Dispatch{
			TargetIdentity: "GID-01",
			Role:           "builder",
			Lane:           "core",
			Mode:           "EXEC",
		},
		WrapObligation: "REQUIRED",
		BerObligation:  "REQUIRED",
		FinalState:     "DEMO_COMPLETE",
	}

	dispatchResult, err := orch.Dispatch(p)
	if err != nil {
		log.Fatalf("govcored: dispatch rejected: %v", err)
	}
	fmt.Printf("dispatched %s -> %s (status=%s)\n", dispatchResult.PacID, dispatchResult.TargetIdentity, dispatchResult.Status)

	agentIdentity, err := registry.Resolve("GID-01")
	if err != nil {
		log.Fatalf("govcored: failed to resolve agent identity: %v", err)
	}
	agentTokens, err := orch.TokensFor("GID-01")
	if err != nil {
		log.Fatalf("govcored: failed to derive agent signing key: %v", err)
	}
	signature, err := agentTokens.GenerateToken(agentIdentity, time.Hour)
	if err != nil {
		log.Fatalf("govcored: failed to sign demo attestation: %v", err)
	}

	w := &wrap.WRAP{
		WrapID:         "WRAP-" + p.PacID,
		PacID:          p.PacID,
		IssuerIdentity: "GID-01",
		Proof:          wrap.Proof{ArtifactsCreated: []string{"demo-output.bin"}},
		Decision:       wrap.Decision{ActionSummary: "ran the demo build"},
		Outcome:        wrap.Outcome{Status: wrap.StatusComplete, Deliverables: []string{"demo-output.bin"}},
		Attestation: wrap.Attestation{
			IssuerIdentity: "GID-01",
			Timestamp:      time.Now(),
			SignatureHash:  signature,
			BerEligible:    true,
		},
	}

	pdoArtifact, err := orch.ReceiveWrap(context.Background(), p.PacID, w, "GID-01")
	if err != nil {
		log.Fatalf("govcored: receive_wrap failed: %v", err)
	}
	fmt.Printf("pdo_id=%s outcome_status=%s pdo_hash=%s\n", pdoArtifact.PdoID, pdoArtifact.OutcomeStatus, pdoArtifact.PdoHash)

	closed, err := orch.LoopClosed(p.PacID)
	if err != nil {
		log.Fatalf("govcored: loop state lookup failed: %v", err)
	}
	fmt.Printf("loop_closed=%v\n", closed)

	ok, errs := orch.ValidateStoreIntegrity()
	fmt.Printf("store_integrity_ok=%v errors=%v\n", ok, errs)

	events := orch.Events()
	fmt.Println("event stream:")
	for seq := uint64(1); seq <= uint64(events.Length()); seq++ {
		entry, err := events.Get(seq)
		if err != nil {
			continue
		}
		fmt.Printf("  %d: %s\n", entry.Sequence, entry.EntryType)
	}

	if err := provider.Shutdown(context.Background()); err != nil {
		log.Printf("govcored: telemetry shutdown: %v", err)
	}
}
