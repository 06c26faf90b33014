package invariant

import "sync"

// CheckpointStage is the closed, strictly ordered sequence of checkpoints
// the gated flow must complete in order. It is distinct from
// EnforcementPoint: the gated sequence names two intermediate stages
// (RUNTIME_ACK_COLLECTION, AGENT_ACTIVATION) that are not themselves
// invariant-evaluation enforcement points.
type CheckpointStage string

const (
	StagePACAdmission         CheckpointStage = "PAC_ADMISSION"
	StageRuntimeActivation    CheckpointStage = "RUNTIME_ACTIVATION"
	StageRuntimeAckCollection CheckpointStage = "RUNTIME_ACK_COLLECTION"
	StageAgentActivation      CheckpointStage = "AGENT_ACTIVATION"
	StageAgentAckCollection   CheckpointStage = "AGENT_ACK_COLLECTION"
	StageAgentExecution       CheckpointStage = "AGENT_EXECUTION"
	StageReviewGates          CheckpointStage = "REVIEW_GATES"
	StageBEREligibility       CheckpointStage = "BER_ELIGIBILITY"
)

var checkpointOrder = []CheckpointStage{
	StagePACAdmission,
	StageRuntimeActivation,
	StageRuntimeAckCollection,
	StageAgentActivation,
	StageAgentAckCollection,
	StageAgentExecution,
	StageReviewGates,
	StageBEREligibility,
}

func stageIndex(stage CheckpointStage) int {
	for i, s := range checkpointOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// CheckpointTracker enforces the strict per-PAC checkpoint ordering:
// completing a stage out of sequence is itself an invariant failure.
type CheckpointTracker struct {
	mu       sync.Mutex
	progress map[string]int // pac_id -> index of last completed stage, -1 if none
}

// NewCheckpointTracker constructs an empty tracker.
func NewCheckpointTracker() *CheckpointTracker {
	return &CheckpointTracker{progress: make(map[string]int)}
}

// Complete records that pacID has completed stage. It fails with
// OutOfOrderCheckpoint if stage is not the immediate successor of the last
// completed stage for this PAC.
func (t *CheckpointTracker) Complete(pacID string, stage CheckpointStage) error {
	idx := stageIndex(stage)
	if idx < 0 {
		return &OutOfOrderCheckpoint{PacID: pacID, Stage: stage}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.progress[pacID]
	if !ok {
		last = -1
	}

	if idx != last+1 {
		expected := CheckpointStage("")
		if last+1 < len(checkpointOrder) {
			expected = checkpointOrder[last+1]
		}
		return &OutOfOrderCheckpoint{PacID: pacID, Stage: stage, Expected: expected}
	}

	t.progress[pacID] = idx
	return nil
}

// CurrentStage returns the last completed stage for pacID, or "" if none.
func (t *CheckpointTracker) CurrentStage(pacID string) CheckpointStage {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.progress[pacID]
	if !ok || idx < 0 {
		return ""
	}
	return checkpointOrder[idx]
}
