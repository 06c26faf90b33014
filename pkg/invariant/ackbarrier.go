package invariant

import (
	"sync"
	"time"
)

// AckBarrier tracks, per PAC, the set of agent identities required to
// acknowledge before execution may cross AGENT_EXECUTION. The core does
// not measure time itself (§5 "Cancellation & timeouts"); Expired is driven
// by an externally supplied deadline and current time.
type AckBarrier struct {
	mu        sync.Mutex
	required  map[string]map[string]struct{}
	acked     map[string]map[string]struct{}
	deadlines map[string]time.Time
}

// NewAckBarrier constructs an empty barrier.
func NewAckBarrier() *AckBarrier {
	return &AckBarrier{
		required:  make(map[string]map[string]struct{}),
		acked:     make(map[string]map[string]struct{}),
		deadlines: make(map[string]time.Time),
	}
}

// SetRequired registers the set of agent identities a PAC must collect
// acknowledgements from, along with the deadline by which they must all
// arrive.
func (b *AckBarrier) SetRequired(pacID string, agentIDs []string, deadline time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := make(map[string]struct{}, len(agentIDs))
	for _, id := range agentIDs {
		set[id] = struct{}{}
	}
	b.required[pacID] = set
	b.acked[pacID] = make(map[string]struct{})
	b.deadlines[pacID] = deadline
}

// RecordAck records that agentID acknowledged pacID. Acking an agent that
// isn't in the required set is a no-op — it neither satisfies nor corrupts
// the barrier.
func (b *AckBarrier) RecordAck(pacID, agentID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	required, ok := b.required[pacID]
	if !ok {
		return &UnknownBarrier{PacID: pacID}
	}
	if _, wanted := required[agentID]; !wanted {
		return nil
	}
	b.acked[pacID][agentID] = struct{}{}
	return nil
}

// IsSatisfied reports whether every required agent has acknowledged.
func (b *AckBarrier) IsSatisfied(pacID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	required, ok := b.required[pacID]
	if !ok {
		return false
	}
	acked := b.acked[pacID]
	for id := range required {
		if _, done := acked[id]; !done {
			return false
		}
	}
	return true
}

// Expired reports whether now is past the deadline set for pacID and the
// barrier is not yet satisfied. Callers use this to decide whether to
// invalidate the session.
func (b *AckBarrier) Expired(pacID string, now time.Time) bool {
	b.mu.Lock()
	deadline, ok := b.deadlines[pacID]
	b.mu.Unlock()
	if !ok {
		return false
	}
	return now.After(deadline) && !b.IsSatisfied(pacID)
}

// MissingAgents returns the required agent ids that have not yet
// acknowledged, for diagnostics.
func (b *AckBarrier) MissingAgents(pacID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	required, ok := b.required[pacID]
	if !ok {
		return nil
	}
	acked := b.acked[pacID]
	var missing []string
	for id := range required {
		if _, done := acked[id]; !done {
			missing = append(missing, id)
		}
	}
	return missing
}
