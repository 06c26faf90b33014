package invariant

import (
	"time"

	"github.com/mindburn-labs/governor/core/pkg/identity"
)

// EvalContext is the caller's context object for a single Evaluate call.
// It carries everything the class-specific evaluators reason over; unused
// fields are simply left zero for enforcement points that don't need them.
type EvalContext struct {
	Data       map[string]interface{}
	KnownIDs   map[string]struct{}
	Identity   *identity.Identity
	Lane       string
	Timestamps map[string]time.Time
}

func (c EvalContext) field(name string) (interface{}, bool) {
	if c.Data == nil {
		return nil, false
	}
	v, ok := c.Data[name]
	return v, ok
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case []interface{}:
		return len(t) == 0
	case bool:
		return false
	default:
		return false
	}
}
