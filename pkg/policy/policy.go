// Package policy implements the pure mode/lane policy matrix (C2): a
// stateless function from (mode, lane) to an allowed tool set and an
// allowed path-prefix set, plus a pre-execution tool filter built on top
// of it.
package policy

import (
	"fmt"
	"sort"
)

// Mode is the closed set of PAC modes the policy matrix recognizes.
type Mode string

const (
	ModeOrchestration Mode = "ORCHESTRATION"
	ModeExecution     Mode = "EXECUTION"
	ModeReview        Mode = "REVIEW"
	ModeAdvisory      Mode = "ADVISORY"
)

// LaneAll is the special lane that carries no path restriction.
const LaneAll = "ALL"

// Closed tool universe, grouped by the access level they require.
var (
	authorityTools = []string{"issue_ber", "issue_pdo", "issue_positive_closure"}
	writeTools     = []string{"write_file", "execute_command", "delete_file"}
	readTools      = []string{"read_file", "list_files", "search"}
)

func allTools() []string {
	all := append(append(append([]string{}, authorityTools...), writeTools...), readTools...)
	sort.Strings(all)
	return all
}

// lanePrefixes is the closed lane -> path-prefix table. A lane absent from
// this table is fail-closed: it resolves to an empty (nothing-allowed)
// prefix set, never to unrestricted access.
var lanePrefixes = map[string][]string{
	"CORE":  {"/core/"},
	"EDGE":  {"/edge/"},
	"DRAFT": {"/draft/"},
}

// ToolDenied is returned by AssertTool when a tool is not in the allowed
// set for the given mode and lane.
type ToolDenied struct {
	Tool string
	Mode string
	Lane string
}

func (e *ToolDenied) Error() string {
	return fmt.Sprintf("policy: tool %q denied for mode %q lane %q", e.Tool, e.Mode, e.Lane)
}

// PathDenied is returned when a path does not match any allowed prefix for
// the given lane.
type PathDenied struct {
	Path string
	Lane string
}

func (e *PathDenied) Error() string {
	return fmt.Sprintf("policy: path %q denied for lane %q", e.Path, e.Lane)
}

// Decision is the result of Evaluate(mode, lane).
type Decision struct {
	AllowedTools []string
	DeniedTools  []string
	// PathPrefixes is nil when the lane is unrestricted (LaneAll), and an
	// empty, non-nil slice when the lane is unknown (fail-closed).
	PathPrefixes []string
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, i := range items {
		set[i] = struct{}{}
	}
	return set
}

func allowedToolsForMode(mode string) []string {
	switch Mode(mode) {
	case ModeOrchestration:
		out := append([]string{}, authorityTools...)
		out = append(out, writeTools...)
		out = append(out, readTools...)
		return out
	case ModeExecution:
		out := append([]string{}, writeTools...)
		out = append(out, readTools...)
		return out
	case ModeReview:
		return append([]string{}, readTools...)
	case ModeAdvisory:
		return []string{"read_file"}
	default:
		// Unknown mode: most-restrictive read-only set, fail-closed.
		return []string{"read_file"}
	}
}

// Evaluate is the pure (mode, lane) -> policy decision function.
func Evaluate(mode, lane string) Decision {
	allowed := allowedToolsForMode(mode)
	allowedSet := toSet(allowed)

	var denied []string
	for _, t := range allTools() {
		if _, ok := allowedSet[t]; !ok {
			denied = append(denied, t)
		}
	}

	return Decision{AllowedTools: allowed, DeniedTools: denied, PathPrefixes: pathPrefixesForLane(lane)}
}

// pathPrefixesForLane is the closed lane -> path-prefix mapping. nil means
// unrestricted (LaneAll); a non-nil empty slice means the lane is unknown
// and therefore allows no paths (fail-closed).
func pathPrefixesForLane(lane string) []string {
	if lane == LaneAll {
		return nil
	}
	if p, ok := lanePrefixes[lane]; ok {
		return p
	}
	return []string{}
}

// Strip removes any tool from availableTools not allowed for (mode, lane),
// preserving input order. Strip is idempotent: stripping an already
// stripped list returns the same list.
func Strip(availableTools []string, mode, lane string) []string {
	allowed := toSet(Evaluate(mode, lane).AllowedTools)

	out := make([]string, 0, len(availableTools))
	for _, t := range availableTools {
		if _, ok := allowed[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// AssertTool fails with ToolDenied unless tool is allowed for (mode, lane).
// A tool outside the known universe is always denied.
func AssertTool(tool, mode, lane string) error {
	decision := Evaluate(mode, lane)
	for _, t := range decision.AllowedTools {
		if t == tool {
			return nil
		}
	}
	return &ToolDenied{Tool: tool, Mode: mode, Lane: lane}
}

// AssertPath fails with PathDenied unless path matches one of the allowed
// prefixes for lane. A nil prefix set (LaneAll) always passes.
func AssertPath(path, lane string) error {
	prefixes := pathPrefixesForLane(lane)
	if prefixes == nil {
		return nil
	}
	for _, prefix := range prefixes {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return nil
		}
	}
	return &PathDenied{Path: path, Lane: lane}
}
