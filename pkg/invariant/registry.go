package invariant

import "fmt"

// Registry is the closed, statically defined invariant table, loaded once
// and read-only thereafter.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry validates and freezes a set of invariant definitions.
func NewRegistry(defs []Definition) (*Registry, error) {
	table := make(map[string]Definition, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("invariant: definition with empty id")
		}
		if !d.Class.valid() {
			return nil, fmt.Errorf("invariant: %s has invalid class %q", d.ID, d.Class)
		}
		if !d.Severity.valid() {
			return nil, fmt.Errorf("invariant: %s has invalid severity %q", d.ID, d.Severity)
		}
		if len(d.ApplicableEnforcementPoints) == 0 {
			return nil, fmt.Errorf("invariant: %s has no applicable enforcement points", d.ID)
		}
		for _, ep := range d.ApplicableEnforcementPoints {
			if !ep.valid() {
				return nil, fmt.Errorf("invariant: %s references unknown enforcement point %q", d.ID, ep)
			}
		}
		if _, exists := table[d.ID]; exists {
			return nil, fmt.Errorf("invariant: duplicate definition id %s", d.ID)
		}
		table[d.ID] = d
	}
	return &Registry{defs: table}, nil
}

// ApplicableAt returns every definition whose applicable_enforcement_points
// includes ep, in no particular order (the registry is a map, so neither
// insertion order nor any other order is preserved); callers needing a
// stable evaluation order sort the returned slice by ID, as Engine does.
func (r *Registry) ApplicableAt(ep EnforcementPoint) []Definition {
	var out []Definition
	for _, d := range r.defs {
		for _, applicable := range d.ApplicableEnforcementPoints {
			if applicable == ep {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// Get returns the definition for id, or ok=false if unknown.
func (r *Registry) Get(id string) (Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Len returns the number of registered invariants.
func (r *Registry) Len() int { return len(r.defs) }
