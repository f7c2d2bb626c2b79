package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

// Registry is the immutable set of agent definitions. One definition is
// the default, used when callers omit an agent id.
type Registry struct {
	defs      map[string]*Definition
	order     []string
	defaultID string
}

// NewRegistry registers defs in order. Duplicate ids are rejected and
// defaultID must name one of them.
func NewRegistry(defaultID string, defs ...*Definition) (*Registry, error) {
	r := &Registry{
		defs:      make(map[string]*Definition, len(defs)),
		order:     make([]string, 0, len(defs)),
		defaultID: defaultID,
	}

	for _, d := range defs {
		if d == nil {
			return nil, fmt.Errorf("nil agent definition")
		}

		if _, exists := r.defs[d.ID]; exists {
			return nil, fmt.Errorf("duplicate agent id %q", d.ID)
		}

		r.defs[d.ID] = d
		r.order = append(r.order, d.ID)
	}

	if _, ok := r.defs[defaultID]; !ok {
		return nil, fmt.Errorf("default agent %q: %w", defaultID, core.ErrAgentNotFound)
	}

	return r, nil
}

// Get returns the definition for id. An empty id selects the default.
func (r *Registry) Get(id string) (*Definition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = r.defaultID
	}

	d, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", id, core.ErrAgentNotFound)
	}

	return d, nil
}

// List returns agent summaries in registration order.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id].Info())
	}
	return out
}

// Default returns the default definition.
func (r *Registry) Default() *Definition { return r.defs[r.defaultID] }

// DefaultID returns the id of the default definition.
func (r *Registry) DefaultID() string { return r.defaultID }
