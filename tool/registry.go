package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/model"
)

// Registry is an immutable, ordered set of tools resolved by name. It is
// built once and exposes read-only accessors, so concurrent lookups need no
// locking.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from tools, preserving their order.
// Empty or duplicate names are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools)), order: make([]string, 0, len(tools))}

	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("nil tool")
		}

		name := strings.TrimSpace(t.Name())
		if name == "" {
			return nil, fmt.Errorf("tool name must not be empty")
		}

		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}

		r.tools[name] = t
		r.order = append(r.order, name)
	}

	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. Intended for
// package-level wiring of static tool sets.
func MustRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Tools returns tools in registration order.
func (r *Registry) Tools() []Tool {
	if r == nil {
		return nil
	}
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns the model-facing declarations of all tools in
// registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	if r == nil {
		return nil
	}
	out := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, model.ToolDefinition{
			Name:        name,
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
