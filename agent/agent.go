package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/tool"
)

// Definition is a registry entry: identifier, description, the ordered tool
// set bound to the agent and the graph compiled over it. Immutable after
// construction.
type Definition struct {
	ID          string
	Description string
	Tools       *tool.Registry
	Graph       *graph.Graph
}

// Info is the public summary of a definition.
type Info struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
}

// Options configures NewDefinition.
type Options struct {
	Instruction Instruction

	// Graph options applied after the definition's own settings.
	Graph []func(o *graph.Options)
}

// NewDefinition builds the tool registry and compiles the state graph for
// an agent.
func NewDefinition(id, description string, tools []tool.Tool, optFns ...func(o *Options)) (*Definition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("agent id must not be empty")
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	reg, err := tool.NewRegistry(tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", id, err)
	}

	graphOpts := append([]func(o *graph.Options){func(o *graph.Options) {
		o.Name = id
		o.Instruction = opts.Instruction
	}}, opts.Graph...)

	return &Definition{
		ID:          id,
		Description: description,
		Tools:       reg,
		Graph:       graph.New(reg, graphOpts...),
	}, nil
}

// Info returns the public summary.
func (d *Definition) Info() Info {
	return Info{ID: d.ID, Description: d.Description, Tools: d.Tools.Names()}
}
