package agent

import (
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(*core.RunContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.RunContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(rc *core.RunContext) (string, error) { return f(rc) }

// Instruction represents either a static instruction template or a dynamic
// provider.
//
// Static text is rendered with text/template before every deciding step.
// Available variables:
//
//	{{.current_date}}  e.g. "October 17, 2026"
//	{{.agent_id}}
//	{{.thread_id}}
type Instruction struct {
	text     string
	provider Provider
	now      func() time.Time
}

// NewInstructionFromText creates an Instruction from a static template.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static template.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(rc *core.RunContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(rc)
	}

	now := time.Now
	if i.now != nil {
		now = i.now
	}

	return util.RenderTemplate(i.text, map[string]any{
		"current_date": now().Format("January 02, 2006"),
		"agent_id":     rc.AgentID,
		"thread_id":    rc.ThreadID,
	})
}
