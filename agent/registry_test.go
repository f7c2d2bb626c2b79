package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

type noSearch struct{}

func (noSearch) Name() string { return "none" }

func (noSearch) Search(context.Context, string, int) ([]tool.SearchResult, error) {
	return nil, tool.ErrSearchUnavailable
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := NewDefaultRegistry(noSearch{})
	require.NoError(t, err)

	assert.Equal(t, ResearchAssistantID, reg.DefaultID())
	assert.Equal(t, ResearchAssistantID, reg.Default().ID)

	infos := reg.List()
	require.Len(t, infos, 2)
	assert.Equal(t, Info{
		ID:          ResearchAssistantID,
		Description: "A research assistant with web search and calculator.",
		Tools:       []string{tool.CalculatorName, tool.WebSearchName, tool.AskHumanName},
	}, infos[0])
	assert.Equal(t, ChatbotID, infos[1].ID)
	assert.Empty(t, infos[1].Tools)
}

func TestRegistry_Get(t *testing.T) {
	reg, err := NewDefaultRegistry(noSearch{})
	require.NoError(t, err)

	d, err := reg.Get("")
	require.NoError(t, err)
	assert.Equal(t, ResearchAssistantID, d.ID)

	d, err = reg.Get(ChatbotID)
	require.NoError(t, err)
	assert.Equal(t, ChatbotID, d.ID)

	_, err = reg.Get("nope")
	require.ErrorIs(t, err, core.ErrAgentNotFound)
}

func TestNewRegistry_Validation(t *testing.T) {
	a, err := NewDefinition("a", "first", nil)
	require.NoError(t, err)

	_, err = NewRegistry("a", a, a)
	require.ErrorContains(t, err, "duplicate")

	_, err = NewRegistry("missing", a)
	require.ErrorIs(t, err, core.ErrAgentNotFound)

	_, err = NewDefinition(" ", "blank", nil)
	require.Error(t, err)

	_, err = NewDefinition("dup-tools", "", []tool.Tool{tool.NewCalculator(), tool.NewCalculator()})
	require.ErrorContains(t, err, "duplicate tool name")
}

func TestResearchAssistant_MockScenario(t *testing.T) {
	reg, err := NewDefaultRegistry(noSearch{})
	require.NoError(t, err)

	d, err := reg.Get(ResearchAssistantID)
	require.NoError(t, err)

	state := core.NewConversationState("t-1")
	state.Append(core.NewUserMessage("What is 2+2?"))

	res, err := d.Graph.Invoke(context.Background(), model.NewMockModel("mock"), state)
	require.NoError(t, err)

	require.Len(t, res.ToolTrace, 1)
	assert.Equal(t, tool.CalculatorName, res.ToolTrace[0].Name)
	assert.JSONEq(t, `{"expression":"2+2"}`, res.ToolTrace[0].Arguments)
	assert.Contains(t, res.Response, "4")
	assert.False(t, res.Truncated)
}

func TestResearchAssistant_SearchFailureIsRecoverable(t *testing.T) {
	reg, err := NewDefaultRegistry(noSearch{})
	require.NoError(t, err)

	state := core.NewConversationState("t-1")
	state.Append(core.NewUserMessage("Search for the weather in Paris"))

	res, err := reg.Default().Graph.Invoke(context.Background(), model.NewMockModel("mock"), state)
	require.NoError(t, err)

	require.Len(t, res.ToolTrace, 1)
	assert.Equal(t, tool.CodeSearchUnavailable, res.ToolTrace[0].Code)
	assert.Contains(t, res.Response, "unable to complete the request")
}

func TestResearchInstruction_CalculatorGrammar(t *testing.T) {
	assert.NotContains(t, researchInstruction, "numexpr")

	for _, expr := range []string{"1+2-3*4/5", "2^3", "2**3", "(1+2)*pi", "e"} {
		_, err := tool.Evaluate(expr)
		assert.NoError(t, err, expr)
	}

	for _, fn := range []string{"sqrt", "abs", "exp", "log", "ln", "log10", "log2", "sin", "cos", "tan", "asin", "acos", "atan", "floor", "ceil", "round", "min", "max"} {
		assert.True(t, strings.Contains(researchInstruction, " "+fn), fn)

		_, err := tool.Evaluate(fn + "(0.5)")
		assert.NoError(t, err, fn)
	}
}
