package model

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentgraph/core"
)

// ProviderMock is the provider name reported by MockModel.
const ProviderMock = "mock"

//go:embed mock_transcript.yaml
var mockTranscriptYAML []byte

var (
	mockTranscriptOnce sync.Once
	mockTranscriptJSON string
	mockTranscriptErr  error
)

// MockTranscriptSummary returns the fixed example summary the mock model
// emits for structured output requests.
func MockTranscriptSummary() (*core.TranscriptSummary, error) {
	var summary core.TranscriptSummary
	if err := yaml.Unmarshal(mockTranscriptYAML, &summary); err != nil {
		return nil, fmt.Errorf("decode mock transcript fixture: %w", err)
	}
	return &summary, nil
}

func mockTranscript() (string, error) {
	mockTranscriptOnce.Do(func() {
		summary, err := MockTranscriptSummary()
		if err != nil {
			mockTranscriptErr = err
			return
		}

		b, err := json.Marshal(summary)
		if err != nil {
			mockTranscriptErr = fmt.Errorf("encode mock transcript fixture: %w", err)
			return
		}

		mockTranscriptJSON = string(b)
	})

	return mockTranscriptJSON, mockTranscriptErr
}

// Names of the tools the mock knows how to drive. They match the tool
// package constants; the mock only calls a tool the request offers.
const (
	mockCalculator = "calculator"
	mockWebSearch  = "web_search"
	mockAskHuman   = "ask_human"
)

var (
	arithmeticPattern = regexp.MustCompile(`\(?\s*\d+(?:\.\d+)?\s*\)?(?:\s*(?:\*\*|[-+*/^])\s*\(?\s*\d+(?:\.\d+)?\s*\)?)+`)
	searchPattern     = regexp.MustCompile(`(?i)^(?:please\s+)?(?:search(?:\s+for)?|look\s+up|find)\s+(.+)$`)
	inlineSearch      = regexp.MustCompile(`(?i)(?:search\s+for|look\s+up)\s+(.+)$`)
)

// MockModel is the deterministic, offline Model used when no provider
// credential is configured. It never performs network I/O, and identical
// input conversations yield identical output.
//
// Rules, applied to the trailing messages of the request:
//   - a ResponseSchema request returns the fixed transcript summary as JSON
//   - trailing tool results are summarized (errors are acknowledged)
//   - "ask me" asks the user through ask_human
//   - arithmetic-looking text calls the calculator with the expression
//   - "search for" / "look up" calls web_search with the query
//   - anything else is echoed as "Mock response to: <text>"
type MockModel struct {
	info      Info
	mu        sync.RWMutex
	responses map[string]string
}

// NewMockModel constructs a MockModel reporting the given model name.
func NewMockModel(name string) *MockModel {
	if name == "" {
		name = ProviderMock
	}
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      ProviderMock,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned final answer for an exact user prompt.
// It takes precedence over the built-in rules.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// Generate implements Model. With req.Stream it emits the text word by word
// as partial responses before the final one.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		msg, finish, err := m.respond(req)
		if err != nil {
			errCh <- err
			return
		}

		respID := fmt.Sprintf("mock_%d", len(req.Messages))

		if req.Stream {
			if text := msg.Text(); text != "" {
				for _, word := range strings.SplitAfter(text, " ") {
					select {
					case <-ctx.Done():
						errCh <- ctx.Err()
						return
					case respCh <- Response{
						ID:      respID,
						Partial: true,
						Message: core.NewMessage(core.RoleAssistant, core.TextPart{Text: word}),
					}:
					}
				}
			}
		}

		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{ID: respID, Message: msg, FinishReason: finish}:
		}
	}()

	return respCh, errCh
}

func (m *MockModel) respond(req Request) (core.Message, string, error) {
	if req.ResponseSchema != nil {
		text, err := mockTranscript()
		if err != nil {
			return core.Message{}, "", err
		}
		return core.NewAssistantMessage(text), "stop", nil
	}

	if len(req.Messages) == 0 {
		return core.Message{}, "", fmt.Errorf("no messages provided")
	}

	if results := trailingToolResults(req.Messages); len(results) > 0 {
		return core.NewAssistantMessage(summarizeResults(results)), "stop", nil
	}

	last := req.Messages[len(req.Messages)-1]
	text := strings.TrimSpace(last.Text())

	m.mu.RLock()
	canned, ok := m.responses[text]
	m.mu.RUnlock()

	if ok {
		return core.NewAssistantMessage(canned), "stop", nil
	}

	offered := make(map[string]bool, len(req.Tools))
	for _, t := range req.Tools {
		offered[t.Name] = true
	}

	callID := fmt.Sprintf("call_%d_0", len(req.Messages))
	lower := strings.ToLower(text)

	switch {
	case offered[mockAskHuman] && strings.Contains(lower, "ask me"):
		return toolCallMessage(callID, mockAskHuman, map[string]any{
			"question": "Could you tell me more about what you need?",
		}), "tool_calls", nil
	case offered[mockCalculator] && arithmeticPattern.MatchString(text):
		expr := strings.Join(strings.Fields(arithmeticPattern.FindString(text)), "")
		return toolCallMessage(callID, mockCalculator, map[string]any{"expression": expr}), "tool_calls", nil
	case offered[mockWebSearch]:
		if q := searchQuery(text); q != "" {
			return toolCallMessage(callID, mockWebSearch, map[string]any{"query": q}), "tool_calls", nil
		}
	}

	return core.NewAssistantMessage("Mock response to: " + text), "stop", nil
}

func searchQuery(text string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(text), "?.!")

	if m := searchPattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}

	if m := inlineSearch.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}

	return ""
}

func toolCallMessage(id, name string, args map[string]any) core.Message {
	b, _ := json.Marshal(args)
	return core.NewAssistantMessage("", core.ToolCall{ID: id, Name: name, Arguments: string(b)})
}

func trailingToolResults(msgs []core.Message) []core.ToolResult {
	var results []core.ToolResult

	for i := len(msgs) - 1; i >= 0 && msgs[i].Role == core.RoleTool; i-- {
		results = append(msgs[i].ToolResults(), results...)
	}

	return results
}

func summarizeResults(results []core.ToolResult) string {
	lines := make([]string, 0, len(results))

	for _, r := range results {
		switch {
		case r.IsError():
			lines = append(lines, fmt.Sprintf("I was unable to complete the request: the %s tool reported an error (%s).", r.Name, r.Error))
		case r.Name == mockCalculator:
			lines = append(lines, fmt.Sprintf("The result is %s.", r.Text()))
		case r.Name == mockWebSearch:
			lines = append(lines, "Here is what I found:\n"+bulletList(r.Content))
		default:
			lines = append(lines, fmt.Sprintf("The %s tool returned: %s", r.Name, r.Text()))
		}
	}

	return strings.Join(lines, "\n")
}

func bulletList(content any) string {
	var items []string

	switch v := content.(type) {
	case []string:
		items = v
	case []any:
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
	default:
		items = []string{fmt.Sprint(v)}
	}

	if len(items) == 0 {
		return "- no results"
	}

	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(item)
	}

	return sb.String()
}
