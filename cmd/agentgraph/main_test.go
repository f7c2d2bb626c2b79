package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offline(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "BRAVE_API_KEY", "AGENTGRAPH_DEFAULT_MODEL"} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestAgentsCommand(t *testing.T) {
	offline(t)

	out, err := run(t, "", "agents")
	require.NoError(t, err)
	assert.Contains(t, out, "research-assistant (default)")
	assert.Contains(t, out, "chatbot")
	assert.Contains(t, out, "offline mock model")
}

func TestChatOneShot(t *testing.T) {
	offline(t)

	out, err := run(t, "", "chat", "What is 15 * 7?")
	require.NoError(t, err)
	assert.Contains(t, out, "calculator")
	assert.Contains(t, out, "105")
}

func TestChatInteractive(t *testing.T) {
	offline(t)

	out, err := run(t, "hello\n/clear\nhi again\n/quit\n", "chat", "--agent", "chatbot", "--thread", "cli-1")
	require.NoError(t, err)
	assert.Contains(t, out, "thread cli-1")
	assert.Contains(t, out, "Mock response to: hello")
	assert.Contains(t, out, "Mock response to: hi again")
}

func TestAnalyzeStdin(t *testing.T) {
	offline(t)

	out, err := run(t, "[00:00:00] Interviewer: Welcome John.\n", "analyze")
	require.NoError(t, err)
	assert.Contains(t, out, "Transcript summary")
	assert.Contains(t, out, "TechNova")
	assert.Contains(t, out, "model: mock")

	out, err = run(t, "[00:00:00] Interviewer: Welcome John.\n", "analyze", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"overall_sentiment": "Positive"`)

	_, err = run(t, "", "analyze")
	require.ErrorContains(t, err, "malformed analysis")
}

func TestConfigCommand(t *testing.T) {
	offline(t)

	out, err := run(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "recursion_limit: 25")
	assert.Contains(t, out, "search:    duckduckgo")
	assert.NotContains(t, out, "api_key")
}
