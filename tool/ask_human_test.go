package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskHuman_RequestsInterrupt(t *testing.T) {
	tc := newToolContext(AskHumanName)

	out, err := NewAskHuman().Call(tc, map[string]any{"question": "Which city?"})
	require.NoError(t, err)
	assert.Contains(t, out, "forwarded")

	in := tc.InterruptRequest()
	require.NotNil(t, in)
	assert.Equal(t, "Which city?", in.Question)
	assert.Equal(t, "call-1", in.CallID)
	assert.NotEmpty(t, in.Token)
}

func TestAskHuman_EmptyQuestion(t *testing.T) {
	tc := newToolContext(AskHumanName)

	_, err := NewAskHuman().Call(tc, map[string]any{"question": ""})
	require.Error(t, err)
	assert.Nil(t, tc.InterruptRequest())
}
