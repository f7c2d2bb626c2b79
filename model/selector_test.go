package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
)

type fakeLive struct {
	provider, name, key string
}

func (f *fakeLive) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	return nil, nil
}

func (f *fakeLive) Info() Info { return Info{Name: f.name, Provider: f.provider, SupportsTools: true} }

func factoryFor(provider string) Factory {
	return func(providerModel, apiKey string) Model {
		return &fakeLive{provider: provider, name: providerModel, key: apiKey}
	}
}

func newTestSelector(creds Credentials, optFns ...func(o *SelectorOptions)) *Selector {
	return NewSelector(creds, append([]func(o *SelectorOptions){func(o *SelectorOptions) {
		o.Anthropic = factoryFor(ProviderAnthropic)
		o.OpenAI = factoryFor(ProviderOpenAI)
	}}, optFns...)...)
}

func TestSelector_PriorityChain(t *testing.T) {
	tests := []struct {
		name     string
		creds    Credentials
		provider string
		model    string
	}{
		{"both", Credentials{AnthropicAPIKey: "a", OpenAIAPIKey: "o"}, ProviderAnthropic, "claude-3-haiku-20240307"},
		{"openai only", Credentials{OpenAIAPIKey: "o"}, ProviderOpenAI, "gpt-4o-mini"},
		{"none", Credentials{}, ProviderMock, "mock"},
		{"blank keys", Credentials{AnthropicAPIKey: "  "}, ProviderMock, "mock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := newTestSelector(tt.creds).Resolve("")
			require.NoError(t, err)
			assert.Equal(t, tt.provider, m.Info().Provider)
			assert.Equal(t, tt.model, m.Info().Name)
		})
	}
}

func TestSelector_RequestedModel(t *testing.T) {
	s := newTestSelector(Credentials{AnthropicAPIKey: "a", OpenAIAPIKey: "o"})

	m, err := s.Resolve("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", m.Info().Name)
	assert.Equal(t, "o", m.(*fakeLive).key)

	m, err = s.Resolve("Claude-3.5-Sonnet")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-sonnet-latest", m.Info().Name)

	for _, id := range []string{"mock", "fake"} {
		m, err = s.Resolve(id)
		require.NoError(t, err)
		assert.True(t, m.Info().IsMock())
	}
}

func TestSelector_RequestedWithoutCredentialFallsBack(t *testing.T) {
	s := newTestSelector(Credentials{OpenAIAPIKey: "o"})

	sel, err := s.Select("claude-3.5-haiku")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", sel.ID)
	assert.Equal(t, ProviderOpenAI, sel.Model.Info().Provider)
}

func TestSelector_UnknownModel(t *testing.T) {
	_, err := newTestSelector(Credentials{}).Resolve("llama-70b")
	assert.ErrorIs(t, err, core.ErrUnknownModel)
}

func TestSelector_DefaultOption(t *testing.T) {
	s := newTestSelector(Credentials{AnthropicAPIKey: "a", OpenAIAPIKey: "o"}, func(o *SelectorOptions) {
		o.Default = "gpt-4o"
	})

	sel, err := s.Select("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", sel.ID)
	assert.False(t, s.Mock())
}

func TestSelector_MissingFactoryMeansUnavailable(t *testing.T) {
	s := NewSelector(Credentials{AnthropicAPIKey: "a"})

	m, err := s.Resolve("")
	require.NoError(t, err)
	assert.True(t, m.Info().IsMock())
	assert.True(t, s.Mock())
	assert.Equal(t, []string{"fake", "mock"}, s.Available())
}

func TestSelector_Available(t *testing.T) {
	s := newTestSelector(Credentials{OpenAIAPIKey: "o"})
	assert.Equal(t, []string{"fake", "gpt-4o", "gpt-4o-mini", "mock"}, s.Available())
}
