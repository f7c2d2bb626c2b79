package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Credentials is the credential lookup supplied by configuration.
type Credentials struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
}

// HasAnthropic reports whether a Claude credential is configured.
func (c Credentials) HasAnthropic() bool { return strings.TrimSpace(c.AnthropicAPIKey) != "" }

// HasOpenAI reports whether a GPT credential is configured.
func (c Credentials) HasOpenAI() bool { return strings.TrimSpace(c.OpenAIAPIKey) != "" }

// CatalogEntry maps a public model identifier to a provider model id.
type CatalogEntry struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	ProviderModel string `json:"provider_model"`
}

// Catalog lists the supported model identifiers.
var Catalog = []CatalogEntry{
	{ID: "claude-3-haiku", Provider: ProviderAnthropic, ProviderModel: "claude-3-haiku-20240307"},
	{ID: "claude-3.5-haiku", Provider: ProviderAnthropic, ProviderModel: "claude-3-5-haiku-latest"},
	{ID: "claude-3.5-sonnet", Provider: ProviderAnthropic, ProviderModel: "claude-3-5-sonnet-latest"},
	{ID: "gpt-4o-mini", Provider: ProviderOpenAI, ProviderModel: "gpt-4o-mini"},
	{ID: "gpt-4o", Provider: ProviderOpenAI, ProviderModel: "gpt-4o"},
	{ID: "mock", Provider: ProviderMock, ProviderModel: "mock"},
	{ID: "fake", Provider: ProviderMock, ProviderModel: "mock"},
}

// Default model identifiers per provider.
const (
	DefaultAnthropicModel = "claude-3-haiku"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultMockModel      = "mock"
)

// Factory builds a live provider model for a provider model id and API key.
type Factory func(providerModel, apiKey string) Model

// SelectorOptions configures a Selector.
type SelectorOptions struct {
	// Anthropic and OpenAI build live models. A provider without a factory
	// is treated as unavailable even if its credential is present.
	Anthropic Factory
	OpenAI    Factory

	// Default is used when a caller does not request a model.
	Default string

	Logger logging.Logger
}

// Selection is the outcome of a resolution: the bound model and the public
// identifier it was resolved to.
type Selection struct {
	ID    string
	Model Model
}

// Selector resolves a requested model identifier to a bound Model once per
// invocation. It holds no mutable state after construction.
type Selector struct {
	creds   Credentials
	opts    SelectorOptions
	catalog map[string]CatalogEntry
	mock    *MockModel
	logger  logging.Logger
}

// NewSelector creates a Selector for the given credentials.
func NewSelector(creds Credentials, optFns ...func(o *SelectorOptions)) *Selector {
	opts := SelectorOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	catalog := make(map[string]CatalogEntry, len(Catalog))
	for _, e := range Catalog {
		catalog[e.ID] = e
	}

	return &Selector{
		creds:   creds,
		opts:    opts,
		catalog: catalog,
		mock:    NewMockModel(DefaultMockModel),
		logger:  logging.OrNoOp(opts.Logger),
	}
}

// Resolve binds a model. An empty identifier uses the configured default
// or, failing that, the priority chain Claude → GPT → mock. A known
// identifier is honoured when its provider is available; otherwise the
// priority chain applies. Unknown identifiers yield core.ErrUnknownModel.
func (s *Selector) Resolve(requested string) (Model, error) {
	sel, err := s.Select(requested)
	if err != nil {
		return nil, err
	}
	return sel.Model, nil
}

// Select is like Resolve but also reports the resolved identifier.
func (s *Selector) Select(requested string) (Selection, error) {
	id := strings.ToLower(strings.TrimSpace(requested))

	if id == "" {
		id = strings.ToLower(strings.TrimSpace(s.opts.Default))
	}

	if id != "" {
		entry, ok := s.catalog[id]
		if !ok {
			return Selection{}, fmt.Errorf("%w: %q", core.ErrUnknownModel, requested)
		}

		if m := s.build(entry); m != nil {
			s.logger.Debug("model.select", "requested", requested, "resolved", entry.ID, "provider", entry.Provider)
			return Selection{ID: entry.ID, Model: m}, nil
		}

		s.logger.Info("model.select.fallback", "requested", entry.ID, "reason", "provider unavailable")
	}

	for _, fallback := range []string{DefaultAnthropicModel, DefaultOpenAIModel, DefaultMockModel} {
		entry := s.catalog[fallback]
		if m := s.build(entry); m != nil {
			s.logger.Debug("model.select", "requested", requested, "resolved", entry.ID, "provider", entry.Provider)
			return Selection{ID: entry.ID, Model: m}, nil
		}
	}

	// unreachable: the mock is always available
	return Selection{ID: DefaultMockModel, Model: s.mock}, nil
}

// Available lists identifiers that resolve to themselves with the current
// credentials, sorted.
func (s *Selector) Available() []string {
	var out []string

	for _, e := range Catalog {
		if s.providerAvailable(e.Provider) {
			out = append(out, e.ID)
		}
	}

	sort.Strings(out)

	return out
}

// Mock reports whether an empty request resolves to the offline model.
func (s *Selector) Mock() bool {
	sel, err := s.Select("")
	return err == nil && sel.Model.Info().IsMock()
}

func (s *Selector) providerAvailable(provider string) bool {
	switch provider {
	case ProviderAnthropic:
		return s.creds.HasAnthropic() && s.opts.Anthropic != nil
	case ProviderOpenAI:
		return s.creds.HasOpenAI() && s.opts.OpenAI != nil
	case ProviderMock:
		return true
	default:
		return false
	}
}

func (s *Selector) build(entry CatalogEntry) Model {
	if !s.providerAvailable(entry.Provider) {
		return nil
	}

	switch entry.Provider {
	case ProviderAnthropic:
		return s.opts.Anthropic(entry.ProviderModel, s.creds.AnthropicAPIKey)
	case ProviderOpenAI:
		return s.opts.OpenAI(entry.ProviderModel, s.creds.OpenAIAPIKey)
	default:
		return s.mock
	}
}
