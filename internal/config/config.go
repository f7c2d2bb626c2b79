// Package config loads agentgraph configuration from defaults, an optional
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
)

// EnvPrefix prefixes every environment variable, e.g. AGENTGRAPH_HTTP_ADDR.
const EnvPrefix = "AGENTGRAPH"

// Search provider names accepted by search.provider.
const (
	SearchBrave      = "brave"
	SearchDuckDuckGo = "duckduckgo"
)

// Config holds all runtime settings.
type Config struct {
	// DefaultModel is used when a request names no model. Empty lets the
	// selector pick Claude, then GPT, then the offline mock.
	DefaultModel string `mapstructure:"default_model" yaml:"default_model"`

	RecursionLimit           int           `mapstructure:"recursion_limit" yaml:"recursion_limit"`
	ModelTimeout             time.Duration `mapstructure:"model_timeout" yaml:"model_timeout"`
	ToolTimeout              time.Duration `mapstructure:"tool_timeout" yaml:"tool_timeout"`
	MaxParallelTools         int           `mapstructure:"max_parallel_tools" yaml:"max_parallel_tools"`
	MaxHistoryMessages       int           `mapstructure:"max_history_messages" yaml:"max_history_messages"`
	MaxConcurrentInvocations int           `mapstructure:"max_concurrent_invocations" yaml:"max_concurrent_invocations"`

	// WaitForThread makes a request on a busy thread wait instead of
	// failing with a thread-busy error.
	WaitForThread bool `mapstructure:"wait_for_thread" yaml:"wait_for_thread"`

	HTTP       HTTPConfig       `mapstructure:"http" yaml:"http"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Search     SearchConfig     `mapstructure:"search" yaml:"search"`
	Transcript TranscriptConfig `mapstructure:"transcript" yaml:"transcript"`

	AnthropicAPIKey string `mapstructure:"anthropic_api_key" yaml:"-"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key" yaml:"-"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type SearchConfig struct {
	// Provider is brave or duckduckgo. Empty picks brave when a key is
	// configured and duckduckgo otherwise.
	Provider    string `mapstructure:"provider" yaml:"provider"`
	BraveAPIKey string `mapstructure:"brave_api_key" yaml:"-"`
}

type TranscriptConfig struct {
	StrictCategories bool `mapstructure:"strict_categories" yaml:"strict_categories"`
	Consolidate      bool `mapstructure:"consolidate" yaml:"consolidate"`
	Backfill         bool `mapstructure:"backfill" yaml:"backfill"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		RecursionLimit:           25,
		ModelTimeout:             60 * time.Second,
		ToolTimeout:              15 * time.Second,
		MaxParallelTools:         4,
		MaxConcurrentInvocations: 10,
		HTTP: HTTPConfig{
			Addr:            ":8080",
			RequestTimeout:  120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Transcript: TranscriptConfig{
			Backfill: true,
		},
	}
}

// Load reads configuration. path may be empty; a named file must exist.
// Environment variables override the file: AGENTGRAPH_<KEY> with dots
// replaced by underscores. Provider keys are also read from the unprefixed
// ANTHROPIC_API_KEY, OPENAI_API_KEY and BRAVE_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"anthropic_api_key":    "ANTHROPIC_API_KEY",
		"openai_api_key":       "OPENAI_API_KEY",
		"search.brave_api_key": "BRAVE_API_KEY",
	} {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("default_model", d.DefaultModel)
	v.SetDefault("recursion_limit", d.RecursionLimit)
	v.SetDefault("model_timeout", d.ModelTimeout)
	v.SetDefault("tool_timeout", d.ToolTimeout)
	v.SetDefault("max_parallel_tools", d.MaxParallelTools)
	v.SetDefault("max_history_messages", d.MaxHistoryMessages)
	v.SetDefault("max_concurrent_invocations", d.MaxConcurrentInvocations)
	v.SetDefault("wait_for_thread", d.WaitForThread)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.request_timeout", d.HTTP.RequestTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("search.provider", d.Search.Provider)
	v.SetDefault("transcript.strict_categories", d.Transcript.StrictCategories)
	v.SetDefault("transcript.consolidate", d.Transcript.Consolidate)
	v.SetDefault("transcript.backfill", d.Transcript.Backfill)
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	if c.RecursionLimit < 1 {
		errs = append(errs, fmt.Errorf("recursion_limit must be at least 1, got %d", c.RecursionLimit))
	}

	if c.ModelTimeout < 0 || c.ToolTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}

	if c.MaxParallelTools < 0 || c.MaxConcurrentInvocations < 0 || c.MaxHistoryMessages < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	switch strings.ToLower(c.Search.Provider) {
	case "", SearchBrave, SearchDuckDuckGo:
	default:
		errs = append(errs, fmt.Errorf("search.provider must be brave or duckduckgo, got %q", c.Search.Provider))
	}

	if strings.EqualFold(c.Search.Provider, SearchBrave) && !c.HasBrave() {
		errs = append(errs, errors.New("search.provider brave requires BRAVE_API_KEY"))
	}

	return errors.Join(errs...)
}

// HasAnthropic reports whether a Claude credential is configured.
func (c *Config) HasAnthropic() bool { return strings.TrimSpace(c.AnthropicAPIKey) != "" }

// HasOpenAI reports whether a GPT credential is configured.
func (c *Config) HasOpenAI() bool { return strings.TrimSpace(c.OpenAIAPIKey) != "" }

// HasBrave reports whether a Brave Search key is configured.
func (c *Config) HasBrave() bool { return strings.TrimSpace(c.Search.BraveAPIKey) != "" }

// Credentials returns the model credential lookup.
func (c *Config) Credentials() model.Credentials {
	return model.Credentials{AnthropicAPIKey: c.AnthropicAPIKey, OpenAIAPIKey: c.OpenAIAPIKey}
}

// SearchProvider resolves the effective search provider name.
func (c *Config) SearchProvider() string {
	if p := strings.ToLower(c.Search.Provider); p != "" {
		return p
	}
	if c.HasBrave() {
		return SearchBrave
	}
	return SearchDuckDuckGo
}

// Logging returns the logger settings.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
