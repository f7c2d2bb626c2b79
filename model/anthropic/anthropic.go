// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// RequestOptions are passed to the SDK client (base URL, retries, ...).
	RequestOptions []option.RequestOption
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := append([]option.RequestOption{}, opts.RequestOptions...)
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{
		client: client,
		opts:   opts,
	}
}

// Factory adapts NewModel to model.Factory for the selector.
func Factory(optFns ...func(o *Options)) model.Factory {
	return func(providerModel, apiKey string) model.Model {
		return NewModel(append(optFns, func(o *Options) {
			o.Model = anthropic.Model(providerModel)
			o.APIKey = apiKey
		})...)
	}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.5,
		MaxTokens:   4096,
	}
}

// Generate adapts the Anthropic Messages API (with tool calling) into
// model.Response events. A ResponseSchema is enforced by offering a single
// tool with that schema and forcing the model to call it; the tool input is
// returned as the message text.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    buildMessages(req.Messages),
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}

		if systemBlocks := buildSystem(req); len(systemBlocks) > 0 {
			params.System = systemBlocks
		}

		if req.ResponseSchema != nil {
			params.Tools = []anthropic.ToolUnionParam{buildTool(model.ToolDefinition{
				Name:        req.ResponseSchema.Name,
				Description: req.ResponseSchema.Description,
				Parameters:  req.ResponseSchema.Schema,
			})}
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfTool: &anthropic.ToolChoiceToolParam{Name: req.ResponseSchema.Name},
			}
		} else if len(req.Tools) > 0 {
			params.Tools = buildTools(req.Tools)
		}

		// Streaming is served as a single final chunk.
		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- m.classify(err)
			return
		}

		var (
			text  string
			calls []core.ToolCall
		)

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				text += block.AsText().Text
			case "tool_use":
				toolBlock := block.AsToolUse()

				args := ""
				if toolBlock.Input != nil {
					if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(argsBytes)
					}
				}

				if req.ResponseSchema != nil && toolBlock.Name == req.ResponseSchema.Name {
					text = args
					continue
				}

				calls = append(calls, core.ToolCall{ID: toolBlock.ID, Name: toolBlock.Name, Arguments: args})
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		out <- model.Response{
			ID:           resp.ID,
			Message:      core.NewAssistantMessage(text, calls...),
			FinishReason: finishReason,
			Usage: &model.TokenUsage{
				PromptTokens:     int(resp.Usage.InputTokens),
				CompletionTokens: int(resp.Usage.OutputTokens),
				TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			},
		}
	}()

	return out, errCh
}

func (m *Model) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return core.NewProviderError(model.ProviderAnthropic, string(m.opts.Model), core.ProviderErrorKindForStatus(apiErr.StatusCode), err)
	}
	return core.NewProviderError(model.ProviderAnthropic, string(m.opts.Model), "", err)
}

// buildSystem collects the request instructions and any system messages.
func buildSystem(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam

	if req.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.Instructions})
	}

	for _, msg := range req.Messages {
		if msg.Role != core.RoleSystem {
			continue
		}
		if text := msg.Text(); text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: text})
		}
	}

	return blocks
}

// buildMessages converts the conversation into alternating Anthropic turns.
// Tool results become tool_result blocks in a user turn directly following
// the assistant turn that requested them; consecutive turns with the same
// role are merged.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	var (
		messages []anthropic.MessageParam
		role     anthropic.MessageParamRole
		blocks   []anthropic.ContentBlockParamUnion
	)

	flush := func() {
		if len(blocks) == 0 {
			return
		}
		if role == anthropic.MessageParamRoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
		blocks = nil
	}

	for _, msg := range msgs {
		var (
			next    anthropic.MessageParamRole
			content []anthropic.ContentBlockParamUnion
		)

		switch msg.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			next = anthropic.MessageParamRoleAssistant
			content = assistantContent(msg)
		case core.RoleTool:
			next = anthropic.MessageParamRoleUser
			for _, r := range msg.ToolResults() {
				content = append(content, anthropic.NewToolResultBlock(r.CallID, r.Text(), r.IsError()))
			}
		default:
			next = anthropic.MessageParamRoleUser
			if text := msg.Text(); text != "" {
				content = append(content, anthropic.NewTextBlock(text))
			}
		}

		if len(content) == 0 {
			continue
		}

		if next != role {
			flush()
			role = next
		}

		blocks = append(blocks, content...)
	}

	flush()

	return messages
}

func assistantContent(msg core.Message) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion

	for _, p := range msg.Parts {
		switch part := p.(type) {
		case core.TextPart:
			if part.Text != "" {
				content = append(content, anthropic.NewTextBlock(part.Text))
			}
		case core.ToolCallPart:
			var input any = map[string]any{}
			if part.ToolCall.Arguments != "" {
				if err := json.Unmarshal([]byte(part.ToolCall.Arguments), &input); err != nil {
					input = map[string]any{"raw": part.ToolCall.Arguments}
				}
			}

			content = append(content, anthropic.NewToolUseBlock(part.ToolCall.ID, input, part.ToolCall.Name))
		}
	}

	return content
}

// buildTools converts tool definitions to Anthropic tool format.
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		out[i] = buildTool(t)
	}
	return out
}

func buildTool(t model.ToolDefinition) anthropic.ToolUnionParam {
	inputSchema := anthropic.ToolInputSchemaParam{
		Type: constant.Object("object"),
	}

	if t.Parameters != nil {
		if properties, exists := t.Parameters["properties"]; exists {
			inputSchema.Properties = properties
		}

		switch req := t.Parameters["required"].(type) {
		case []string:
			inputSchema.Required = req
		case []any:
			for _, r := range req {
				if s, ok := r.(string); ok {
					inputSchema.Required = append(inputSchema.Required, s)
				}
			}
		}
	}

	tool := anthropic.ToolUnionParamOfTool(inputSchema, t.Name)
	if t.Description != "" && tool.OfTool != nil {
		tool.OfTool.Description = anthropic.String(t.Description)
	}

	return tool
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      model.ProviderAnthropic,
		SupportsTools: true,
	}
}
