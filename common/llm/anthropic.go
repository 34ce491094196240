package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicPrompter struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

const defaultAnthropicModel = "claude-sonnet-4-5-20250514"

func anthropicOptions(apiKey, baseURL string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}

func newAnthropicPrompter(cfg Config) *anthropicPrompter {
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &anthropicPrompter{
		client:    anthropic.NewClient(anthropicOptions(cfg.APIKey, cfg.BaseURL)...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *anthropicPrompter) Prompt(ctx context.Context, text string, opts PromptOptions) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}

	// Anthropic takes the system prompt separately from the messages array.
	if system := systemPrompt(opts); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic prompt: %w", err)
	}

	slog.DebugContext(ctx, "llm prompt completed",
		"model", p.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func (p *anthropicPrompter) Model() string {
	return p.model
}

// anthropicClient implements Client with a forced tool call: the response
// schema becomes the tool's input schema and the tool input is the result.
type anthropicClient struct {
	client anthropic.Client
	model  string
}

func newAnthropicClient(cfg Config) *anthropicClient {
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicClient{
		client: anthropic.NewClient(anthropicOptions(cfg.APIKey, cfg.BaseURL)...),
		model:  model,
	}
}

func (c *anthropicClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 256
	}

	toolName := SanitizeName(req.SchemaName)
	if toolName == "" {
		toolName = "respond"
	}
	inputSchema, err := toolInputSchema(req.Schema)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
		Tools: []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        toolName,
				Description: anthropic.String("Structured response schema"),
				InputSchema: inputSchema,
			},
		}},
		ToolChoice: anthropic.ToolChoiceParamOfTool(toolName),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	slog.DebugContext(ctx, "llm chat completed",
		"model", c.model,
		"schema", req.SchemaName,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	for _, block := range resp.Content {
		if block.Type != "tool_use" || block.Name != toolName {
			continue
		}
		if err := json.Unmarshal(block.Input, result); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		return &Response{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		}, nil
	}
	return nil, ErrEmptyResponse
}

func (c *anthropicClient) Model() string {
	return c.model
}

// toolInputSchema lifts properties and required out of a reflected JSON schema.
func toolInputSchema(schema any) (anthropic.ToolInputSchemaParam, error) {
	out := anthropic.ToolInputSchemaParam{}
	if schema == nil {
		return out, nil
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return out, fmt.Errorf("marshal schema: %w", err)
	}
	var parsed struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return out, fmt.Errorf("decode schema: %w", err)
	}

	out.Properties = parsed.Properties
	out.Required = parsed.Required
	return out, nil
}
