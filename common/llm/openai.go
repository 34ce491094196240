package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openaiPrompter struct {
	client    openai.Client
	model     string
	maxTokens int
}

func openaiOptions(apiKey, baseURL string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}

func newOpenAIPrompter(cfg Config) *openaiPrompter {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &openaiPrompter{
		client:    openai.NewClient(openaiOptions(cfg.APIKey, cfg.BaseURL)...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *openaiPrompter) Prompt(ctx context.Context, text string, opts PromptOptions) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if system := systemPrompt(opts); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}

	if opts.Author != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Name: openai.String(SanitizeName(opts.Author)),
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(text),
				},
			},
		})
	} else {
		messages = append(messages, openai.UserMessage(text))
	}

	params := openai.ChatCompletionNewParams{
		Model:               p.model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(p.maxTokens)),
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai prompt: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	slog.DebugContext(ctx, "llm prompt completed",
		"model", p.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason)

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func (p *openaiPrompter) Model() string {
	return p.model
}
