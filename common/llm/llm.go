package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"
)

var nameInvalidChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("llm returned empty response")

// Config holds LLM client configuration.
type Config struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string // Required: API key for the provider
	BaseURL   string // Optional: custom API endpoint
	Model     string // Model name (e.g., "gpt-4o", "claude-sonnet-4-5-20250514")
	MaxTokens int
}

// Prompter produces free-form text from a prompt. It is the agent's
// "call the model" capability: the result is opaque text that callers parse.
type Prompter interface {
	Prompt(ctx context.Context, text string, opts PromptOptions) (string, error)
	Model() string
}

// PromptOptions carries everything besides the user text.
type PromptOptions struct {
	Preamble string   // Persona / system instructions
	Context  []string // Extra context documents, in order
	Author   string   // Optional: name of the user the text came from
}

// NewPrompter selects the provider based on cfg.Provider.
// Defaults to OpenAI if no provider is specified.
func NewPrompter(cfg Config) (Prompter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIPrompter(cfg), nil
	case ProviderAnthropic:
		return newAnthropicPrompter(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// systemPrompt joins the preamble with numbered context documents.
func systemPrompt(opts PromptOptions) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(opts.Preamble))

	docs := make([]string, 0, len(opts.Context))
	for _, c := range opts.Context {
		if c = strings.TrimSpace(c); c != "" {
			docs = append(docs, c)
		}
	}
	if len(docs) == 0 {
		return b.String()
	}

	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString("<context>\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, d)
	}
	b.WriteString("</context>")
	return b.String()
}

// GenerateSchema reflects a strict JSON schema from T for structured output.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// SanitizeName converts a username to a valid OpenAI name parameter.
// The name must match ^[a-zA-Z0-9_-]{1,64}$.
// Invalid characters are replaced with underscores, and the result is truncated to 64 characters.
func SanitizeName(username string) string {
	sanitized := nameInvalidChars.ReplaceAllString(username, "_")
	if len(sanitized) > 64 {
		sanitized = sanitized[:64]
	}
	return sanitized
}

func Temp(t float64) *float64 {
	return &t
}
