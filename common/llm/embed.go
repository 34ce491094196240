package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// Embedder turns text into a dense vector for the semantic store.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type openaiEmbedder struct {
	client openai.Client
	model  string
	dims   int
}

// NewEmbedder creates an OpenAI embedder. A positive dims asks the model
// for shortened vectors and must match the store's schema.
func NewEmbedder(apiKey, baseURL, model string, dims int) (Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &openaiEmbedder{
		client: openai.NewClient(openaiOptions(apiKey, baseURL)...),
		model:  model,
		dims:   dims,
	}, nil
}

func (e *openaiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if e.dims > 0 {
		params.Dimensions = openai.Int(int64(e.dims))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrEmptyResponse
	}
	return resp.Data[0].Embedding, nil
}
