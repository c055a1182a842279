package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openAIEmbedder embeds whole batches in one API call. The dimension check
// guards against pointing an existing index at a different model.
type openAIEmbedder struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// NewOpenAIEmbedder builds an Embedder over the OpenAI embeddings API, or
// any compatible endpoint when a base URL override is set.
func NewOpenAIEmbedder(opts Options) Embedder {
	cfg := openai.DefaultConfig(opts.OpenAIAPIKey)
	if opts.OpenAIBaseURL != "" {
		cfg.BaseURL = opts.OpenAIBaseURL
	}

	return &openAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     openai.EmbeddingModel(opts.Model),
		dimension: opts.Dimension,
	}
}

func (e *openAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai embeddings: %v", ErrUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: %d inputs, %d vectors returned", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, datum := range resp.Data {
		if err := e.checkDimension(len(datum.Embedding)); err != nil {
			return nil, err
		}
		vectors[i] = datum.Embedding
	}

	return vectors, nil
}

func (e *openAIEmbedder) checkDimension(got int) error {
	if e.dimension > 0 && got != e.dimension {
		return fmt.Errorf("openai embedding dimension mismatch: expected %d, got %d", e.dimension, got)
	}
	return nil
}
