package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursekb/virtual-ta/config"
)

// ErrUnavailable reports that the embedding backend could not be reached.
// Ingestion skips the affected document and retrieval absorbs the failure,
// so callers match on this sentinel rather than aborting.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Embedder converts texts into dense vectors. Index and query vectors must
// come from the same model identity, so one Embedder instance is shared by
// ingestion and retrieval.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Options struct {
	Provider  string
	Model     string
	Dimension int

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func NewEmbedder(cfg config.Config) (Embedder, error) {
	opts := Options{
		Provider:      cfg.Embeddings.Provider,
		Model:         cfg.Embeddings.Model,
		Dimension:     cfg.Embeddings.Dimension,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaEmbedder(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIEmbedder(opts), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", opts.Provider)
	}
}
