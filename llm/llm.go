// Package llm provides the chat-completion client used by the answering
// endpoint. Retrieval itself never depends on it.
package llm

import (
	"context"
	"fmt"

	"github.com/coursekb/virtual-ta/config"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn. ImageURL, when set on a user message,
// attaches a data-URL image and routes the request to the vision model.
type Message struct {
	Role     string
	Content  string
	ImageURL string
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

type Options struct {
	Provider    string
	Model       string
	VisionModel string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func NewClient(cfg config.Config) (Client, error) {
	opts := Options{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		VisionModel:   cfg.LLM.VisionModel,
		OllamaHost:    cfg.OllamaHost,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	}

	switch opts.Provider {
	case config.ProviderOllama:
		return NewOllamaClient(opts), nil
	case config.ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider selected but OPENAI_API_KEY not set")
		}
		return NewOpenAIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
}

func hasImage(messages []Message) bool {
	for _, msg := range messages {
		if msg.ImageURL != "" {
			return true
		}
	}
	return false
}
