package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursekb/virtual-ta/llm"
	"github.com/coursekb/virtual-ta/search"
)

// Answer runs the full question workflow: hybrid retrieval, context
// filtering, answer generation, and link extraction. An empty result set
// still produces an answer (general guidance, no links).
func Answer(ctx context.Context, searcher *search.Service, client llm.Client, question, imageURL string) (string, []search.Link, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("question cannot be empty")
	}
	if searcher == nil {
		return "", nil, fmt.Errorf("search service is not configured")
	}
	if client == nil {
		return "", nil, fmt.Errorf("llm client is not configured")
	}

	results := searcher.Search(ctx, question, contextLimit)
	grounding := filterContext(results)

	answer, err := client.Generate(ctx, buildMessages(question, grounding, imageURL))
	if err != nil {
		return "", nil, fmt.Errorf("llm generate: %w", err)
	}

	return strings.TrimSpace(answer), search.ExtractLinks(grounding), nil
}
