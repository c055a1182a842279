package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekb/virtual-ta/index"
	"github.com/coursekb/virtual-ta/search"
)

func TestExtractLinksOrdersAndDeduplicates(t *testing.T) {
	results := []search.Result{
		{
			Score: 0.4,
			Text:  "short",
			Meta:  index.Metadata{URL: "https://forum.example.com/t/a", Title: "Topic A"},
		},
		{
			Score: 0.9,
			Text:  "highest score wins",
			Meta:  index.Metadata{URL: "https://forum.example.com/t/b", Title: "Topic B"},
		},
		{
			Score: 0.4,
			Text:  "longer text breaks the score tie",
			Meta:  index.Metadata{URL: "https://forum.example.com/t/a", Title: "Topic A again"},
		},
	}

	links := search.ExtractLinks(results)
	require.Len(t, links, 2)

	assert.Equal(t, "https://forum.example.com/t/b", links[0].URL)
	assert.Equal(t, "Topic B", links[0].Text)

	// For the duplicate URL, the tie on score is broken by text length,
	// so the longer chunk's title survives.
	assert.Equal(t, "https://forum.example.com/t/a", links[1].URL)
	assert.Equal(t, "Topic A again", links[1].Text)
}

func TestExtractLinksDropsEmptyURLs(t *testing.T) {
	results := []search.Result{
		{Score: 0.9, Meta: index.Metadata{Title: "No link"}},
		{Score: 0.1, Meta: index.Metadata{URL: "https://docs.example.com/#/docker", Title: "Docker"}},
	}

	links := search.ExtractLinks(results)
	require.Len(t, links, 1)
	assert.Equal(t, "https://docs.example.com/#/docker", links[0].URL)
}

func TestExtractLinksFallbackText(t *testing.T) {
	results := []search.Result{
		{
			Score: 0.5,
			Meta: index.Metadata{
				URL:      "https://forum.example.com/t/x",
				Category: index.CategoryAssignment,
				Username: "s.anand",
			},
		},
	}

	links := search.ExtractLinks(results)
	require.Len(t, links, 1)
	assert.Equal(t, "Assignment by s.anand", links[0].Text)
}

func TestExtractLinksEmptyInput(t *testing.T) {
	assert.Empty(t, search.ExtractLinks(nil))
}

func TestExtractLinksDoesNotMutateInput(t *testing.T) {
	results := []search.Result{
		{Score: 0.1, Meta: index.Metadata{URL: "https://a.example.com", Title: "A"}},
		{Score: 0.9, Meta: index.Metadata{URL: "https://b.example.com", Title: "B"}},
	}

	search.ExtractLinks(results)
	assert.Equal(t, "https://a.example.com", results[0].Meta.URL)
	assert.Equal(t, 0.1, results[0].Score)
}
