package search

import (
	"fmt"
	"sort"
	"strings"
)

// Link is a citation extracted from a ranked result set.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// ExtractLinks picks one representative link per URL from a ranked result
// set: entries are ordered by (score, text length) descending, the first
// occurrence of each URL survives, and entries without a URL are dropped.
func ExtractLinks(results []Result) []Link {
	ordered := make([]Result, len(results))
	copy(ordered, results)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return len(ordered[i].Text) > len(ordered[j].Text)
	})

	links := make([]Link, 0, len(ordered))
	seen := make(map[string]struct{}, len(ordered))
	for _, result := range ordered {
		url := result.Meta.URL
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}

		title := result.Meta.Title
		if title == "" {
			title = fmt.Sprintf("%s by %s", capitalize(string(result.Meta.Category)), result.Meta.Username)
		}
		links = append(links, Link{URL: url, Text: title})
	}

	return links
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
