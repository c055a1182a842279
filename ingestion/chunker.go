// Package ingestion turns raw documents into categorized, embedded chunks
// and writes them to the index.
package ingestion

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 50
)

var sentenceEnders = []string{". ", "! ", "? "}

// Chunk splits text into overlapping segments of at most maxSize bytes,
// preferring sentence boundaries, then word boundaries, then a hard cut.
// It is a pure function: identical input yields identical output.
func Chunk(text string, maxSize, overlap int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if len(text) <= maxSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(text)/maxSize+1)
	start := 0

	for start < len(text) {
		end := start + maxSize

		if end < len(text) {
			if punct := lastSentenceEnd(text, start, end); punct > start {
				end = punct
			} else if space := strings.LastIndex(text[start:end], " "); space > 0 {
				end = start + space
			}
			// No boundary in the window: hard cut at maxSize.
		}

		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		}
		if chunk := strings.TrimSpace(text[start:sliceEnd]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Advance from the unclamped window end; the start+1 floor keeps the
		// scan moving forward even when overlap >= window.
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// lastSentenceEnd returns the index just past the latest terminator-plus-
// space ending strictly inside (start, end), or -1.
func lastSentenceEnd(text string, start, end int) int {
	best := -1
	for _, punct := range sentenceEnders {
		if idx := strings.LastIndex(text[start:end], punct); idx > 0 {
			if pos := start + idx + len(punct); pos > best {
				best = pos
			}
		}
	}
	return best
}
