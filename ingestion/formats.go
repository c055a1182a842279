package ingestion

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one ingestion unit, already normalized from its source
// format. Only its chunks persist; the document itself is transient.
type Document struct {
	Content  string
	Title    string
	URL      string
	Username string
}

// DocumentFormat enumerates supported corpus export formats.
type DocumentFormat string

const (
	FormatUnknown DocumentFormat = ""
	// FormatForumJSON is a forum export: a JSON array of topics with their
	// flattened post text.
	FormatForumJSON DocumentFormat = "forum-json"
	// FormatDocsJSONL is a documentation crawl: one {content, url} object
	// per line.
	FormatDocsJSONL DocumentFormat = "docs-jsonl"
)

// DetectFormat infers the export format from the file extension.
func DetectFormat(path string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatForumJSON
	case ".jsonl":
		return FormatDocsJSONL
	default:
		return FormatUnknown
	}
}

type forumPost struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

type forumTopic struct {
	Title    string      `json:"title"`
	URL      string      `json:"url"`
	FullText string      `json:"full_text"`
	Posts    []forumPost `json:"posts"`
}

// LoadForumTopics reads a forum export file. The topic author is the first
// post's username; topics without any text are dropped.
func LoadForumTopics(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read forum export: %w", err)
	}

	var topics []forumTopic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parse forum export: %w", err)
	}

	docs := make([]Document, 0, len(topics))
	for _, topic := range topics {
		content := strings.TrimSpace(topic.FullText)
		if content == "" {
			parts := make([]string, 0, len(topic.Posts))
			for _, post := range topic.Posts {
				if text := strings.TrimSpace(post.Text); text != "" {
					parts = append(parts, text)
				}
			}
			content = strings.Join(parts, "\n\n")
		}
		if content == "" {
			continue
		}

		username := "unknown"
		if len(topic.Posts) > 0 && topic.Posts[0].Username != "" {
			username = topic.Posts[0].Username
		}

		docs = append(docs, Document{
			Content:  content,
			Title:    topic.Title,
			URL:      topic.URL,
			Username: username,
		})
	}

	return docs, nil
}

type docsPage struct {
	Content  string `json:"content"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Username string `json:"username"`
}

// LoadDocsPages reads a documentation crawl in JSONL form. Malformed lines
// are skipped so one bad record never aborts the batch.
func LoadDocsPages(path string) ([]Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docs export: %w", err)
	}
	defer file.Close()

	docs := make([]Document, 0)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var page docsPage
		if err := json.Unmarshal([]byte(line), &page); err != nil {
			continue
		}
		if strings.TrimSpace(page.Content) == "" {
			continue
		}

		username := page.Username
		if username == "" {
			username = "unknown"
		}

		docs = append(docs, Document{
			Content:  page.Content,
			Title:    page.Title,
			URL:      page.URL,
			Username: username,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read docs export: %w", err)
	}

	return docs, nil
}

// LoadDocuments dispatches on the detected file format.
func LoadDocuments(path string) ([]Document, error) {
	switch DetectFormat(path) {
	case FormatForumJSON:
		return LoadForumTopics(path)
	case FormatDocsJSONL:
		return LoadDocsPages(path)
	default:
		return nil, fmt.Errorf("unsupported corpus format: %s", path)
	}
}
