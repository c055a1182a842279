package api

import (
	"fmt"
	"strings"

	"github.com/coursekb/virtual-ta/llm"
	"github.com/coursekb/virtual-ta/search"
)

// previewChars bounds how much of each chunk enters the prompt.
const previewChars = 600

func buildMessages(question string, context []search.Result, imageURL string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt()},
		{
			Role:     llm.RoleUser,
			Content:  formatUserPrompt(question, context, imageURL != ""),
			ImageURL: imageURL,
		},
	}
}

func systemPrompt() string {
	return "You are a helpful Teaching Assistant for a data science course. " +
		"Answer student questions from the course materials and forum discussions supplied as context. " +
		"Provide clear, accurate answers; if the context does not cover the question, say so and give general guidance. " +
		"Be encouraging, give practical step-by-step advice when appropriate, and reference course concepts when relevant. " +
		"Always end with \"Feel free to ask if you need clarification!\""
}

func formatUserPrompt(question string, context []search.Result, withImage bool) string {
	var sb strings.Builder

	sb.WriteString("Available Context:\n")
	if len(context) == 0 {
		sb.WriteString("No specific course context found.\n")
	} else {
		for i, result := range context {
			author := result.Meta.Username
			if author == "" {
				author = "Course Material"
			}
			sb.WriteString(fmt.Sprintf("Source %d [%s] (by %s): %s\n\n",
				i+1, result.Meta.Category, author, preview(result.Text)))
		}
	}

	if withImage {
		sb.WriteString("\nAn image is attached. Analyze it carefully and incorporate relevant visual information into your response.\n")
	}

	sb.WriteString("\nStudent Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nPlease provide a helpful answer:")
	return sb.String()
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewChars {
		return text
	}
	return string(runes[:previewChars]) + "…"
}
