package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursekb/virtual-ta/api"
	"github.com/coursekb/virtual-ta/embeddings"
	"github.com/coursekb/virtual-ta/index"
	"github.com/coursekb/virtual-ta/llm"
	"github.com/coursekb/virtual-ta/search"
)

type stubLLM struct {
	answer   string
	err      error
	messages []llm.Message
}

var _ llm.Client = (*stubLLM)(nil)

func (s *stubLLM) Generate(_ context.Context, messages []llm.Message) (string, error) {
	s.messages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type unitEmbedder struct{}

var _ embeddings.Embedder = unitEmbedder{}

func (unitEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{1, 0}
	}
	return vecs, nil
}

func newSearcher(t *testing.T) *search.Service {
	t.Helper()
	store := index.NewMemory()

	text := "To run the course container, install Docker and pull the published image. " +
		"The grader expects the container to listen on port 8000 and answer health checks."
	require.NoError(t, store.Add(context.Background(),
		[]index.Entry{{
			ID:   index.ChunkID(0, 0),
			Text: text,
			Meta: index.Metadata{
				SourceDoc: 0,
				Category:  index.CategoryTechnical,
				Title:     "Docker setup",
				URL:       "https://docs.example.com/#/docker",
				Username:  "ta",
			},
		}},
		[][]float32{{1, 0}}))

	logger := log.New(io.Discard, "", 0)
	return search.NewService(store, unitEmbedder{}, logger, search.Options{})
}

func newServer(t *testing.T, searcher *search.Service, client llm.Client) *api.Server {
	t.Helper()
	return api.New(searcher, client, "text-embedding-3-small", log.New(io.Discard, "", 0))
}

func postQuestion(t *testing.T, server http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestQuestionEndpointAnswersWithLinks(t *testing.T) {
	client := &stubLLM{answer: "Install Docker first. Feel free to ask if you need clarification!"}
	server := newServer(t, newSearcher(t), client)

	rec := postQuestion(t, server, map[string]string{"question": "How do I run the docker container?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Answer string        `json:"answer"`
		Links  []search.Link `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, client.answer, resp.Answer)
	require.Len(t, resp.Links, 1)
	assert.Equal(t, "https://docs.example.com/#/docker", resp.Links[0].URL)
	assert.Equal(t, "Docker setup", resp.Links[0].Text)

	// The retrieved chunk must have reached the model as context.
	require.Len(t, client.messages, 2)
	assert.Equal(t, llm.RoleSystem, client.messages[0].Role)
	assert.Contains(t, client.messages[1].Content, "install Docker")
}

func TestQuestionEndpointRejectsBlankQuestion(t *testing.T) {
	server := newServer(t, newSearcher(t), &stubLLM{answer: "unused"})

	rec := postQuestion(t, server, map[string]string{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuestionEndpointRejectsMalformedBody(t *testing.T) {
	server := newServer(t, newSearcher(t), &stubLLM{answer: "unused"})

	req := httptest.NewRequest(http.MethodPost, "/api/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuestionEndpointMethodNotAllowed(t *testing.T) {
	server := newServer(t, newSearcher(t), &stubLLM{answer: "unused"})

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestQuestionEndpointUnavailableWithoutLLM(t *testing.T) {
	server := newServer(t, newSearcher(t), nil)

	rec := postQuestion(t, server, map[string]string{"question": "anything"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQuestionEndpointFallbackOnGenerateFailure(t *testing.T) {
	server := newServer(t, newSearcher(t), &stubLLM{err: assert.AnError})

	rec := postQuestion(t, server, map[string]string{"question": "How do I run docker?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Answer string        `json:"answer"`
		Links  []search.Link `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Answer, "technical difficulties")
	assert.NotNil(t, resp.Links)
	assert.Empty(t, resp.Links)
}

func TestQuestionEndpointIgnoresInvalidImage(t *testing.T) {
	client := &stubLLM{answer: "ok"}
	server := newServer(t, newSearcher(t), client)

	rec := postQuestion(t, server, map[string]string{
		"question": "What is in this screenshot?",
		"image":    base64.StdEncoding.EncodeToString([]byte("tiny")),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, client.messages, 2)
	assert.Empty(t, client.messages[1].ImageURL)
}

func TestQuestionEndpointForwardsValidImage(t *testing.T) {
	client := &stubLLM{answer: "ok"}
	server := newServer(t, newSearcher(t), client)

	image := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xff}, 600))
	rec := postQuestion(t, server, map[string]string{
		"question": "What is in this screenshot?",
		"image":    image,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, client.messages, 2)
	assert.Equal(t, "data:image/jpeg;base64,"+image, client.messages[1].ImageURL)
}

func TestHealthEndpoint(t *testing.T) {
	server := newServer(t, newSearcher(t), &stubLLM{answer: "ok"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status        string `json:"status"`
		KnowledgeBase string `json:"knowledge_base"`
		AIService     string `json:"ai_service"`
		Documents     int    `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "loaded", resp.KnowledgeBase)
	assert.Equal(t, 1, resp.Documents)
}

func TestHealthEndpointDegradedWithoutLLM(t *testing.T) {
	server := newServer(t, newSearcher(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status    string `json:"status"`
		AIService string `json:"ai_service"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "missing", resp.AIService)
}

func TestStatsEndpoint(t *testing.T) {
	server := newServer(t, newSearcher(t), &stubLLM{answer: "ok"})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TotalDocuments int            `json:"total_documents"`
		Categories     map[string]int `json:"categories"`
		EmbeddingModel string         `json:"embedding_model"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalDocuments)
	assert.Equal(t, 1, resp.Categories["technical"])
	assert.Equal(t, "text-embedding-3-small", resp.EmbeddingModel)
}
