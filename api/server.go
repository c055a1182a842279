// Package api exposes the question-answering HTTP endpoint over the
// retrieval engine.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/coursekb/virtual-ta/index"
	"github.com/coursekb/virtual-ta/llm"
	"github.com/coursekb/virtual-ta/search"
)

const (
	// contextLimit is how many chunks ground each answer.
	contextLimit = 5
	// minContextChars drops stub chunks from the answer context.
	minContextChars = 100
)

// Server serves POST /api/, GET /health, and GET /stats. Its collaborators
// are injected so tests can substitute fakes.
type Server struct {
	searcher       *search.Service
	llm            llm.Client
	embeddingModel string
	logger         *log.Logger
	handler        http.Handler
}

type questionRequest struct {
	Question string `json:"question"`
	Image    string `json:"image,omitempty"`
}

type answerResponse struct {
	Answer string        `json:"answer"`
	Links  []search.Link `json:"links"`
}

type healthResponse struct {
	Status        string `json:"status"`
	KnowledgeBase string `json:"knowledge_base"`
	AIService     string `json:"ai_service"`
	Documents     int    `json:"documents"`
}

type statsResponse struct {
	TotalDocuments int                    `json:"total_documents"`
	Categories     map[index.Category]int `json:"categories"`
	EmbeddingModel string                 `json:"embedding_model"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(searcher *search.Service, llmClient llm.Client, embeddingModel string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		searcher:       searcher,
		llm:            llmClient,
		embeddingModel: embeddingModel,
		logger:         logger,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", s.handleQuestion)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req questionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	if s.searcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("knowledge base unavailable"))
		return
	}
	if s.llm == nil {
		s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("ai service unavailable"))
		return
	}

	image := ""
	if req.Image != "" {
		if ValidImage(req.Image) {
			image = NormalizeImageDataURL(req.Image)
		} else {
			s.logger.Printf("ignoring invalid image payload")
		}
	}

	answer, links, err := Answer(r.Context(), s.searcher, s.llm, question, image)
	if err != nil {
		s.logger.Printf("answer question: %v", err)
		answer = "I'm experiencing technical difficulties. Please try again in a moment."
		links = []search.Link{}
	}

	s.writeJSON(w, http.StatusOK, answerResponse{Answer: answer, Links: links})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	resp := healthResponse{Status: "healthy", KnowledgeBase: "loaded", AIService: "configured"}
	if s.llm == nil {
		resp.Status = "degraded"
		resp.AIService = "missing"
	}

	if s.searcher == nil {
		resp.Status = "degraded"
		resp.KnowledgeBase = "unavailable"
	} else if stats, err := s.searcher.Stats(r.Context()); err != nil {
		s.logger.Printf("health stats: %v", err)
		resp.Status = "degraded"
		resp.KnowledgeBase = "unavailable"
	} else {
		resp.Documents = stats.TotalDocuments
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	if s.searcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("knowledge base unavailable"))
		return
	}

	stats, err := s.searcher.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("corpus stats: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		TotalDocuments: stats.TotalDocuments,
		Categories:     stats.Categories,
		EmbeddingModel: s.embeddingModel,
	})
}

// filterContext keeps only substantial chunks, capped at contextLimit.
func filterContext(results []search.Result) []search.Result {
	filtered := make([]search.Result, 0, len(results))
	for _, result := range results {
		if len(strings.TrimSpace(result.Text)) > minContextChars {
			filtered = append(filtered, result)
		}
		if len(filtered) == contextLimit {
			break
		}
	}
	return filtered
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("api error (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}
