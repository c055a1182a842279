package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type EmbeddingConfig struct {
	Provider  string
	Model     string
	Dimension int
}

type LLMConfig struct {
	Provider    string
	Model       string
	VisionModel string
}

type RetrievalConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	MinContentLen  int
	SemanticWeight float64
	LexicalDivisor float64
}

type Config struct {
	PostgresDSN string
	HTTPAddr    string
	DataDir     string

	OllamaHost    string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	Embeddings EmbeddingConfig
	LLM        LLMConfig
	Retrieval  RetrievalConfig
}

// Load reads configuration from the environment, after loading a local .env
// file when one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/virtual-ta?sslmode=disable"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		DataDir:     getEnv("DATA_DIR", "data"),

		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		Embeddings: EmbeddingConfig{
			Provider:  getEnv("EMBEDDING_PROVIDER", ProviderOpenAI),
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", ProviderOpenAI),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			VisionModel: getEnv("LLM_VISION_MODEL", "gpt-4o"),
		},
		Retrieval: RetrievalConfig{
			ChunkSize:      getEnvInt("CHUNK_SIZE", 1000),
			ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 50),
			MinContentLen:  getEnvInt("MIN_CONTENT_LENGTH", 30),
			SemanticWeight: getEnvFloat("SEMANTIC_WEIGHT", 0.7),
			LexicalDivisor: getEnvFloat("LEXICAL_DIVISOR", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
