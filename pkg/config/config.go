package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Database (optional interaction-log sink; empty disables it)
	DatabaseURL string

	// Ollama embed endpoint
	OllamaEmbedURL   string
	OllamaEmbedModel string
	OllamaEmbedToken string // Bearer token for Ollama Cloud (empty = local)

	// Corpus inputs (pre-extracted chunk files)
	DocChunksPath     string
	TabularChunksPath string

	// Precomputed index artifact; loaded instead of re-embedding when present
	IndexPath string

	// Lexicon override (empty = built-in vocabulary)
	LexiconPath string

	// Retrieval knobs
	TopK           int
	MaxResults     int
	DistanceCutoff float64

	// Citation names for the two sources
	DocSourceName     string
	TabularSourceName string

	// Frontend
	FrontendURL string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "8001"),
		AppName: envOrDefault("APP_NAME", "Clinical Trial Query Chatbot"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		OllamaEmbedURL:   envOrDefault("OLLAMA_EMBED_URL", envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434")),
		OllamaEmbedModel: envOrDefault("OLLAMA_EMBED_MODEL", "bge-m3"),
		OllamaEmbedToken: os.Getenv("OLLAMA_EMBED_TOKEN"),

		DocChunksPath:     envOrDefault("DOC_CHUNKS_PATH", "data/doc_chunks.json"),
		TabularChunksPath: envOrDefault("TABULAR_CHUNKS_PATH", "data/tabular_chunks.json"),
		IndexPath:         envOrDefault("INDEX_PATH", "data/index.bin"),
		LexiconPath:       os.Getenv("LEXICON_PATH"),

		TopK:           envOrDefaultInt("RETRIEVAL_TOP_K", 5),
		MaxResults:     envOrDefaultInt("RETRIEVAL_MAX_RESULTS", 3),
		DistanceCutoff: envOrDefaultFloat("RELEVANCE_DISTANCE_CUTOFF", 1.4),

		DocSourceName:     envOrDefault("DOC_SOURCE_NAME", "Pharma_Clinical_Trial_Notes.docx"),
		TabularSourceName: envOrDefault("TABULAR_SOURCE_NAME", "Pharma_Clinical_Trial_AllDrugs.xlsx"),

		FrontendURL: envOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
