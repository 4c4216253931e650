package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting for the backend. It is built once in
// main and handed to the services explicitly; nothing reads the environment
// after Load returns.
type Config struct {
	// Server settings
	Port string

	// Vector store settings
	VectorBackend string // "chroma" or "memory"
	ChromaURL     string

	// Embedding settings
	EmbeddingProvider string // "gemini", "ollama" or "openai"
	GeminiAPIKey      string
	EmbeddingModel    string
	OllamaURL         string
	OpenAIAPIKey      string

	// Chat completion settings (OpenRouter-compatible endpoint)
	ChatAPIKey  string
	ChatBaseURL string
	ChatModel   string
	ChatTimeout time.Duration

	// RAG settings
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	// Optional uploads directory to watch and auto-index. Empty disables
	// the watcher.
	WatchDir string
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		VectorBackend:     getEnv("VECTOR_BACKEND", "chroma"),
		ChromaURL:         getEnv("CHROMA_URL", "http://localhost:8000"),
		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		// Empty means "use the provider's default model". Each embedder
		// constructor picks its own; a single default here would leak one
		// provider's model name to the others.
		EmbeddingModel: os.Getenv("EMBEDDING_MODEL"),
		OllamaURL:         getEnv("OLLAMA_URL", "http://localhost:11434"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		ChatAPIKey:        os.Getenv("AI_API_KEY"),
		ChatBaseURL:       getEnv("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		ChatModel:         getEnv("AI_MODEL", "deepseek/deepseek-r1-0528-qwen3-8b:free"),
		ChatTimeout:       getEnvDuration("AI_TIMEOUT", 60*time.Second),
		ChunkSize:         getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 100),
		TopK:              getEnvInt("RAG_TOP_K", 5),
		WatchDir:          os.Getenv("WATCH_DIR"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be positive, got %d", c.TopK)
	}
	switch c.EmbeddingProvider {
	case "gemini", "ollama", "openai":
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	switch c.VectorBackend {
	case "chroma", "memory":
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.VectorBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
