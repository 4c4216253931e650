package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "http://localhost:8000", cfg.ChromaURL)
	require.Equal(t, "chroma", cfg.VectorBackend)
	require.Equal(t, "gemini", cfg.EmbeddingProvider)
	// Left empty so each embedder applies its own provider default.
	require.Equal(t, "", cfg.EmbeddingModel)
	require.Equal(t, 800, cfg.ChunkSize)
	require.Equal(t, 100, cfg.ChunkOverlap)
	require.Equal(t, 5, cfg.TopK)
	require.Equal(t, 60*time.Second, cfg.ChatTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "1000")
	t.Setenv("CHUNK_OVERLAP", "200")
	t.Setenv("EMBEDDING_PROVIDER", "ollama")
	t.Setenv("AI_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.ChunkSize)
	require.Equal(t, 200, cfg.ChunkOverlap)
	require.Equal(t, "ollama", cfg.EmbeddingProvider)
	require.Equal(t, 90*time.Second, cfg.ChatTimeout)
}

func TestValidate_RejectsBadChunking(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "100")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "CHUNK_OVERLAP")
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "carrier-pigeon")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "EMBEDDING_PROVIDER")
}

func TestValidate_RejectsUnknownVectorBackend(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "postgres")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "VECTOR_BACKEND")
}
