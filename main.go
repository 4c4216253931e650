package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github/studyrag/server/config"
	"github/studyrag/server/controller"
	"github/studyrag/server/services"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	if key := getUnidocKey(); key != "" {
		if err := services.SetUnidocLicense(key); err != nil {
			log.Printf("WARN: Failed to set Unidoc license key: %v. PDF processing will fail.", err)
		}
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	var store services.VectorStore
	if cfg.VectorBackend == "memory" {
		store = services.NewMemoryStore()
		log.Println("Using in-memory vector store. Data will not survive a restart.")
	} else {
		// Create Chroma client using v2 API
		chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.ChromaURL))
		if err != nil {
			log.Fatalf("FATAL: Failed to create chroma client: %v", err)
		}
		defer func() {
			if cerr := chromaClient.Close(); cerr != nil {
				log.Printf("Warning: Failed to close chroma client: %v", cerr)
			}
		}()
		store = services.NewChromaStore(chromaClient)
	}

	// Create Gemini client. It serves the default embedder and multimodal
	// extraction.
	geminiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to create Gemini client: %v. Make sure GEMINI_API_KEY is set.", err)
	}
	log.Println("Successfully connected to Google Gemini.")

	embedder, err := buildEmbedder(cfg, httpClient, geminiClient)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	log.Printf("Using embedding provider %q, model %q", cfg.EmbeddingProvider, embedder.ModelName())

	// Chat completions go to an OpenAI-format endpoint (OpenRouter by
	// default).
	chatConfig := openai.DefaultConfig(cfg.ChatAPIKey)
	chatConfig.BaseURL = cfg.ChatBaseURL
	chatConfig.HTTPClient = &http.Client{Timeout: cfg.ChatTimeout}
	chatClient := openai.NewClientWithConfig(chatConfig)

	chunker := services.NewTextChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	retrievalService := services.NewRetrievalService(store, embedder)
	generationService := services.NewGenerationService(chatClient, cfg.ChatModel, retrievalService)
	extractorService := services.NewExtractorService(geminiClient, "")
	documentController := controller.NewDocumentController(retrievalService, generationService, extractorService, chunker)

	// Optionally keep an uploads directory auto-indexed.
	if cfg.WatchDir != "" {
		indexer := services.NewUploadIndexingService(extractorService, chunker, retrievalService)
		watchCtx := context.Background()
		go func() {
			indexer.ScanAndIndexDirectory(watchCtx, cfg.WatchDir)
			indexer.WatchDirectory(watchCtx, cfg.WatchDir)
		}()
	}

	// Setup Gin router
	router := gin.Default()

	// CORS middleware so the frontend dev server can talk to us.
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "StudyRAG API",
			"version": "1.0.0",
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/documents", documentController.ProcessDocument)     // Upload, generate materials, index
		apiV1.POST("/documents/text", documentController.IngestText)     // Index raw text
		apiV1.POST("/chat", documentController.Chat)                     // Ask a question about a document
		apiV1.GET("/documents/:id/retrieval", documentController.RetrievalStatus)
		apiV1.GET("/documents/:id/stats", documentController.Stats)
		apiV1.DELETE("/documents/:id", documentController.DeleteDocument)
	}

	log.Printf("Go Gin backend server starting on http://localhost:%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// buildEmbedder selects the embedding provider. Storage and query must use
// the same provider, so this is decided once at startup.
func buildEmbedder(cfg *config.Config, httpClient *http.Client, geminiClient *genai.Client) (services.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "gemini":
		return services.NewGeminiEmbedder(geminiClient, cfg.EmbeddingModel), nil
	case "ollama":
		return services.NewOllamaEmbedder(httpClient, cfg.OllamaURL, cfg.EmbeddingModel), nil
	case "openai":
		return services.NewOpenAIEmbedder(openai.NewClient(cfg.OpenAIAPIKey), cfg.EmbeddingModel), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}

func getUnidocKey() string {
	// The key is optional at startup; PDF extraction errors if unset.
	return os.Getenv("UNIDOC_LICENSE_KEY")
}
