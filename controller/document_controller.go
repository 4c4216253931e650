package controller

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github/studyrag/server/models"
	"github/studyrag/server/services"
)

// DocumentController handles the HTTP requests for the document-learning
// API. It depends on the service layer for the actual business logic.
type DocumentController struct {
	retrieval  services.RetrievalService
	generation services.GenerationService
	extractor  *services.ExtractorService
	chunker    *services.TextChunker
}

// NewDocumentController is a constructor function that creates a new
// DocumentController. Called from main.go to inject the dependencies.
func NewDocumentController(retrieval services.RetrievalService, generation services.GenerationService, extractor *services.ExtractorService, chunker *services.TextChunker) *DocumentController {
	return &DocumentController{
		retrieval:  retrieval,
		generation: generation,
		extractor:  extractor,
		chunker:    chunker,
	}
}

// ProcessDocument is the Gin handler for POST /api/v1/documents. It extracts
// the uploaded file's text, generates study materials, and indexes the text
// for retrieval.
func (c *DocumentController) ProcessDocument(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	mimeType := ctx.PostForm("type")
	if mimeType == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Type is not provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	reqCtx := ctx.Request.Context()
	text, err := c.extractor.ExtractText(reqCtx, mimeType, data)
	if err != nil {
		log.Printf("CONTROLLER: extraction failed for %s: %v", fileHeader.Filename, err)
		ctx.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Unsupported file type"})
		return
	}

	documentID := ctx.PostForm("documentId")
	if documentID == "" {
		documentID = uuid.New().String()
	}

	materials, err := c.generation.GenerateStudyMaterials(reqCtx, text)
	if err != nil {
		log.Printf("CONTROLLER: material generation failed for %s: %v", documentID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate study materials"})
		return
	}

	chunks := c.chunker.ChunkText(text)
	if len(chunks) > 0 {
		if err := c.retrieval.AddDocumentChunks(reqCtx, documentID, chunks); err != nil {
			log.Printf("CONTROLLER: indexing failed for %s: %v", documentID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to index document for retrieval"})
			return
		}
	}

	ctx.JSON(http.StatusOK, models.ProcessDocumentResponse{
		DocumentID:     documentID,
		Materials:      materials,
		IndexedChunks:  len(chunks),
		ExtractedChars: len(text),
	})
}

// IngestText is the Gin handler for POST /api/v1/documents/text: index raw
// text for a document id without file extraction or material generation.
func (c *DocumentController) IngestText(ctx *gin.Context) {
	var req models.IngestTextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	chunks := c.chunker.ChunkText(req.Text)
	if len(chunks) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Text contains nothing substantial to index"})
		return
	}

	if err := c.retrieval.AddDocumentChunks(ctx.Request.Context(), req.DocumentID, chunks); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to index text"})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"documentId": req.DocumentID, "indexedChunks": len(chunks)})
}

// Chat is the Gin handler for POST /api/v1/chat. It answers a question
// about one processed document, citing retrieved sources.
func (c *DocumentController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Question and documentId are required"})
		return
	}

	reqCtx := ctx.Request.Context()
	if !c.retrieval.CollectionExists(reqCtx, req.DocumentID) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Document not found or not processed for RAG. Please upload the document first.",
		})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	response, err := c.generation.AnswerQuestion(reqCtx, req.DocumentID, req.Question, topK)
	if err != nil {
		log.Printf("CONTROLLER: chat failed for %s: %v", req.DocumentID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process chat request"})
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// RetrievalStatus is the Gin handler for GET /api/v1/documents/:id/retrieval.
// It reports whether a document has been processed for retrieval without
// creating anything.
func (c *DocumentController) RetrievalStatus(ctx *gin.Context) {
	documentID := ctx.Param("id")
	processed := c.retrieval.CollectionExists(ctx.Request.Context(), documentID)
	status := http.StatusOK
	if !processed {
		status = http.StatusNotFound
	}
	ctx.JSON(status, gin.H{"documentId": documentID, "processed": processed})
}

// DeleteDocument is the Gin handler for DELETE /api/v1/documents/:id. The
// deletion is best-effort; a missing collection is already satisfied.
func (c *DocumentController) DeleteDocument(ctx *gin.Context) {
	documentID := ctx.Param("id")
	c.retrieval.DeleteCollection(ctx.Request.Context(), documentID)
	ctx.JSON(http.StatusOK, gin.H{"documentId": documentID, "deleted": true})
}

// Stats is the Gin handler for GET /api/v1/documents/:id/stats.
func (c *DocumentController) Stats(ctx *gin.Context) {
	documentID := ctx.Param("id")
	total, err := c.retrieval.TotalChunks(ctx.Request.Context(), documentID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not processed for retrieval"})
		return
	}
	ctx.JSON(http.StatusOK, models.StatsResponse{DocumentID: documentID, TotalChunks: total})
}
