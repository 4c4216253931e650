package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github/studyrag/server/models"
	"github/studyrag/server/services"
)

type stubRetrieval struct {
	stored  map[string][]string
	lastAdd []string
}

func newStubRetrieval() *stubRetrieval {
	return &stubRetrieval{stored: make(map[string][]string)}
}

func (s *stubRetrieval) AddDocumentChunks(ctx context.Context, documentID string, chunks []string) error {
	s.stored[documentID] = chunks
	s.lastAdd = chunks
	return nil
}

func (s *stubRetrieval) QueryDocuments(ctx context.Context, documentID, query string, topK int) (*models.QueryResult, error) {
	return &models.QueryResult{Documents: s.stored[documentID]}, nil
}

func (s *stubRetrieval) CollectionExists(ctx context.Context, documentID string) bool {
	_, ok := s.stored[documentID]
	return ok
}

func (s *stubRetrieval) DeleteCollection(ctx context.Context, documentID string) {
	delete(s.stored, documentID)
}

func (s *stubRetrieval) TotalChunks(ctx context.Context, documentID string) (int, error) {
	chunks, ok := s.stored[documentID]
	if !ok {
		return 0, context.Canceled
	}
	return len(chunks), nil
}

type stubGeneration struct {
	answer string
}

func (s *stubGeneration) GenerateStudyMaterials(ctx context.Context, text string) (*models.StudyMaterials, error) {
	return &models.StudyMaterials{Summary: models.Summary{KeyInsights: "insight"}}, nil
}

func (s *stubGeneration) AnswerQuestion(ctx context.Context, documentID, question string, topK int) (*models.ChatResponse, error) {
	return &models.ChatResponse{Success: true, Answer: s.answer, Query: question}, nil
}

func newTestRouter(retrieval services.RetrievalService, generation services.GenerationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	chunker := services.NewTextChunker(800, 100)
	ctrl := NewDocumentController(retrieval, generation, services.NewExtractorService(nil, ""), chunker)

	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/documents/text", ctrl.IngestText)
	api.POST("/chat", ctrl.Chat)
	api.GET("/documents/:id/retrieval", ctrl.RetrievalStatus)
	api.GET("/documents/:id/stats", ctrl.Stats)
	api.DELETE("/documents/:id", ctrl.DeleteDocument)
	return router
}

func TestChat_NotProcessedReturns404(t *testing.T) {
	router := newTestRouter(newStubRetrieval(), &stubGeneration{})

	body, _ := json.Marshal(models.ChatRequest{DocumentID: "ghost", Question: "hi?"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "not processed for RAG")
}

func TestChat_AnswersProcessedDocument(t *testing.T) {
	retrieval := newStubRetrieval()
	retrieval.stored["doc_1"] = []string{"a chunk"}
	router := newTestRouter(retrieval, &stubGeneration{answer: "grounded answer"})

	body, _ := json.Marshal(models.ChatRequest{DocumentID: "doc_1", Question: "what?"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "grounded answer", resp.Answer)
}

func TestChat_MissingFieldsRejected(t *testing.T) {
	router := newTestRouter(newStubRetrieval(), &stubGeneration{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"question":"no id"}`))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestText_ChunksAndStores(t *testing.T) {
	retrieval := newStubRetrieval()
	router := newTestRouter(retrieval, &stubGeneration{})

	text := strings.Repeat("This sentence is part of a longer document used for ingestion. ", 30)
	body, _ := json.Marshal(models.IngestTextRequest{DocumentID: "doc_1", Text: text})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/text", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotEmpty(t, retrieval.stored["doc_1"])
}

func TestIngestText_NothingSubstantial(t *testing.T) {
	router := newTestRouter(newStubRetrieval(), &stubGeneration{})

	body, _ := json.Marshal(models.IngestTextRequest{DocumentID: "doc_1", Text: "too short"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/text", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetrievalStatusAndDelete(t *testing.T) {
	retrieval := newStubRetrieval()
	retrieval.stored["doc_1"] = []string{"a"}
	router := newTestRouter(retrieval, &stubGeneration{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc_1/retrieval", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/doc_1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc_1/retrieval", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	retrieval := newStubRetrieval()
	retrieval.stored["doc_1"] = []string{"a", "b", "c"}
	router := newTestRouter(retrieval, &stubGeneration{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/doc_1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.TotalChunks)
}
