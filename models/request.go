package models

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	Question   string `json:"question" binding:"required"`
	TopK       int    `json:"topK,omitempty"`
}

// IngestTextRequest ingests raw text for a known document id, bypassing
// file extraction. Used by tools and by the test harness.
type IngestTextRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	Text       string `json:"text" binding:"required"`
}
