package models

// SourceDocument is one retrieved chunk cited by a chat answer.
type SourceDocument struct {
	Content        string                 `json:"content"`
	FullContent    string                 `json:"fullContent"`
	RelevanceScore float64                `json:"relevanceScore"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	SourceNumber   int                    `json:"sourceNumber"`
}

// ChatResponse is the result of a RAG chat turn.
type ChatResponse struct {
	Success         bool             `json:"success"`
	Answer          string           `json:"answer"`
	Sources         []SourceDocument `json:"sources"`
	Query           string           `json:"query"`
	RetrievedChunks int              `json:"retrievedChunks"`
	Error           string           `json:"error,omitempty"`
}

// ProcessDocumentResponse is returned after an upload has been extracted,
// turned into study materials and indexed for retrieval.
type ProcessDocumentResponse struct {
	DocumentID     string          `json:"documentId"`
	Materials      *StudyMaterials `json:"materials,omitempty"`
	IndexedChunks  int             `json:"indexedChunks"`
	ExtractedChars int             `json:"extractedChars"`
}

// QueryResult carries the parallel arrays a similarity search produces,
// ordered by ascending distance.
type QueryResult struct {
	Documents []string                 `json:"documents"`
	Distances []float64                `json:"distances"`
	Metadatas []map[string]interface{} `json:"metadatas"`
}

// StatsResponse reports how much of a document is indexed.
type StatsResponse struct {
	DocumentID  string `json:"documentId"`
	TotalChunks int    `json:"totalChunks"`
}
