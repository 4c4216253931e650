package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github/studyrag/server/models"

	"github.com/google/uuid"
)

// previewChars is how much of a chunk is stored as its metadata preview.
const previewChars = 100

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// RetrievalService owns the per-document vector collections: it embeds and
// stores chunks, and serves similarity queries scoped to one document.
type RetrievalService interface {
	AddDocumentChunks(ctx context.Context, documentID string, chunks []string) error
	QueryDocuments(ctx context.Context, documentID, query string, topK int) (*models.QueryResult, error)
	CollectionExists(ctx context.Context, documentID string) bool
	DeleteCollection(ctx context.Context, documentID string)
	TotalChunks(ctx context.Context, documentID string) (int, error)
}

// retrievalServiceImpl holds the dependencies it needs to do its job.
type retrievalServiceImpl struct {
	store    VectorStore
	embedder Embedder
}

// NewRetrievalService creates a new retrieval service instance.
func NewRetrievalService(store VectorStore, embedder Embedder) RetrievalService {
	return &retrievalServiceImpl{
		store:    store,
		embedder: embedder,
	}
}

// CollectionName derives the vector-store collection name for a document id.
// Non-alphanumeric characters are normalized to underscores so the name
// satisfies store naming constraints. The derivation is pure: the same id
// always yields the same name.
func CollectionName(documentID string) string {
	return "doc_" + nonAlphanumeric.ReplaceAllString(documentID, "_")
}

// getOrCreateCollection fetches the document's collection, creating it on
// first use. A lost creation race is treated as the collection already
// existing.
func (r *retrievalServiceImpl) getOrCreateCollection(ctx context.Context, documentID string) (VectorCollection, error) {
	name := CollectionName(documentID)

	collection, err := r.store.GetCollection(ctx, name)
	if err == nil {
		return collection, nil
	}

	collection, createErr := r.store.CreateCollection(ctx, name, map[string]interface{}{
		"documentId": documentID,
		"createdAt":  time.Now().UTC().Format(time.RFC3339),
	})
	if createErr != nil {
		// A concurrent caller may have created it between our get and
		// create. Retry the get before giving up.
		if collection, err = r.store.GetCollection(ctx, name); err == nil {
			return collection, nil
		}
		return nil, fmt.Errorf("failed to get or create collection for document %s: %w", documentID, createErr)
	}
	return collection, nil
}

// AddDocumentChunks embeds every chunk and writes them to the document's
// collection in one bulk insert. Embeddings are requested concurrently but
// stored in chunk order. Any embedding or store failure aborts the whole
// operation; a failed call leaves retrieval for the document possibly
// incomplete and the caller may retry the full batch.
func (r *retrievalServiceImpl) AddDocumentChunks(ctx context.Context, documentID string, chunks []string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to store for document %s", documentID)
	}

	collection, err := r.getOrCreateCollection(ctx, documentID)
	if err != nil {
		return err
	}

	vectors, err := EmbedAll(ctx, r.embedder, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed chunks for document %s: %w", documentID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	records := make([]ChunkRecord, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, ChunkRecord{
			ID:        uuid.New().String(),
			Text:      chunk,
			Embedding: vectors[i],
			Metadata: map[string]interface{}{
				"documentId": documentID,
				"chunkIndex": i,
				"length":     len(chunk),
				"timestamp":  now,
				"preview":    preview(chunk),
			},
		})
	}

	if err := collection.AddRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to add records for document %s: %w", documentID, err)
	}

	log.Printf("SERVICE: Added %d chunks to collection for document %s", len(chunks), documentID)
	return nil
}

// QueryDocuments embeds the query with the same model used at storage time
// and runs a nearest-neighbor search over the document's collection. The
// documentId metadata filter is a second guard against cross-document
// leakage on top of the per-document collection scoping. Fewer than topK
// matches, including zero, is not an error.
func (r *retrievalServiceImpl) QueryDocuments(ctx context.Context, documentID, query string, topK int) (*models.QueryResult, error) {
	collection, err := r.getOrCreateCollection(ctx, documentID)
	if err != nil {
		return nil, err
	}

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query for document %s: %w", documentID, err)
	}

	results, err := collection.Query(ctx, queryEmbedding, topK, map[string]string{
		"documentId": documentID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection for document %s: %w", documentID, err)
	}
	return results, nil
}

// CollectionExists reports whether the document has been processed for
// retrieval. It is a pure probe: it never creates a collection, so checking
// a never-stored id leaves no trace. Store failures are treated as absence.
func (r *retrievalServiceImpl) CollectionExists(ctx context.Context, documentID string) bool {
	exists, err := r.store.HasCollection(ctx, CollectionName(documentID))
	if err != nil {
		log.Printf("SERVICE: Existence probe failed for document %s: %v", documentID, err)
		return false
	}
	return exists
}

// DeleteCollection removes the document's collection. Absence is not an
// error; the deletion is already satisfied.
func (r *retrievalServiceImpl) DeleteCollection(ctx context.Context, documentID string) {
	name := CollectionName(documentID)
	if err := r.store.DeleteCollection(ctx, name); err != nil {
		log.Printf("SERVICE: Collection %s not found or already deleted: %v", name, err)
		return
	}
	log.Printf("SERVICE: Deleted collection %s", name)
}

// TotalChunks counts the records stored for a document.
func (r *retrievalServiceImpl) TotalChunks(ctx context.Context, documentID string) (int, error) {
	collection, err := r.store.GetCollection(ctx, CollectionName(documentID))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection for document %s: %w", documentID, err)
	}
	return collection.Count(ctx)
}

func preview(chunk string) string {
	trimmed := strings.TrimSpace(chunk)
	if len(trimmed) <= previewChars {
		return trimmed
	}
	// Cut on a rune boundary so the stored preview stays valid UTF-8.
	return trimmed[:runeFloor(trimmed, previewChars)]
}
