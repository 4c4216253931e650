package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github/studyrag/server/models"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// ChunkRecord is one embedded chunk as written to the vector index.
type ChunkRecord struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]interface{}
}

// VectorStore is the narrow slice of a vector database this backend needs:
// named collections, bulk insert, and filtered nearest-neighbor search.
// Implementations: chromaStore (production) and MemoryStore (tests, dev).
type VectorStore interface {
	// GetCollection returns an existing collection or an error if absent.
	GetCollection(ctx context.Context, name string) (VectorCollection, error)
	// CreateCollection creates a collection tagged with metadata. Creating
	// an existing collection may error; callers treat that as "already
	// exists" and fall back to GetCollection.
	CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (VectorCollection, error)
	// HasCollection reports existence without creating anything.
	HasCollection(ctx context.Context, name string) (bool, error)
	DeleteCollection(ctx context.Context, name string) error
}

// VectorCollection is one named index.
type VectorCollection interface {
	AddRecords(ctx context.Context, records []ChunkRecord) error
	// Query returns up to topK nearest records ordered by ascending
	// distance, restricted to records whose metadata matches every entry
	// of where.
	Query(ctx context.Context, embedding []float32, topK int, where map[string]string) (*models.QueryResult, error)
	Count(ctx context.Context) (int, error)
}

// chromaStore adapts the ChromaDB v2 client to VectorStore.
type chromaStore struct {
	client chromago.Client
}

// NewChromaStore wraps an already-connected Chroma client.
func NewChromaStore(client chromago.Client) VectorStore {
	return &chromaStore{client: client}
}

func (s *chromaStore) GetCollection(ctx context.Context, name string) (VectorCollection, error) {
	col, err := s.client.GetCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection %q: %w", name, err)
	}
	return &chromaCollection{col: col}, nil
}

func (s *chromaStore) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (VectorCollection, error) {
	col, err := s.client.CreateCollection(ctx, name,
		chromago.WithCollectionMetadataCreate(newChromaMetadata(metadata)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	return &chromaCollection{col: col}, nil
}

func (s *chromaStore) HasCollection(ctx context.Context, name string) (bool, error) {
	cols, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	for _, col := range cols {
		if col.Name() == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *chromaStore) DeleteCollection(ctx context.Context, name string) error {
	return s.client.DeleteCollection(ctx, name)
}

type chromaCollection struct {
	col chromago.Collection
}

func (c *chromaCollection) AddRecords(ctx context.Context, records []ChunkRecord) error {
	ids := make([]chromago.DocumentID, 0, len(records))
	texts := make([]string, 0, len(records))
	vectors := make([]embeddings.Embedding, 0, len(records))
	metadatas := make([]chromago.DocumentMetadata, 0, len(records))
	for _, rec := range records {
		ids = append(ids, chromago.DocumentID(rec.ID))
		texts = append(texts, rec.Text)
		vectors = append(vectors, embeddings.NewEmbeddingFromFloat32(rec.Embedding))
		metadatas = append(metadatas, newChromaDocumentMetadata(rec.Metadata))
	}

	return c.col.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	)
}

func (c *chromaCollection) Query(ctx context.Context, embedding []float32, topK int, where map[string]string) (*models.QueryResult, error) {
	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chromago.WithNResults(topK),
	}
	if clause := whereClause(where); clause != nil {
		opts = append(opts, chromago.WithWhereQuery(clause))
	}

	results, err := c.col.Query(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	out := &models.QueryResult{
		Documents: []string{},
		Distances: []float64{},
		Metadatas: []map[string]interface{}{},
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return out, nil
	}

	for i, doc := range documentGroups[0] {
		out.Documents = append(out.Documents, doc.ContentString())
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			out.Distances = append(out.Distances, float64(distanceGroups[0][i]))
		} else {
			out.Distances = append(out.Distances, 0)
		}
		var metadataMap map[string]interface{}
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			metadataMap = metadataToMap(metadataGroups[0][i])
		}
		out.Metadatas = append(out.Metadatas, metadataMap)
	}
	return out, nil
}

func (c *chromaCollection) Count(ctx context.Context) (int, error) {
	count, err := c.col.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

func whereClause(where map[string]string) chromago.WhereFilter {
	clauses := make([]chromago.WhereClause, 0, len(where))
	for k, v := range where {
		clauses = append(clauses, chromago.EqString(k, v))
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return chromago.And(clauses...)
	}
}

func metadataAttributes(metadata map[string]interface{}) []*chromago.MetaAttribute {
	attrs := make([]*chromago.MetaAttribute, 0, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		default:
			attrs = append(attrs, chromago.NewStringAttribute(k, fmt.Sprintf("%v", val)))
		}
	}
	return attrs
}

func newChromaMetadata(metadata map[string]interface{}) chromago.CollectionMetadata {
	return chromago.NewMetadata(metadataAttributes(metadata)...)
}

func newChromaDocumentMetadata(metadata map[string]interface{}) chromago.DocumentMetadata {
	return chromago.NewDocumentMetadata(metadataAttributes(metadata)...)
}

// metadataToMap converts a DocumentMetadata to a plain map. The metadata
// type exposes no direct accessor for all values, so round-trip it through
// JSON.
func metadataToMap(metadata chromago.DocumentMetadata) map[string]interface{} {
	if metadata == nil {
		return map[string]interface{}{}
	}
	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		log.Printf("WARN: could not marshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	var metadataMap map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &metadataMap); err != nil {
		log.Printf("WARN: could not unmarshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	return metadataMap
}
