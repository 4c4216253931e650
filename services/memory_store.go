package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github/studyrag/server/models"
)

// MemoryStore is an in-process VectorStore. It backs the test suite and
// lets the server run without a Chroma instance during development.
// Distances are cosine distance (1 - cosine similarity), so results sort
// ascending like the real store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (s *MemoryStore) GetCollection(ctx context.Context, name string) (VectorCollection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", name)
	}
	return col, nil
}

func (s *MemoryStore) CreateCollection(ctx context.Context, name string, metadata map[string]interface{}) (VectorCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return nil, fmt.Errorf("collection %q already exists", name)
	}
	col := &memoryCollection{metadata: metadata}
	s.collections[name] = col
	return col, nil
}

func (s *MemoryStore) HasCollection(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *MemoryStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("collection %q does not exist", name)
	}
	delete(s.collections, name)
	return nil
}

type memoryCollection struct {
	mu       sync.RWMutex
	metadata map[string]interface{}
	records  []ChunkRecord
}

func (c *memoryCollection) AddRecords(ctx context.Context, records []ChunkRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
	return nil
}

func (c *memoryCollection) Query(ctx context.Context, embedding []float32, topK int, where map[string]string) (*models.QueryResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	type scored struct {
		record   ChunkRecord
		distance float64
	}

	matches := make([]scored, 0, len(c.records))
	for _, rec := range c.records {
		if !metadataMatches(rec.Metadata, where) {
			continue
		}
		matches = append(matches, scored{
			record:   rec,
			distance: 1 - cosineSimilarity(embedding, rec.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})
	if topK < len(matches) {
		matches = matches[:topK]
	}

	result := &models.QueryResult{
		Documents: make([]string, 0, len(matches)),
		Distances: make([]float64, 0, len(matches)),
		Metadatas: make([]map[string]interface{}, 0, len(matches)),
	}
	for _, m := range matches {
		result.Documents = append(result.Documents, m.record.Text)
		result.Distances = append(result.Distances, m.distance)
		result.Metadatas = append(result.Metadatas, m.record.Metadata)
	}
	return result, nil
}

func (c *memoryCollection) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records), nil
}

func metadataMatches(metadata map[string]interface{}, where map[string]string) bool {
	for k, v := range where {
		got, ok := metadata[k]
		if !ok || fmt.Sprintf("%v", got) != v {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
