package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.GetCollection(ctx, "missing")
	require.Error(t, err)

	_, err = store.CreateCollection(ctx, "col", map[string]interface{}{"documentId": "d"})
	require.NoError(t, err)

	// Duplicate creation errors so callers can fall back to get.
	_, err = store.CreateCollection(ctx, "col", nil)
	require.Error(t, err)

	has, err := store.HasCollection(ctx, "col")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, store.DeleteCollection(ctx, "col"))
	require.Error(t, store.DeleteCollection(ctx, "col"))
}

func TestMemoryCollection_QueryOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	col, err := store.CreateCollection(ctx, "col", nil)
	require.NoError(t, err)

	// 2D toy embeddings so the geometry is obvious.
	require.NoError(t, col.AddRecords(ctx, []ChunkRecord{
		{ID: "1", Text: "A", Embedding: []float32{1, 0}, Metadata: map[string]interface{}{"documentId": "d"}},
		{ID: "2", Text: "B", Embedding: []float32{0, 1}, Metadata: map[string]interface{}{"documentId": "d"}},
		{ID: "3", Text: "C", Embedding: []float32{0.9, 0.1}, Metadata: map[string]interface{}{"documentId": "d"}},
	}))

	result, err := col.Query(ctx, []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "C", "B"}, result.Documents)
	for i := 1; i < len(result.Distances); i++ {
		require.GreaterOrEqual(t, result.Distances[i], result.Distances[i-1])
	}
}

func TestMemoryCollection_QueryTopKBounds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	col, err := store.CreateCollection(ctx, "col", nil)
	require.NoError(t, err)

	require.NoError(t, col.AddRecords(ctx, []ChunkRecord{
		{ID: "1", Text: "A", Embedding: []float32{1, 0}},
		{ID: "2", Text: "B", Embedding: []float32{0, 1}},
	}))

	result, err := col.Query(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, result.Documents, 2)

	result, err = col.Query(ctx, []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, result.Documents)
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	require.InDelta(t, 0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	require.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
