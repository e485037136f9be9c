package vectorstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveVectorID(t *testing.T) {
	id := DeriveVectorID("chunk-1")

	// UUID形态：8-4-4-4-12
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`), id)

	// 同一输入始终得到同一ID
	assert.Equal(t, id, DeriveVectorID("chunk-1"))
	assert.NotEqual(t, id, DeriveVectorID("chunk-2"))
}

func TestMemoryStoreUpsertAndExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.EnsureCollection(ctx, "documents", 3))

	err := store.Upsert(ctx, "documents", []Point{
		{
			ID:     DeriveVectorID("chunk-1"),
			Vector: []float32{1, 0, 0},
			Payload: Payload{
				ChunkID:    "chunk-1",
				DocumentID: "doc-a",
				Content:    "first chunk",
			},
		},
	})
	require.NoError(t, err)

	exists, err := store.Exists(ctx, "documents", DeriveVectorID("chunk-1"))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, "documents", DeriveVectorID("chunk-2"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.EnsureCollection(ctx, "documents", 2))

	point := Point{
		ID:     DeriveVectorID("chunk-1"),
		Vector: []float32{1, 0},
		Payload: Payload{ChunkID: "chunk-1", Content: "v1"},
	}
	require.NoError(t, store.Upsert(ctx, "documents", []Point{point}))

	point.Payload.Content = "v2"
	require.NoError(t, store.Upsert(ctx, "documents", []Point{point}))

	assert.Equal(t, 1, store.Count("documents"))

	results, err := store.Search(ctx, "documents", []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "v2", results[0].Payload.Content)
}

func TestMemoryStoreEnsureCollectionKeepsExisting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.EnsureCollection(ctx, "documents", 2))
	require.NoError(t, store.Upsert(ctx, "documents", []Point{
		{ID: "a", Vector: []float32{1, 0}},
	}))

	// 重复创建不清空已有数据
	require.NoError(t, store.EnsureCollection(ctx, "documents", 2))
	assert.Equal(t, 1, store.Count("documents"))
}

func TestMemoryStoreUpsertDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.EnsureCollection(ctx, "documents", 3))

	err := store.Upsert(ctx, "documents", []Point{
		{ID: "a", Vector: []float32{1, 0}},
	})
	assert.ErrorContains(t, err, "dimension mismatch")
}

func TestMemoryStoreSearchOrdersByScore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.EnsureCollection(ctx, "documents", 2))
	require.NoError(t, store.Upsert(ctx, "documents", []Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: Payload{ChunkID: "a"}},
		{ID: "b", Vector: []float32{0, 1}, Payload: Payload{ChunkID: "b"}},
		{ID: "c", Vector: []float32{0.9, 0.1}, Payload: Payload{ChunkID: "c"}},
	}))

	results, err := store.Search(ctx, "documents", []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestMemoryStoreSearchFiltersByDocumentID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.EnsureCollection(ctx, "documents", 2))
	require.NoError(t, store.Upsert(ctx, "documents", []Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: Payload{DocumentID: "doc-a"}},
		{ID: "b", Vector: []float32{1, 0}, Payload: Payload{DocumentID: "doc-b"}},
	}))

	results, err := store.Search(ctx, "documents", []float32{1, 0}, 10, &SearchFilter{DocumentID: "doc-b"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}
