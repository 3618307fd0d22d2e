package searchindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/itinerary-service/internal/model"
)

func chunk(id string, ct model.ContentType) model.RetrievedChunk {
	return model.RetrievedChunk{ID: id, ContentType: ct, Content: "content " + id}
}

func TestMemoryIndex_RanksByCosine(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, chunk("lisbon", model.ContentCity), []float32{1, 0, 0}))
	require.NoError(t, idx.Upsert(ctx, chunk("belem", model.ContentAttraction), []float32{0.9, 0.1, 0}))
	require.NoError(t, idx.Upsert(ctx, chunk("visa", model.ContentVisaRule), []float32{0, 0, 1}))

	got, err := idx.Query(ctx, []float32{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lisbon", got[0].ID)
	assert.Equal(t, "belem", got[1].ID)
}

func TestMemoryIndex_TypeFilter(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, chunk("lisbon", model.ContentCity), []float32{1, 0}))
	require.NoError(t, idx.Upsert(ctx, chunk("visa", model.ContentVisaRule), []float32{0, 1}))

	got, err := idx.Query(ctx, []float32{1, 0}, 10, []model.ContentType{model.ContentVisaRule})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "visa", got[0].ID)
}

func TestMemoryIndex_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, chunk("a", model.ContentCity), []float32{1, 0}))
	c := chunk("a", model.ContentCity)
	c.Content = "updated"
	require.NoError(t, idx.Upsert(ctx, c, []float32{0, 1}))
	assert.Equal(t, 1, idx.Len())

	got, err := idx.Query(ctx, []float32{0, 1}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "updated", got[0].Content)
}

func TestMemoryIndex_Empty(t *testing.T) {
	got, err := NewMemoryIndex().Query(context.Background(), []float32{1}, 5, nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, chunk("a", model.ContentCity), []float32{1, 0}))
	assert.ErrorIs(t, idx.Upsert(ctx, chunk("b", model.ContentCity), []float32{1}), ErrDimensionMismatch)
	_, err := idx.Query(ctx, []float32{1, 0, 0}, 1, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNopIndex(t *testing.T) {
	got, err := NopIndex{}.Query(context.Background(), []float32{1}, 5, nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.ErrorIs(t, NopIndex{}.Upsert(context.Background(), chunk("a", model.ContentCity), nil), ErrNoVectorStore)
}
