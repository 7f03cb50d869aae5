package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedderDeterministic(t *testing.T) {
	e := NewLocalEmbedder(64)
	ctx := context.Background()

	a, err := e.EmbedQuery(ctx, "database connection pooling")
	require.NoError(t, err)
	b, err := e.EmbedQuery(ctx, "database connection pooling")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestLocalEmbedderSharedTokensScoreHigher(t *testing.T) {
	e := NewLocalEmbedder(64)
	ctx := context.Background()

	query, err := e.EmbedQuery(ctx, "qdrant vector search")
	require.NoError(t, err)

	docs, err := e.EmbedDocuments(ctx, []string{
		"setting up the qdrant vector search collection",
		"rendering markdown in the browser",
	})
	require.NoError(t, err)

	assert.Greater(t, cosineSimilarity(query, docs[0]), cosineSimilarity(query, docs[1]))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)

	// Degenerate inputs score zero instead of dividing by zero.
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
