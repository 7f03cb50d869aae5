package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoquery/internal/models"
)

func testRepo() models.Repository {
	return models.Repository{Owner: "open-sauced", Name: "ai", Branch: "beta"}
}

func TestMemoryUnknownRepo(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.RelevantPaths(ctx, testRepo(), []float32{1, 0}, 2)
	assert.ErrorIs(t, err, models.ErrCollectionNotFound)

	_, err = store.AllPaths(ctx, testRepo(), 10)
	assert.ErrorIs(t, err, models.ErrCollectionNotFound)

	exists, err := store.Exists(ctx, testRepo())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryRelevantPathsRanksAndDedupes(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	err := store.UpsertRepoEmbeddings(ctx, models.RepositoryEmbeddings{
		RepoID: testRepo().ID(),
		Chunks: []models.EmbeddedChunk{
			{Path: "src/main.rs", Content: "a", Vector: []float32{1, 0}},
			{Path: "src/main.rs", Content: "b", Vector: []float32{0.9, 0.1}},
			{Path: "README.md", Content: "c", Vector: []float32{0, 1}},
			{Path: "src/lib.rs", Content: "d", Vector: []float32{0.5, 0.5}},
		},
	})
	require.NoError(t, err)

	paths, err := store.RelevantPaths(ctx, testRepo(), []float32{1, 0}, 2)
	require.NoError(t, err)
	// Two chunks of src/main.rs outrank everything else but the path
	// appears once; the runner-up is the diagonal vector.
	assert.Equal(t, []string{"src/main.rs", "src/lib.rs"}, paths)
}

func TestMemoryUpsertReplaces(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.UpsertRepoEmbeddings(ctx, models.RepositoryEmbeddings{
		RepoID: testRepo().ID(),
		Chunks: []models.EmbeddedChunk{
			{Path: "old.go", Vector: []float32{1, 0}},
		},
	}))
	require.NoError(t, store.UpsertRepoEmbeddings(ctx, models.RepositoryEmbeddings{
		RepoID: testRepo().ID(),
		Chunks: []models.EmbeddedChunk{
			{Path: "new.go", Vector: []float32{1, 0}},
		},
	}))

	paths, err := store.AllPaths(ctx, testRepo(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.go"}, paths)
}

func TestMemoryAllPathsCapped(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.UpsertRepoEmbeddings(ctx, models.RepositoryEmbeddings{
		RepoID: testRepo().ID(),
		Chunks: []models.EmbeddedChunk{
			{Path: "a.go", Vector: []float32{1, 0}},
			{Path: "b.go", Vector: []float32{1, 0}},
			{Path: "c.go", Vector: []float32{1, 0}},
		},
	}))

	paths, err := store.AllPaths(ctx, testRepo(), 2)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	exists, err := store.Exists(ctx, testRepo())
	require.NoError(t, err)
	assert.True(t, exists)
}
