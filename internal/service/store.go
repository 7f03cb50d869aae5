package service

import (
	"context"

	"repoquery/internal/models"
)

// EmbeddingStore persists and searches per-repository chunk embeddings.
// Every operation is scoped to the collection named by Repository.ID().
// Implementations must be safe for concurrent reads; a missing
// collection surfaces as models.ErrCollectionNotFound.
type EmbeddingStore interface {
	// UpsertRepoEmbeddings replaces the repository's collection
	// wholesale (drop-then-recreate). Ingestion is idempotent per
	// repository, never incremental.
	UpsertRepoEmbeddings(ctx context.Context, repo models.RepositoryEmbeddings) error

	// RelevantPaths returns up to k distinct file paths ordered by
	// descending cosine similarity of their chunks to queryVec.
	RelevantPaths(ctx context.Context, repo models.Repository, queryVec []float32, k int) ([]string, error)

	// AllPaths returns the distinct file paths stored for the
	// repository, capped at limit. Excess entries are silently
	// truncated; this bounds pathological repositories.
	AllPaths(ctx context.Context, repo models.Repository, limit int) ([]string, error)

	// Exists reports whether the repository has been ingested.
	Exists(ctx context.Context, repo models.Repository) (bool, error)
}
