package repository

import (
	"context"
	"math"
	"sort"
	"sync"

	"repoquery/internal/models"
	"repoquery/internal/service"
)

var _ service.EmbeddingStore = (*Memory)(nil)

// Memory is an in-process EmbeddingStore. It exists for local
// development and tests; it brute-forces cosine similarity over every
// chunk of a collection, which is fine at the ≤1000-file scale a
// single repository produces.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]models.EmbeddedChunk
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]models.EmbeddedChunk)}
}

// UpsertRepoEmbeddings replaces the repository's collection wholesale.
func (m *Memory) UpsertRepoEmbeddings(_ context.Context, emb models.RepositoryEmbeddings) error {
	chunks := make([]models.EmbeddedChunk, len(emb.Chunks))
	copy(chunks, emb.Chunks)

	m.mu.Lock()
	m.collections[emb.RepoID] = chunks
	m.mu.Unlock()
	return nil
}

// RelevantPaths ranks every chunk against the query vector and returns
// up to k distinct file paths, most similar chunk first.
func (m *Memory) RelevantPaths(_ context.Context, repo models.Repository, queryVec []float32, k int) ([]string, error) {
	m.mu.RLock()
	chunks, ok := m.collections[repo.ID()]
	m.mu.RUnlock()
	if !ok {
		return nil, models.ErrCollectionNotFound
	}

	type scored struct {
		path  string
		score float32
	}
	ranked := make([]scored, len(chunks))
	for i, c := range chunks {
		ranked[i] = scored{path: c.Path, score: cosine(queryVec, c.Vector)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	seen := make(map[string]struct{}, k)
	paths := make([]string, 0, k)
	for _, r := range ranked {
		if _, dup := seen[r.path]; dup {
			continue
		}
		seen[r.path] = struct{}{}
		paths = append(paths, r.path)
		if len(paths) == k {
			break
		}
	}
	return paths, nil
}

// AllPaths returns the distinct file paths of the collection, capped
// at limit.
func (m *Memory) AllPaths(_ context.Context, repo models.Repository, limit int) ([]string, error) {
	m.mu.RLock()
	chunks, ok := m.collections[repo.ID()]
	m.mu.RUnlock()
	if !ok {
		return nil, models.ErrCollectionNotFound
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, c := range chunks {
		if _, dup := seen[c.Path]; dup {
			continue
		}
		seen[c.Path] = struct{}{}
		paths = append(paths, c.Path)
		if len(paths) == limit {
			break
		}
	}
	return paths, nil
}

// Exists reports whether the repository has been ingested.
func (m *Memory) Exists(_ context.Context, repo models.Repository) (bool, error) {
	m.mu.RLock()
	_, ok := m.collections[repo.ID()]
	m.mu.RUnlock()
	return ok, nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
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
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
