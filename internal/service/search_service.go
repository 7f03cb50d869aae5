package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"repoquery/internal/chunker"
	"repoquery/internal/models"
)

// FileFetcher pulls repository content from its hosting service.
// Implemented by github.Client; tests substitute fixtures.
type FileFetcher interface {
	// RepoFiles returns every indexable file of the repository.
	RepoFiles(ctx context.Context, repo models.Repository) ([]models.SourceFile, error)
	// FileContent returns a single file's content at the repository's branch.
	FileContent(ctx context.Context, repo models.Repository, path string) (string, error)
}

// SearchConfig tunes the retrieval engine.
type SearchConfig struct {
	ChunkMin int
	ChunkMax int
	MaxFiles int
}

// SearchService is the retrieval engine behind the conversation's
// three search tools. All operations are read-only against an
// already-ingested repository.
type SearchService struct {
	store    EmbeddingStore
	embedder Embedder
	fetcher  FileFetcher
	cfg      SearchConfig
}

// NewSearchService wires the store, embedder and fetcher.
func NewSearchService(store EmbeddingStore, embedder Embedder, fetcher FileFetcher, cfg SearchConfig) *SearchService {
	if cfg.ChunkMin <= 0 || cfg.ChunkMax < cfg.ChunkMin {
		cfg.ChunkMin, cfg.ChunkMax = chunker.DefaultMinChunkSize, chunker.DefaultMaxChunkSize
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 1000
	}
	return &SearchService{
		store:    store,
		embedder: embedder,
		fetcher:  fetcher,
		cfg:      cfg,
	}
}

// SearchCodebase ranks the repository's files against the query, then
// searches the top kFiles candidates chunk by chunk. The two-stage
// design keeps per-chunk vector search off the whole-repository hot
// path. Results are concatenated in the files' similarity order.
func (s *SearchService) SearchCodebase(ctx context.Context, query string, repo models.Repository, kFiles, kChunks int) ([]models.RelevantChunk, error) {
	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	paths, err := s.store.RelevantPaths(ctx, repo, queryVec, kFiles)
	if err != nil {
		return nil, err
	}

	var relevant []models.RelevantChunk
	for _, path := range paths {
		chunks, err := s.SearchFile(ctx, path, query, repo, kChunks)
		if err != nil {
			// A single unreachable file degrades to an empty result;
			// the model reacts by trying something else.
			log.Printf("search_codebase: skipping %s: %v", path, err)
			continue
		}
		relevant = append(relevant, chunks...)
	}
	return relevant, nil
}

// SearchFile fetches one file, chunks it with the configured capacity
// range and returns the kChunks chunks most similar to the query.
// Ties are broken by original chunk order.
func (s *SearchService) SearchFile(ctx context.Context, path, query string, repo models.Repository, kChunks int) ([]models.RelevantChunk, error) {
	content, err := s.fetcher.FileContent(ctx, repo, path)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}

	chunks := chunker.Split(models.SourceFile{Path: path, Content: content}, s.cfg.ChunkMin, s.cfg.ChunkMax)
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	chunkVecs, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks of %s: %w", path, err)
	}
	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	scores := make([]float32, len(chunks))
	for i, vec := range chunkVecs {
		scores[i] = cosineSimilarity(queryVec, vec)
	}

	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps original chunk order for equal scores.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if kChunks > len(order) {
		kChunks = len(order)
	}
	relevant := make([]models.RelevantChunk, 0, kChunks)
	for _, idx := range order[:kChunks] {
		relevant = append(relevant, models.RelevantChunk{
			Path:    path,
			Content: chunks[idx].Content,
		})
	}
	return relevant, nil
}

// SearchPath fuzzy-matches a partial path against every path stored
// for the repository and returns up to k matches, best first.
func (s *SearchService) SearchPath(ctx context.Context, partial string, repo models.Repository, k int) ([]string, error) {
	paths, err := s.store.AllPaths(ctx, repo, s.cfg.MaxFiles)
	if err != nil {
		return nil, err
	}

	ranks := fuzzy.RankFindNormalizedFold(partial, paths)
	sort.Sort(ranks)

	if k > len(ranks) {
		k = len(ranks)
	}
	matched := make([]string, 0, k)
	for _, r := range ranks[:k] {
		matched = append(matched, r.Target)
	}
	return matched, nil
}
