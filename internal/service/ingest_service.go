package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"repoquery/internal/chunker"
	"repoquery/internal/events"
	"repoquery/internal/models"
)

// embedBatchSize is how many chunks go into one EmbedDocuments call.
const embedBatchSize = 32

// embedWorkers bounds the embedding fan-out.
const embedWorkers = 4

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	ChunkMin int
	ChunkMax int
	MaxFiles int
}

// IngestService turns a repository into a populated vector collection:
// fetch, filter, chunk, embed, store.
type IngestService struct {
	store    EmbeddingStore
	embedder Embedder
	fetcher  FileFetcher
	cfg      IngestConfig
}

// NewIngestService wires the store, embedder and fetcher.
func NewIngestService(store EmbeddingStore, embedder Embedder, fetcher FileFetcher, cfg IngestConfig) *IngestService {
	if cfg.ChunkMin <= 0 || cfg.ChunkMax < cfg.ChunkMin {
		cfg.ChunkMin, cfg.ChunkMax = chunker.DefaultMinChunkSize, chunker.DefaultMaxChunkSize
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 1000
	}
	return &IngestService{
		store:    store,
		embedder: embedder,
		fetcher:  fetcher,
		cfg:      cfg,
	}
}

// Ingest indexes the repository, emitting lifecycle events to the
// stream as each stage starts. A failure at any stage aborts the run
// and surfaces a single ERROR event; the store's drop-then-recreate
// upsert guarantees a failed run never leaves a partial collection
// queryable as complete.
func (s *IngestService) Ingest(ctx context.Context, repo models.Repository, stream *events.Stream) error {
	if err := stream.Emit(events.FetchRepo, nil); err != nil {
		return err
	}

	files, err := s.fetcher.RepoFiles(ctx, repo)
	if err != nil {
		return s.fail(stream, fmt.Errorf("fetching repository: %w", err))
	}
	if len(files) > s.cfg.MaxFiles {
		files = files[:s.cfg.MaxFiles]
	}

	if err := stream.Emit(events.EmbedRepo, map[string]any{"files": len(files)}); err != nil {
		return err
	}

	var chunks []models.Chunk
	for _, file := range files {
		chunks = append(chunks, chunker.Split(file, s.cfg.ChunkMin, s.cfg.ChunkMax)...)
	}

	start := time.Now()
	embedded, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return s.fail(stream, fmt.Errorf("embedding repository: %w", err))
	}
	log.Printf("ingest %s: embedded %d chunks from %d files in %s",
		repo.ID(), len(embedded), len(files), time.Since(start).Round(time.Millisecond))

	if err := stream.Emit(events.SaveEmbeddings, nil); err != nil {
		return err
	}

	if err := s.store.UpsertRepoEmbeddings(ctx, models.RepositoryEmbeddings{
		RepoID: repo.ID(),
		Chunks: embedded,
	}); err != nil {
		return s.fail(stream, fmt.Errorf("storing embeddings: %w", err))
	}

	return stream.Emit(events.Done, nil)
}

// embedChunks embeds all chunks with a bounded worker fan-out. Chunk
// order is preserved in the output even though batches complete in
// arbitrary order; the single write after Wait is the synchronisation
// barrier.
func (s *IngestService) embedChunks(ctx context.Context, chunks []models.Chunk) ([]models.EmbeddedChunk, error) {
	embedded := make([]models.EmbeddedChunk, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		offset := start

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.String()
			}
			vecs, err := s.embedder.EmbedDocuments(gctx, texts)
			if err != nil {
				return err
			}
			if len(vecs) != len(batch) {
				return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(batch))
			}
			for i, c := range batch {
				embedded[offset+i] = models.EmbeddedChunk{
					Path:    c.Path,
					Content: c.Content,
					Vector:  vecs[i],
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embedded, nil
}

// fail emits a terminal ERROR event and passes the error through.
func (s *IngestService) fail(stream *events.Stream, err error) error {
	if emitErr := stream.Emit(events.Error, map[string]any{"message": err.Error()}); emitErr != nil {
		return emitErr
	}
	return err
}
