package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"repoquery/internal/models"
	"repoquery/internal/service"
)

var _ service.EmbeddingStore = (*Qdrant)(nil)

// Qdrant is an EmbeddingStore over Qdrant's REST API. One Qdrant
// collection per repository, named after the repository ID, cosine
// distance. The client is deliberately a thin net/http wrapper; the
// store only needs five endpoints.
type Qdrant struct {
	url       string
	apiKey    string
	dimension int
	client    *http.Client
}

// QdrantConfig configures the Qdrant store.
type QdrantConfig struct {
	URL       string
	APIKey    string
	Dimension int
	Timeout   time.Duration
}

// NewQdrant returns a store talking to the given Qdrant instance.
func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Qdrant{
		url:       cfg.URL,
		apiKey:    cfg.APIKey,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
	}
}

// UpsertRepoEmbeddings drops and recreates the repository's collection,
// then writes every chunk. The drop-first sequencing means a re-index
// never leaves stale chunks behind, and a failed run leaves the
// collection missing rather than half-populated.
func (q *Qdrant) UpsertRepoEmbeddings(ctx context.Context, emb models.RepositoryEmbeddings) error {
	// Ignore the delete result; a missing collection is fine.
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/collections/%s", q.url, emb.RepoID), nil)
	if err != nil {
		return err
	}
	q.addHeaders(req)
	if resp, err := q.client.Do(req); err == nil {
		resp.Body.Close()
	}

	create := map[string]any{
		"vectors": map[string]any{
			"size":     q.dimension,
			"distance": "Cosine",
		},
	}
	if err := q.putJSON(ctx, fmt.Sprintf("%s/collections/%s", q.url, emb.RepoID), create); err != nil {
		return fmt.Errorf("creating collection %s: %w", emb.RepoID, err)
	}

	points := make([]map[string]any, len(emb.Chunks))
	for i, c := range emb.Chunks {
		points[i] = map[string]any{
			"id":     i,
			"vector": c.Vector,
			"payload": map[string]any{
				"path":    c.Path,
				"content": c.Content,
			},
		}
	}
	body := map[string]any{"points": points}
	if err := q.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, emb.RepoID), body); err != nil {
		return fmt.Errorf("upserting points into %s: %w", emb.RepoID, err)
	}
	return nil
}

// RelevantPaths runs a vector search and collapses the scored chunks
// to up to k distinct paths, preserving similarity order. The search
// over-fetches because several top chunks usually share a file.
func (q *Qdrant) RelevantPaths(ctx context.Context, repo models.Repository, queryVec []float32, k int) ([]string, error) {
	body := map[string]any{
		"vector":       queryVec,
		"limit":        k * 10,
		"with_payload": true,
	}
	var out struct {
		Result []struct {
			Payload struct {
				Path string `json:"path"`
			} `json:"payload"`
		} `json:"result"`
	}
	err := q.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", q.url, repo.ID()), body, &out)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, k)
	paths := make([]string, 0, k)
	for _, r := range out.Result {
		if _, dup := seen[r.Payload.Path]; dup {
			continue
		}
		seen[r.Payload.Path] = struct{}{}
		paths = append(paths, r.Payload.Path)
		if len(paths) == k {
			break
		}
	}
	return paths, nil
}

// scrollPageSize is how many points one scroll request returns.
const scrollPageSize = 256

// AllPaths scrolls the whole collection page by page and returns up to
// limit distinct paths. Vectors are excluded from the responses to
// keep them small. Pagination follows next_page_offset, so the result
// is only ever truncated at limit, never by chunk-per-file density.
func (q *Qdrant) AllPaths(ctx context.Context, repo models.Repository, limit int) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	// next_page_offset is an opaque point id (integer or UUID); carry
	// it back verbatim.
	var offset json.RawMessage
	for {
		body := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{"path"},
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}

		var out struct {
			Result struct {
				Points []struct {
					Payload struct {
						Path string `json:"path"`
					} `json:"payload"`
				} `json:"points"`
				NextPageOffset json.RawMessage `json:"next_page_offset"`
			} `json:"result"`
		}
		err := q.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", q.url, repo.ID()), body, &out)
		if err != nil {
			return nil, err
		}

		for _, p := range out.Result.Points {
			if _, dup := seen[p.Payload.Path]; dup {
				continue
			}
			seen[p.Payload.Path] = struct{}{}
			paths = append(paths, p.Payload.Path)
			if len(paths) == limit {
				return paths, nil
			}
		}

		next := out.Result.NextPageOffset
		if len(out.Result.Points) == 0 || next == nil || string(next) == "null" {
			return paths, nil
		}
		offset = next
	}
}

// Exists reports whether the repository's collection exists.
func (q *Qdrant) Exists(ctx context.Context, repo models.Repository) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/collections/%s", q.url, repo.ID()), nil)
	if err != nil {
		return false, err
	}
	q.addHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, fmt.Errorf("qdrant GET collection %s: %s", repo.ID(), resp.Status)
	}
	return true, nil
}

func (q *Qdrant) addHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
}

func (q *Qdrant) putJSON(ctx context.Context, url string, body any) error {
	return q.send(ctx, http.MethodPut, url, body, nil)
}

func (q *Qdrant) postJSON(ctx context.Context, url string, body any, out any) error {
	return q.send(ctx, http.MethodPost, url, body, out)
}

func (q *Qdrant) send(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	q.addHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.ErrCollectionNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("qdrant %s %s: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
