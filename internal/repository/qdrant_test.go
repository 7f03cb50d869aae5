package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoquery/internal/models"
)

func TestQdrantExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path == "/collections/open-sauced-ai-beta" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewQdrant(QdrantConfig{URL: srv.URL, Dimension: 2})

	exists, err := store.Exists(context.Background(), testRepo())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(context.Background(), models.Repository{Owner: "x", Name: "y", Branch: "z"})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestQdrantUpsertDropsAndRecreates(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)

		if r.Method == http.MethodPut && r.URL.Path == "/collections/open-sauced-ai-beta/points" {
			var body struct {
				Points []struct {
					ID      int       `json:"id"`
					Vector  []float32 `json:"vector"`
					Payload struct {
						Path    string `json:"path"`
						Content string `json:"content"`
					} `json:"payload"`
				} `json:"points"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Points, 2)
			assert.Equal(t, "src/main.rs", body.Points[0].Payload.Path)
			assert.Equal(t, 1, body.Points[1].ID)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewQdrant(QdrantConfig{URL: srv.URL, Dimension: 2})

	err := store.UpsertRepoEmbeddings(context.Background(), models.RepositoryEmbeddings{
		RepoID: testRepo().ID(),
		Chunks: []models.EmbeddedChunk{
			{Path: "src/main.rs", Content: "fn main", Vector: []float32{1, 0}},
			{Path: "README.md", Content: "docs", Vector: []float32{0, 1}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"DELETE /collections/open-sauced-ai-beta",
		"PUT /collections/open-sauced-ai-beta",
		"PUT /collections/open-sauced-ai-beta/points",
	}, calls)
}

func TestQdrantRelevantPathsDedupes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/open-sauced-ai-beta/points/search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"score": 0.99, "payload": map[string]any{"path": "src/main.rs"}},
				{"score": 0.98, "payload": map[string]any{"path": "src/main.rs"}},
				{"score": 0.90, "payload": map[string]any{"path": "src/lib.rs"}},
				{"score": 0.80, "payload": map[string]any{"path": "README.md"}},
			},
		})
	}))
	defer srv.Close()

	store := NewQdrant(QdrantConfig{URL: srv.URL, Dimension: 2})

	paths, err := store.RelevantPaths(context.Background(), testRepo(), []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.rs", "src/lib.rs"}, paths)
}

func TestQdrantAllPathsFollowsScrollPages(t *testing.T) {
	// Two pages of chunk-dense points: every path repeats several
	// times, so distinct paths only accumulate across pages.
	pages := []map[string]any{
		{
			"result": map[string]any{
				"points": []map[string]any{
					{"payload": map[string]any{"path": "src/main.rs"}},
					{"payload": map[string]any{"path": "src/main.rs"}},
					{"payload": map[string]any{"path": "src/lib.rs"}},
				},
				"next_page_offset": 3,
			},
		},
		{
			"result": map[string]any{
				"points": []map[string]any{
					{"payload": map[string]any{"path": "src/lib.rs"}},
					{"payload": map[string]any{"path": "README.md"}},
				},
				"next_page_offset": nil,
			},
		},
	}

	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/open-sauced-ai-beta/points/scroll", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if off, ok := body["offset"]; ok {
			offsets = append(offsets, string(mustJSON(t, off)))
			json.NewEncoder(w).Encode(pages[1])
			return
		}
		json.NewEncoder(w).Encode(pages[0])
	}))
	defer srv.Close()

	store := NewQdrant(QdrantConfig{URL: srv.URL, Dimension: 2})

	paths, err := store.AllPaths(context.Background(), testRepo(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.rs", "src/lib.rs", "README.md"}, paths)
	// The second request carried the first page's next_page_offset.
	assert.Equal(t, []string{"3"}, offsets)
}

func TestQdrantAllPathsStopsAtLimit(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"points": []map[string]any{
					{"payload": map[string]any{"path": "a.go"}},
					{"payload": map[string]any{"path": "b.go"}},
					{"payload": map[string]any{"path": "c.go"}},
				},
				"next_page_offset": 3,
			},
		})
	}))
	defer srv.Close()

	store := NewQdrant(QdrantConfig{URL: srv.URL, Dimension: 2})

	paths, err := store.AllPaths(context.Background(), testRepo(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go"}, paths)
	assert.Equal(t, 1, requests)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestQdrantMissingCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewQdrant(QdrantConfig{URL: srv.URL, Dimension: 2})

	_, err := store.RelevantPaths(context.Background(), testRepo(), []float32{1, 0}, 2)
	assert.ErrorIs(t, err, models.ErrCollectionNotFound)

	_, err = store.AllPaths(context.Background(), testRepo(), 10)
	assert.ErrorIs(t, err, models.ErrCollectionNotFound)
}

func TestQdrantAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewQdrant(QdrantConfig{URL: srv.URL, APIKey: "secret", Dimension: 2})

	_, err := store.Exists(context.Background(), testRepo())
	require.NoError(t, err)
}
