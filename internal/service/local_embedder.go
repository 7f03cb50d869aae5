package service

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// LocalEmbedder is a deterministic, dependency-free bag-of-tokens
// embedder: each token hashes into a bucket of a fixed-dimension
// vector, which is then L2-normalised. It is no substitute for a real
// embedding model, but it preserves the property retrieval depends on:
// texts sharing more tokens score higher cosine similarity. Useful for
// local development and as the test double.
type LocalEmbedder struct {
	dimension int
}

var _ Embedder = (*LocalEmbedder)(nil)

// NewLocalEmbedder creates an embedder producing vectors of the given
// dimension.
func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &LocalEmbedder{dimension: dimension}
}

// EmbedDocuments embeds each text independently.
func (e *LocalEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// EmbedQuery embeds a query. Queries get no special pre-processing
// here; the method exists so callers stay portable across providers
// that do differentiate.
func (e *LocalEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *LocalEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(token, ".,;:()[]{}\"'`")))
		vec[int(h.Sum32()%uint32(e.dimension))]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
