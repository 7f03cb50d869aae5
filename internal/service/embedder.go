package service

import "context"

// Embedder maps text to fixed-dimension vectors. Document and query
// embedding are separate operations because providers may apply
// different pre-processing to each (Vertex uses distinct task types);
// retrieval only works when the two remain comparable within one
// provider instance.
type Embedder interface {
	// EmbedDocuments embeds a batch of document texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
