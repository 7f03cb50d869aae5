// Package models holds the domain types shared across the service,
// repository and handler layers.
package models

import (
	"fmt"
	"strings"
)

// Repository identifies a GitHub repository at a specific branch.
// Its ID doubles as the vector collection name, so a repository/branch
// pair always maps to exactly one collection.
type Repository struct {
	Owner  string `json:"owner" query:"owner"`
	Name   string `json:"name" query:"name"`
	Branch string `json:"branch" query:"branch"`
}

// ID returns the deterministic collection name for the repository.
func (r Repository) ID() string {
	return fmt.Sprintf("%s-%s-%s", r.Owner, r.Name, r.Branch)
}

// Valid reports whether all identity fields are present.
func (r Repository) Valid() bool {
	return r.Owner != "" && r.Name != "" && r.Branch != ""
}

// SourceFile is a single file pulled out of a repository archive.
// It is consumed once by the chunker and not retained afterwards.
type SourceFile struct {
	Path    string
	Content string
}

// Chunk is a bounded, whitespace-normalised slice of a source file.
type Chunk struct {
	Path    string
	Content string
}

// String renders the chunk as the text that gets embedded during
// ingestion. Including the path biases file-level ranking towards
// files whose names match the query.
func (c Chunk) String() string {
	return fmt.Sprintf("File path: %s\nFile content: %s", c.Path, c.Content)
}

// EmbeddedChunk is a chunk together with its embedding vector, ready
// to be upserted into a vector store. Stores key it by an opaque
// sequential id; the path (and chunk text) travel as payload.
type EmbeddedChunk struct {
	Path    string
	Content string
	Vector  []float32
}

// RepositoryEmbeddings is the full ingestion output for one repository.
type RepositoryEmbeddings struct {
	RepoID string
	Chunks []EmbeddedChunk
}

// RelevantChunk is a retrieval result handed back to the conversation.
type RelevantChunk struct {
	Path    string
	Content string
}

// String renders the chunk the way it is presented to the model in a
// tool result message, path first so the model can cite sources.
func (c RelevantChunk) String() string {
	return fmt.Sprintf("##Relevant file chunk##\nPath argument:%s\nRelevant content: %s",
		c.Path, strings.TrimSpace(c.Content))
}

// Query is the input to one conversation.
type Query struct {
	Repository Repository `json:"repository"`
	Query      string     `json:"query"`
}

// String serialises the query into the user message sent to the model.
func (q Query) String() string {
	return fmt.Sprintf("##Repository Info##\nOwner:%s\nName:%s\nBranch:%s\n##User Query##\nQuery:%s",
		q.Repository.Owner, q.Repository.Name, q.Repository.Branch, q.Query)
}
