// Package chunker splits file text into bounded, whitespace-normalised
// segments used as the unit of embedding and retrieval.
package chunker

import (
	"strings"
	"unicode"

	"repoquery/internal/models"
)

// Default capacity range, in characters.
const (
	DefaultMinChunkSize = 300
	DefaultMaxChunkSize = 400
)

// Split cuts a file's content into contiguous, non-overlapping spans
// whose rune length falls within [min,max], except a possibly shorter
// trailing span. Span boundaries are moved back to the nearest
// whitespace where one exists inside the range, so tokens are not cut
// mid-word when avoidable. Each span's internal whitespace runs
// (including newlines) are then collapsed to single spaces.
//
// The output is deterministic: identical input and range always yield
// identical chunks. Files shorter than min yield exactly one chunk.
// Spans that normalise to the empty string are dropped.
func Split(file models.SourceFile, min, max int) []models.Chunk {
	if min <= 0 || max < min {
		min, max = DefaultMinChunkSize, DefaultMaxChunkSize
	}

	runes := []rune(file.Content)
	chunks := make([]models.Chunk, 0, len(runes)/min+1)

	start := 0
	for start < len(runes) {
		end := len(runes)
		if end-start > max {
			end = start + max
			// Pull the cut back to a whitespace boundary, but never
			// below the minimum span length.
			for i := end; i > start+min; i-- {
				if unicode.IsSpace(runes[i-1]) {
					end = i
					break
				}
			}
		}

		content := normalise(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, models.Chunk{Path: file.Path, Content: content})
		}
		start = end
	}

	return chunks
}

// normalise collapses all whitespace runs to single spaces and trims
// the edges.
func normalise(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
