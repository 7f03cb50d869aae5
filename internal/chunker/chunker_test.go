package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoquery/internal/models"
)

func TestSplitShortFileYieldsOneChunk(t *testing.T) {
	file := models.SourceFile{Path: "README.md", Content: "A short readme."}

	chunks := Split(file, 300, 400)

	require.Len(t, chunks, 1)
	assert.Equal(t, "README.md", chunks[0].Path)
	assert.Equal(t, "A short readme.", chunks[0].Content)
}

func TestSplitLongFileRespectsBounds(t *testing.T) {
	// 200 words of 9 runes each ("word0000 ") is well past max.
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("word")
		sb.WriteByte(byte('0' + i%10))
		sb.WriteString("abc ")
	}
	file := models.SourceFile{Path: "src/main.rs", Content: sb.String()}

	chunks := Split(file, 300, 400)

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, "src/main.rs", c.Path)
		if i < len(chunks)-1 {
			// Normalisation may shrink the span, so only the upper
			// bound holds for the cleaned content.
			assert.LessOrEqual(t, len([]rune(c.Content)), 400, "chunk %d too long", i)
		}
	}
}

func TestSplitPreservesTokenSequence(t *testing.T) {
	content := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta ", 40)
	file := models.SourceFile{Path: "doc.txt", Content: content}

	chunks := Split(file, 300, 400)

	var got []string
	for _, c := range chunks {
		got = append(got, strings.Fields(c.Content)...)
	}
	assert.Equal(t, strings.Fields(content), got)
}

func TestSplitCollapsesWhitespace(t *testing.T) {
	file := models.SourceFile{Path: "a.go", Content: "func main() {\n\tfmt.Println(\"hi\")\n}\n"}

	chunks := Split(file, 300, 400)

	require.Len(t, chunks, 1)
	assert.Equal(t, `func main() { fmt.Println("hi") }`, chunks[0].Content)
	assert.NotContains(t, chunks[0].Content, "\n")
	assert.NotContains(t, chunks[0].Content, "\t")
}

func TestSplitDeterministic(t *testing.T) {
	content := strings.Repeat("the quick brown fox jumps over the lazy dog ", 30)
	file := models.SourceFile{Path: "x", Content: content}

	first := Split(file, 300, 400)
	second := Split(file, 300, 400)

	assert.Equal(t, first, second)
}

func TestSplitEmptyAndBlankFiles(t *testing.T) {
	assert.Empty(t, Split(models.SourceFile{Path: "empty"}, 300, 400))
	assert.Empty(t, Split(models.SourceFile{Path: "blank", Content: " \n\t  \n"}, 300, 400))
}

func TestSplitCutsAtWhitespace(t *testing.T) {
	// Words of 10 runes; with range [30,40] every cut must land on a
	// word boundary, so no token is ever split.
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("abcdefghi ")
	}
	file := models.SourceFile{Path: "w", Content: sb.String()}

	chunks := Split(file, 30, 40)

	for _, c := range chunks {
		for _, tok := range strings.Fields(c.Content) {
			assert.Equal(t, "abcdefghi", tok)
		}
	}
}
