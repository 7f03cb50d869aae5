package handler

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoquery/internal/events"
)

func TestWriteSSE(t *testing.T) {
	var sb strings.Builder
	w := bufio.NewWriter(&sb)

	require.NoError(t, writeSSE(w, events.Event{Name: events.FetchRepo}))
	require.NoError(t, writeSSE(w, events.Event{Name: events.EmbedRepo, Data: map[string]any{"files": 3}}))
	require.NoError(t, writeSSE(w, events.Event{Name: events.Done, Data: "line one\nline two"}))
	require.NoError(t, w.Flush())

	out := sb.String()
	assert.Contains(t, out, "event: FETCH_REPO\ndata: \n\n")
	assert.Contains(t, out, "event: EMBED_REPO\ndata: {\"files\":3}\n\n")
	// Newlines inside the payload stay JSON-escaped so the frame is a
	// single data line.
	assert.Contains(t, out, "event: DONE\ndata: \"line one\\nline two\"\n\n")
}
