package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repoquery/internal/models"
)

func TestParseToolName(t *testing.T) {
	for wire, want := range map[string]ToolName{
		"search_codebase": ToolSearchCodebase,
		"search_file":     ToolSearchFile,
		"search_path":     ToolSearchPath,
		"done":            ToolDone,
	} {
		got, err := ParseToolName(wire)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, wire, got.String())
	}
}

func TestParseToolNameUnknown(t *testing.T) {
	_, err := ParseToolName("delete_codebase")
	assert.Error(t, err)
}

func TestParseToolCall(t *testing.T) {
	call := ToolCall{
		ID:   "call_1",
		Type: "function",
		Function: FunctionCall{
			Name:      "search_file",
			Arguments: `{"path":"src/main.rs","query":"entry point"}`,
		},
	}

	parsed, err := ParseToolCall(call)
	require.NoError(t, err)
	assert.Equal(t, ToolSearchFile, parsed.Name)
	assert.Equal(t, "src/main.rs", parsed.StringArg("path"))
	assert.Equal(t, "entry point", parsed.StringArg("query"))
	assert.Equal(t, "", parsed.StringArg("missing"))
}

func TestParseToolCallEmptyArguments(t *testing.T) {
	parsed, err := ParseToolCall(ToolCall{
		Function: FunctionCall{Name: "done", Arguments: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, ToolDone, parsed.Name)
	assert.Equal(t, "", parsed.StringArg("anything"))
}

func TestParseToolCallBadJSON(t *testing.T) {
	_, err := ParseToolCall(ToolCall{
		Function: FunctionCall{Name: "search_path", Arguments: "{broken"},
	})
	assert.Error(t, err)
}

func TestToolDefinitionsShape(t *testing.T) {
	defs := toolDefinitions()
	require.Len(t, defs, 4)

	names := make([]string, len(defs))
	for i, d := range defs {
		assert.Equal(t, "function", d.Type)
		names[i] = d.Function.Name
	}
	assert.ElementsMatch(t, []string{"search_codebase", "search_file", "search_path", "done"}, names)
}

func TestRelevantChunksMessage(t *testing.T) {
	msg := relevantChunksMessage([]models.RelevantChunk{
		{Path: "src/main.rs", Content: "fn main() {}"},
		{Path: "src/lib.rs", Content: "pub mod db;"},
	})
	assert.Contains(t, msg, "Path argument:src/main.rs")
	assert.Contains(t, msg, "Relevant content: fn main() {}")
	assert.Contains(t, msg, "Path argument:src/lib.rs")
}

func TestPathsMessage(t *testing.T) {
	assert.Equal(t, "a.go,b.go", pathsMessage([]string{"a.go", "b.go"}))
	assert.Equal(t, "", pathsMessage(nil))
}
