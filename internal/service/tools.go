package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"repoquery/internal/models"
)

// ToolName is the closed set of tools the conversation may dispatch.
type ToolName int

const (
	ToolSearchCodebase ToolName = iota
	ToolSearchFile
	ToolSearchPath
	ToolDone
)

// wireNames maps the sum type to the names declared to the model.
var wireNames = map[ToolName]string{
	ToolSearchCodebase: "search_codebase",
	ToolSearchFile:     "search_file",
	ToolSearchPath:     "search_path",
	ToolDone:           "done",
}

func (t ToolName) String() string {
	return wireNames[t]
}

// ParseToolName maps a wire name back to the sum type. An unknown
// name is a parse error, never a default variant.
func ParseToolName(name string) (ToolName, error) {
	for tool, wire := range wireNames {
		if wire == name {
			return tool, nil
		}
	}
	return 0, fmt.Errorf("invalid function %q", name)
}

// ParsedToolCall is a validated tool call with decoded arguments.
type ParsedToolCall struct {
	Name ToolName
	Args map[string]any
}

// ParseToolCall validates the raw tool-call payload. The tool name
// must be one of the four known names and the arguments must be a
// JSON object; either failing is fatal to the turn since the agent
// cannot safely guess intent.
func ParseToolCall(tc ToolCall) (ParsedToolCall, error) {
	name, err := ParseToolName(tc.Function.Name)
	if err != nil {
		return ParsedToolCall{}, err
	}

	raw := tc.Function.Arguments
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return ParsedToolCall{}, fmt.Errorf("invalid arguments for %s: %w", name, err)
	}

	return ParsedToolCall{Name: name, Args: args}, nil
}

// StringArg extracts a string argument. A missing or non-string value
// yields "" so the model receives an (empty) tool result and can try
// again, rather than failing the turn.
func (p ParsedToolCall) StringArg(key string) string {
	if v, ok := p.Args[key].(string); ok {
		return v
	}
	return ""
}

// relevantChunksMessage renders retrieval results as a tool message body.
func relevantChunksMessage(chunks []models.RelevantChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.String()
	}
	return strings.Join(parts, "\n")
}

// pathsMessage renders matched paths as a tool message body.
func pathsMessage(paths []string) string {
	return strings.Join(paths, ",")
}
