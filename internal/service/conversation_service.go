package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"repoquery/internal/events"
	"repoquery/internal/models"
)

// pathSearchLimit is how many fuzzy matches a search_path tool call
// returns to the model.
const pathSearchLimit = 3

// phase selects which system instructions are assembled into a
// request. The swap from tool selection to answer generation is the
// only mutation of the "first message" the conversation ever makes.
type phase int

const (
	phaseToolSelection phase = iota
	phaseAnswerGeneration
)

// ConversationConfig tunes the conversation loop.
type ConversationConfig struct {
	// RelevantFiles is the number of candidate files search_codebase
	// considers.
	RelevantFiles int
	// RelevantChunks is the number of chunks returned per file.
	RelevantChunks int
	// MaxSteps caps the tool-use loop. Exceeding it forces the
	// answer-generation phase so a confused model still terminates.
	MaxSteps int
}

// ConversationService drives one tool-using conversation per query:
// sanitize, loop over tool calls, then generate the final answer.
// The loop is strictly sequential; concurrency lives across
// conversations, which share only the read-only store and embedder.
type ConversationService struct {
	llm    ChatCompletionClient
	search *SearchService
	cfg    ConversationConfig
}

// NewConversationService wires the chat client and retrieval engine.
func NewConversationService(llm ChatCompletionClient, search *SearchService, cfg ConversationConfig) *ConversationService {
	if cfg.RelevantFiles <= 0 {
		cfg.RelevantFiles = 3
	}
	if cfg.RelevantChunks <= 0 {
		cfg.RelevantChunks = 2
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}
	return &ConversationService{
		llm:    llm,
		search: search,
		cfg:    cfg,
	}
}

// conversation is the per-query state: the message history (system
// message excluded—it is derived from the phase at request-assembly
// time) and the current phase.
type conversation struct {
	query   models.Query
	phase   phase
	history []ChatMessage
}

func (c *conversation) append(msg ChatMessage) {
	c.history = append(c.history, msg)
}

// request assembles the full message sequence for the current phase.
func (c *conversation) request(toolChoice string) ChatRequest {
	system := toolSelectionPrompt()
	if c.phase == phaseAnswerGeneration {
		system = answerGenerationPrompt()
	}

	messages := make([]ChatMessage, 0, len(c.history)+1)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: system})
	messages = append(messages, c.history...)

	return ChatRequest{
		Messages:   messages,
		Tools:      toolDefinitions(),
		ToolChoice: toolChoice,
	}
}

// Run executes the conversation for one query, emitting lifecycle
// events to the stream. The stream doubles as the cancellation signal:
// once its consumer is gone every Emit fails and the conversation
// aborts instead of finishing with no listener.
func (s *ConversationService) Run(ctx context.Context, query models.Query, stream *events.Stream) error {
	if err := stream.Emit(events.ProcessQuery, nil); err != nil {
		return err
	}

	sanitized, err := s.sanitizeQuery(ctx, query.Query)
	if err != nil {
		return s.fail(stream, err)
	}
	query.Query = sanitized

	conv := &conversation{
		query: query,
		phase: phaseToolSelection,
		history: []ChatMessage{
			{Role: RoleUser, Content: query.String()},
		},
	}

	for step := 0; step < s.cfg.MaxSteps; step++ {
		resp, err := s.llm.Complete(ctx, conv.request(ToolChoiceAuto))
		if err != nil {
			return s.fail(stream, err)
		}

		switch resp.FinishReason {
		case FinishToolCalls:
			final, err := s.dispatch(ctx, conv, resp, stream)
			if errors.Is(err, events.ErrStreamClosed) {
				return err
			}
			if err != nil {
				return s.fail(stream, err)
			}
			if final {
				return s.finalize(ctx, conv, stream)
			}

		case FinishStop:
			// Degraded path: the system message instructs the model to
			// always call tools, but gpt-3.5 class models sometimes
			// answer directly. Tolerate it and treat the content as
			// the final answer.
			return stream.Emit(events.Done, resp.Content)

		default:
			return s.fail(stream, errors.New("model returned an unexpected response"))
		}
	}

	// Step budget exhausted. Force the answer phase with whatever has
	// been gathered so far rather than looping forever.
	log.Printf("conversation for %s hit the %d-step cap", query.Repository.ID(), s.cfg.MaxSteps)
	return s.finalize(ctx, conv, stream)
}

// dispatch parses and executes one tool call. It reports final=true
// for the done tool. Retrieval output is appended as a tool-role
// message so the next completion sees it.
func (s *ConversationService) dispatch(ctx context.Context, conv *conversation, resp ChatResponse, stream *events.Stream) (final bool, err error) {
	if len(resp.ToolCalls) == 0 {
		return false, errors.New("model returned no tool call")
	}
	call := resp.ToolCalls[0]

	parsed, err := ParseToolCall(call)
	if err != nil {
		return false, err
	}

	if parsed.Name == ToolDone {
		return true, nil
	}

	conv.append(ChatMessage{Role: RoleAssistant, ToolCalls: []ToolCall{call}})
	repo := conv.query.Repository

	switch parsed.Name {
	case ToolSearchCodebase:
		if err := stream.Emit(events.SearchCodebase, parsed.Args); err != nil {
			return false, err
		}
		chunks, err := s.search.SearchCodebase(ctx, parsed.StringArg("query"), repo, s.cfg.RelevantFiles, s.cfg.RelevantChunks)
		if err != nil {
			return false, err
		}
		conv.append(toolResult(call.ID, relevantChunksMessage(chunks)))

	case ToolSearchFile:
		if err := stream.Emit(events.SearchFile, parsed.Args); err != nil {
			return false, err
		}
		chunks, err := s.search.SearchFile(ctx, parsed.StringArg("path"), parsed.StringArg("query"), repo, s.cfg.RelevantChunks)
		if err != nil {
			return false, err
		}
		conv.append(toolResult(call.ID, relevantChunksMessage(chunks)))

	case ToolSearchPath:
		if err := stream.Emit(events.SearchPath, parsed.Args); err != nil {
			return false, err
		}
		paths, err := s.search.SearchPath(ctx, parsed.StringArg("path"), repo, pathSearchLimit)
		if err != nil {
			return false, err
		}
		conv.append(toolResult(call.ID, pathsMessage(paths)))
	}

	return false, nil
}

// finalize switches to the answer-generation phase, runs the single
// tool-free completion and emits the answer.
func (s *ConversationService) finalize(ctx context.Context, conv *conversation, stream *events.Stream) error {
	conv.phase = phaseAnswerGeneration

	if err := stream.Emit(events.GenerateResponse, nil); err != nil {
		return err
	}

	resp, err := s.llm.Complete(ctx, conv.request(ToolChoiceNone))
	if err != nil {
		return s.fail(stream, err)
	}

	return stream.Emit(events.Done, resp.Content)
}

// sanitizeQuery runs the single rewrite call that strips prompt
// injections and extracts the actual question. An empty rewrite is a
// hard failure; the raw input is never silently substituted.
func (s *ConversationService) sanitizeQuery(ctx context.Context, raw string) (string, error) {
	resp, err := s.llm.Complete(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: RoleUser, Content: sanitizeQueryPrompt(raw)},
		},
	})
	if err != nil {
		return "", err
	}
	if resp.FinishReason != FinishStop {
		return "", errors.New("query sanitization failed")
	}

	sanitized := strings.TrimSpace(resp.Content)
	if sanitized == "" {
		return "", errors.New("no query found")
	}
	return sanitized, nil
}

// fail emits a terminal ERROR event and passes the error through.
func (s *ConversationService) fail(stream *events.Stream, err error) error {
	if emitErr := stream.Emit(events.Error, map[string]any{"message": err.Error()}); emitErr != nil {
		return emitErr
	}
	return err
}

func toolResult(callID, content string) ChatMessage {
	return ChatMessage{
		Role:       RoleTool,
		ToolCallID: callID,
		Content:    content,
	}
}
