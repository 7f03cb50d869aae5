package handler

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"repoquery/internal/events"
	"repoquery/internal/models"
	"repoquery/internal/service"
)

// QueryHandler wires HTTP → ConversationService.
type QueryHandler struct {
	svc   *service.ConversationService
	store service.EmbeddingStore
}

// NewQueryHandler returns the handler for repository questions.
func NewQueryHandler(svc *service.ConversationService, store service.EmbeddingStore) *QueryHandler {
	return &QueryHandler{svc: svc, store: store}
}

// Register mounts the /query endpoint on the supplied router group.
func (h *QueryHandler) Register(r fiber.Router) {
	r.Post("/query", h.query)
}

// query handles POST /query { "query": "...", "repository": {...} }.
// The response is an SSE stream of conversation lifecycle events
// ending in DONE with the answer.
func (h *QueryHandler) query(c *fiber.Ctx) error {
	var q models.Query
	if err := c.BodyParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if strings.TrimSpace(q.Query) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query is required")
	}
	if !q.Repository.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "owner, name and branch are required")
	}

	// Cheap precondition before any model call: the repository must
	// have been indexed.
	exists, err := h.store.Exists(c.UserContext(), q.Repository)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !exists {
		return fiber.NewError(fiber.StatusBadRequest, "repository has not been indexed")
	}

	conversationID := uuid.NewString()
	log.Printf("query %s: conversation %s started", q.Repository.ID(), conversationID)

	stream := events.NewStream(context.Background())
	go func() {
		defer stream.CloseSend()
		if err := h.svc.Run(stream.Context(), q, stream); err != nil {
			log.Printf("query %s: conversation %s: %v", q.Repository.ID(), conversationID, err)
		}
	}()

	return streamEvents(c, stream)
}
