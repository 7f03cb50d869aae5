package handler

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"repoquery/internal/events"
	"repoquery/internal/github"
	"repoquery/internal/models"
	"repoquery/internal/service"
)

// EmbedHandler wires HTTP → IngestService.
type EmbedHandler struct {
	svc      *service.IngestService
	licenses *github.Client
}

// NewEmbedHandler returns the handler for repository indexing.
func NewEmbedHandler(svc *service.IngestService, licenses *github.Client) *EmbedHandler {
	return &EmbedHandler{svc: svc, licenses: licenses}
}

// Register mounts the /embed endpoint on the supplied router group.
func (h *EmbedHandler) Register(r fiber.Router) {
	r.Post("/embed", h.embed)
}

// embed handles POST /embed { "owner": "...", "name": "...", "branch": "..." }.
// The response is an SSE stream of ingestion lifecycle events.
func (h *EmbedHandler) embed(c *fiber.Ctx) error {
	var repo models.Repository
	if err := c.BodyParser(&repo); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if !repo.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "owner, name and branch are required")
	}

	// Only index repositories under a permissible license. A missing
	// license file counts as not permissible.
	license, err := h.licenses.LicenseInfo(c.UserContext(), repo)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if !license.Permissible {
		return fiber.NewError(fiber.StatusForbidden, "repository does not have a permissible license")
	}

	// The stream is rooted in the background, not the request context:
	// fasthttp recycles the request context once the handler returns,
	// while the ingestion outlives it. Client disconnects still cancel
	// through the stream writer.
	stream := events.NewStream(context.Background())
	go func() {
		defer stream.CloseSend()
		if err := h.svc.Ingest(stream.Context(), repo, stream); err != nil {
			log.Printf("embed %s: %v", repo.ID(), err)
		}
	}()

	return streamEvents(c, stream)
}
