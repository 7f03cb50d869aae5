package handler

import (
	"github.com/gofiber/fiber/v2"

	"repoquery/internal/github"
	"repoquery/internal/service"
)

// RegisterRoutes mounts every endpoint on the app.
func RegisterRoutes(app *fiber.App,
	ingestSvc *service.IngestService,
	conversationSvc *service.ConversationService,
	store service.EmbeddingStore,
	gh *github.Client,
) {
	NewEmbedHandler(ingestSvc, gh).Register(app)
	NewQueryHandler(conversationSvc, store).Register(app)
	NewRepoHandler(store).Register(app)
	NewHealthHandler().Register(app)
}
