package handler

import (
	"github.com/gofiber/fiber/v2"

	"repoquery/internal/models"
	"repoquery/internal/service"
)

// RepoHandler exposes the indexing status of a repository.
type RepoHandler struct {
	store service.EmbeddingStore
}

// NewRepoHandler returns the handler for repository status checks.
func NewRepoHandler(store service.EmbeddingStore) *RepoHandler {
	return &RepoHandler{store: store}
}

// Register mounts the /repo endpoint on the supplied router group.
func (h *RepoHandler) Register(r fiber.Router) {
	r.Get("/repo", h.status)
}

// status handles GET /repo?owner=...&name=...&branch=... and reports
// whether the repository has an indexed collection.
func (h *RepoHandler) status(c *fiber.Ctx) error {
	var repo models.Repository
	if err := c.QueryParser(&repo); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if !repo.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "owner, name and branch are required")
	}

	indexed, err := h.store.Exists(c.UserContext(), repo)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"owner":   repo.Owner,
		"name":    repo.Name,
		"branch":  repo.Branch,
		"indexed": indexed,
	})
}
