package handler

import (
	"github.com/gofiber/fiber/v2"
)

// HealthHandler answers liveness probes.
type HealthHandler struct{}

// NewHealthHandler returns the health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Register mounts /health at the application root.
func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
