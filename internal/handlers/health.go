package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"gitpilot/internal/credentials"
	"gitpilot/internal/tools"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	registry *tools.Registry
	creds    *credentials.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(registry *tools.Registry, creds *credentials.Store) *HealthHandler {
	return &HealthHandler{registry: registry, creds: creds}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":                "healthy",
		"tools":                 h.registry.Count(),
		"credentialsConfigured": h.creds.Configured(),
		"timestamp":             time.Now().Format(time.RFC3339),
	})
}
