package handlers

import (
	"github.com/gofiber/fiber/v2"

	"gitpilot/pkg/auth"
)

// AuthHandler issues API tokens when the optional auth layer is enabled.
type AuthHandler struct {
	tokens *auth.TokenManager
}

// NewAuthHandler creates an auth handler. Returns nil when tokens is nil
// so route registration can skip the endpoint entirely.
func NewAuthHandler(tokens *auth.TokenManager) *AuthHandler {
	if tokens == nil {
		return nil
	}
	return &AuthHandler{tokens: tokens}
}

type tokenRequest struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// IssueToken signs a new bearer token for an API client.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil || req.Subject == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "subject is required",
		})
	}
	if req.Role == "" {
		req.Role = "user"
	}

	token, err := h.tokens.Issue(req.Subject, req.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to issue token",
		})
	}
	return c.JSON(fiber.Map{"token": token, "role": req.Role})
}
