package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"trialchat/internal/domain"
)

// TurnReader lists persisted interaction records.
type TurnReader interface {
	ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.TurnLog, error)
}

// InteractionHandler exposes the durable interaction log for compliance
// review. Only registered when a log store is configured.
type InteractionHandler struct {
	store TurnReader
}

// NewInteractionHandler creates a new interaction handler.
func NewInteractionHandler(store TurnReader) *InteractionHandler {
	return &InteractionHandler{store: store}
}

// Register sets up the interaction log routes.
func (h *InteractionHandler) Register(router fiber.Router) {
	router.Get("/interactions", h.List)
}

// List returns the most recent interaction records with optional session
// filtering.
func (h *InteractionHandler) List(c fiber.Ctx) error {
	limitStr := c.Query("limit", "100")
	limit, _ := strconv.Atoi(limitStr)
	sessionID := c.Query("session_id", "")

	turns, err := h.store.ListTurns(c.Context(), sessionID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "the service is temporarily unavailable, please retry later",
		})
	}

	return c.JSON(fiber.Map{
		"interactions": turns,
		"count":        len(turns),
	})
}
