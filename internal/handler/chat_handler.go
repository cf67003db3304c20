package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"trialchat/internal/port"
	"trialchat/internal/service"
)

// ChatHandler exposes the chat pipeline over HTTP.
type ChatHandler struct {
	chat    *service.ChatService
	metrics *service.Metrics
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, metrics *service.Metrics) *ChatHandler {
	return &ChatHandler{chat: chat, metrics: metrics}
}

// Register sets up the chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Chat)
	router.Get("/metrics", h.Metrics)
	router.Post("/reset_session", h.ResetSession)
}

// Chat handles one user message and returns the grounded reply.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body struct {
		SessionID   string `json:"session_id"`
		UserMessage string `json:"user_message"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	reply, err := h.chat.Chat(c.Context(), body.SessionID, body.UserMessage)
	if err != nil {
		if errors.Is(err, port.ErrEmptyMessage) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user message cannot be empty"})
		}
		if errors.Is(err, port.ErrIndexNotReady) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "the retrieval index is not ready yet, please retry later",
			})
		}
		// Backend fault, not a graceful "no results". Keep internals out of
		// the response body.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "the service is temporarily unavailable, please retry later",
		})
	}

	return c.JSON(reply)
}

// Metrics returns a snapshot of the cumulative usage counters.
func (h *ChatHandler) Metrics(c fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

// ResetSession clears a session's conversation history.
func (h *ChatHandler) ResetSession(c fiber.Ctx) error {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	h.chat.ResetSession(body.SessionID)
	return c.JSON(fiber.Map{"status": "success"})
}
