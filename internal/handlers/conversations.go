package handlers

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/config"
	"github.com/Lssat0415/cbk-agent-chatbox/internal/models"
	"github.com/Lssat0415/cbk-agent-chatbox/internal/services"
)

type ConversationHandler struct {
	cfg          *config.Config
	store        *services.ConversationStore
	orchestrator *services.Orchestrator
	validate     *validator.Validate
}

func NewConversationHandler(cfg *config.Config, store *services.ConversationStore, orchestrator *services.Orchestrator) *ConversationHandler {
	return &ConversationHandler{
		cfg:          cfg,
		store:        store,
		orchestrator: orchestrator,
		validate:     validator.New(),
	}
}

// List handles GET /v1/conversations
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.cfg.RequestTimeout)
	defer cancel()

	conversations, err := h.store.List(ctx)
	if err != nil {
		return c.Status(500).JSON(models.ErrorResponse{
			Error:   "Failed to list conversations",
			Message: err.Error(),
			Code:    500,
		})
	}

	return c.JSON(conversations)
}

// Create handles POST /v1/conversations
func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.cfg.RequestTimeout)
	defer cancel()

	var req models.CreateConversationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(models.ErrorResponse{
				Error:   "Invalid request body",
				Message: err.Error(),
				Code:    400,
			})
		}
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(400).JSON(models.ErrorResponse{
			Error:   "Invalid conversation title",
			Message: err.Error(),
			Code:    400,
		})
	}

	conv, err := h.store.Create(ctx, req.Title)
	if err != nil {
		return c.Status(500).JSON(models.ErrorResponse{
			Error:   "Failed to create conversation",
			Message: err.Error(),
			Code:    500,
		})
	}

	return c.Status(201).JSON(conv)
}

// Delete handles DELETE /v1/conversations/:id
func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if err := h.store.Delete(ctx, c.Params("id")); err != nil {
		return notFoundOrInternal(c, err)
	}

	return c.SendStatus(204)
}

// Clear handles POST /v1/conversations/:id/clear
func (h *ConversationHandler) Clear(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.cfg.RequestTimeout)
	defer cancel()

	conv, err := h.store.Clear(ctx, c.Params("id"))
	if err != nil {
		return notFoundOrInternal(c, err)
	}

	return c.JSON(conv)
}

// SendMessage handles POST /v1/conversations/:id/messages
func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.cfg.StreamTimeout)
	defer cancel()

	var req models.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(models.ErrorResponse{
			Error:   "Invalid request body",
			Message: err.Error(),
			Code:    400,
		})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(400).JSON(models.ErrorResponse{
			Error:   "Message content is required",
			Message: err.Error(),
			Code:    400,
		})
	}

	conv, err := h.orchestrator.Deliver(ctx, c.Params("id"), req.Content)
	if err != nil {
		return notFoundOrInternal(c, err)
	}

	return c.JSON(conv)
}

// Export handles GET /v1/conversations/:id/export
func (h *ConversationHandler) Export(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.cfg.RequestTimeout)
	defer cancel()

	conv, err := h.store.Get(ctx, c.Params("id"))
	if err != nil {
		return notFoundOrInternal(c, err)
	}

	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.SendString(services.ExportTranscript(*conv))
}

func notFoundOrInternal(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrConversationNotFound) {
		return c.Status(404).JSON(models.ErrorResponse{
			Error: "Conversation not found",
			Code:  404,
		})
	}
	return c.Status(500).JSON(models.ErrorResponse{
		Error:   "Request failed",
		Message: err.Error(),
		Code:    500,
	})
}

// CustomErrorHandler handles Fiber errors
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error:   "Request failed",
		Message: err.Error(),
		Code:    code,
	})
}
