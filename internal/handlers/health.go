package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/services"
)

type HealthHandler struct {
	startTime time.Time
	store     *services.ConversationStore
	hasRemote bool
}

func NewHealthHandler(store *services.ConversationStore, hasRemote bool) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		store:     store,
		hasRemote: hasRemote,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "cbk-agent-chatbox",
		"version": "1.0.0",
		"uptime":  time.Since(h.startTime).String(),
		"time":    time.Now(),
	})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	persistence := "cache-only"
	if h.store.Durable() {
		persistence = "ok"
	}
	advisory := "local-only"
	if h.hasRemote {
		advisory = "ok"
	}

	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": fiber.Map{
			"api":         "ok",
			"persistence": persistence,
			"advisory":    advisory,
		},
	})
}
