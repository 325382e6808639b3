package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Lssat0415/cbk-agent-chatbox/internal/config"
	"github.com/Lssat0415/cbk-agent-chatbox/internal/handlers"
	"github.com/Lssat0415/cbk-agent-chatbox/internal/logger"
	"github.com/Lssat0415/cbk-agent-chatbox/internal/services"
	"github.com/Lssat0415/cbk-agent-chatbox/pkg/advisory"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	// Initialize services
	store := services.NewConversationStore(cfg, log)
	defer store.Close()

	var remote services.RemoteChannel
	if cfg.AdvisoryServiceURL != "" {
		remote = advisory.NewClient(cfg.AdvisoryServiceURL, cfg.AdvisoryAPIKey)
	}
	orchestrator := services.NewOrchestrator(log, store, remote)

	// Initialize handlers
	conversationHandler := handlers.NewConversationHandler(cfg, store, orchestrator)
	healthHandler := handlers.NewHealthHandler(store, remote != nil)

	// Create Fiber app with optimized config
	app := fiber.New(fiber.Config{
		StrictRouting: true,
		CaseSensitive: true,
		ServerHeader:  "CBK-Advisor",
		AppName:       "CBK Advisor v1.0",
		ReadTimeout:   time.Second * 10,
		WriteTimeout:  cfg.StreamTimeout + time.Second*10,
		BodyLimit:     1 * 1024 * 1024, // 1MB
		ErrorHandler:  handlers.CustomErrorHandler,
	})

	// Middleware stack
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "https://*,http://localhost:*",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	}))

	// Routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "CBK Advisor API",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	app.Get("/health", healthHandler.Health)
	app.Get("/health/ready", healthHandler.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	v1 := app.Group("/v1")
	v1.Get("/conversations", conversationHandler.List)
	v1.Post("/conversations", conversationHandler.Create)
	v1.Delete("/conversations/:id", conversationHandler.Delete)
	v1.Post("/conversations/:id/clear", conversationHandler.Clear)
	v1.Post("/conversations/:id/messages", conversationHandler.SendMessage)
	v1.Get("/conversations/:id/export", conversationHandler.Export)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	log.Info("advisory chat service started",
		zap.String("port", port),
		zap.String("environment", cfg.Environment),
		zap.Bool("remote_advisory", remote != nil),
		zap.Bool("durable_persistence", store.Durable()))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server shutdown complete")
}
