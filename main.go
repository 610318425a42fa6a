package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/termdesk/termdesk/config"
	"github.com/termdesk/termdesk/handler"
	"github.com/termdesk/termdesk/market"
	"github.com/termdesk/termdesk/middleware"
	"github.com/termdesk/termdesk/pkg/logger"
	"github.com/termdesk/termdesk/policy"
	"github.com/termdesk/termdesk/schema"
	"github.com/termdesk/termdesk/service"
	"github.com/termdesk/termdesk/skill"
	"github.com/termdesk/termdesk/solver"
	"github.com/termdesk/termdesk/utility"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	configPath := os.Getenv("TERMDESK_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully", "path", configPath)

	// Clause catalog: builtin plus optional YAML overlay
	registry := schema.NewRegistry(schema.DefaultCatalog())
	if cfg.Schema.CatalogPath != "" {
		if err := registry.LoadOverlay(cfg.Schema.CatalogPath); err != nil {
			slog.Error("failed to load clause catalog overlay", "error", err)
			os.Exit(1)
		}
	}

	// Market benchmarks: optional dataset, schema-derived fallback
	var rows []market.Row
	if cfg.Market.DatasetPath != "" {
		rows, err = market.LoadDataset(cfg.Market.DatasetPath)
		if err != nil {
			slog.Error("failed to load market dataset", "error", err)
			os.Exit(1)
		}
	}
	guidance := market.NewGuidance(registry, rows)

	policyEngine := policy.NewEngine(registry)
	skills := skill.NewRegistry()
	sol := solver.New(registry, policyEngine, solver.Config{
		TieBreak:   cfg.Solver.TieBreak,
		Confidence: cfg.Solver.DefaultConfidence,
	})
	utilityEngine := utility.NewEngine(registry)
	citations := service.NewCitationService(&cfg.Citations)
	store := service.NewSessionStore(&cfg.Store)

	var archiver *service.RoundArchiver
	if cfg.Archive.Enabled {
		archiver, err = service.NewRoundArchiver(&cfg.Archive)
		if err != nil {
			slog.Error("failed to initialize round archiver", "error", err)
			os.Exit(1)
		}
		if err := archiver.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
	}

	negotiation := service.NewNegotiationService(
		registry, guidance, skills, sol, utilityEngine, citations, store, archiver)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg, store)
	sessionHandler := handler.NewSessionHandler(store, registry)
	roundHandler := handler.NewRoundHandler(negotiation, store)
	termHandler := handler.NewTermHandler(store, registry, policyEngine)
	citationHandler := handler.NewCitationHandler(citations)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(100, time.Minute))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/citations/ingest", citationHandler.Ingest)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.GET("/clauses", sessionHandler.Catalog)
		protected.POST("/sessions", sessionHandler.Create)
		protected.GET("/sessions", sessionHandler.List)
		protected.GET("/sessions/:id", sessionHandler.Get)
		protected.DELETE("/sessions/:id", sessionHandler.Delete)
		protected.POST("/sessions/:id/rounds", roundHandler.Run)
		protected.GET("/sessions/:id/rounds", roundHandler.List)
		protected.GET("/sessions/:id/rounds/:no", roundHandler.Get)
		protected.GET("/sessions/:id/terms", termHandler.List)
		protected.PUT("/sessions/:id/terms/:clause", termHandler.Update)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
