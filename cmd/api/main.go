package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sourcing-buddy/backend/internal/api/handlers"
	"github.com/sourcing-buddy/backend/internal/cache/redis"
	"github.com/sourcing-buddy/backend/internal/ingestion"
	"github.com/sourcing-buddy/backend/internal/llm"
	"github.com/sourcing-buddy/backend/internal/metrics"
	"github.com/sourcing-buddy/backend/internal/middleware/ratelimit"
	"github.com/sourcing-buddy/backend/internal/middleware/security"
	"github.com/sourcing-buddy/backend/internal/middleware/validation"
	"github.com/sourcing-buddy/backend/internal/search"
	"github.com/sourcing-buddy/backend/internal/session"
	"github.com/sourcing-buddy/backend/internal/storage/sqlite"
	"github.com/sourcing-buddy/backend/pkg/config"
	appLogger "github.com/sourcing-buddy/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting parts sourcing API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	cacheClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("Redis unavailable, search caching disabled", zap.Error(err))
		cacheClient = nil
	} else {
		defer cacheClient.Close()
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.BaseURL,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	scorer := search.NewScorer()
	keywordEngine := search.NewKeywordEngine(sqliteClient, scorer, cfg.Search.StoreCap, cfg.Search.DisplayCap)
	semanticEngine := search.NewSemanticEngine(sqliteClient, llmClient, scorer, cfg.Search.CandidateCap, cfg.Search.SummaryCap, cfg.Search.DisplayCap)
	recommender := search.NewRecommender(sqliteClient, llmClient, scorer, cfg.Search.SimilarCap)

	sessions := session.NewManager(cfg.Auth.Password)
	processor := ingestion.NewProcessor(sqliteClient)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Server.Host == "localhost" || cfg.Server.Host == "127.0.0.1",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()
	app.Use(rateLimiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	cacheTTL := time.Duration(cfg.Redis.TTLSec) * time.Second

	authHandler := handlers.NewAuthHandler(sessions)
	searchHandler := handlers.NewSearchHandler(keywordEngine, semanticEngine, sessions, cacheClient, cacheTTL)
	similarHandler := handlers.NewSimilarHandler(recommender, sqliteClient, sessions)
	importHandler := handlers.NewImportHandler(processor, cacheClient)
	wsHandler := handlers.NewWebSocketHandler(keywordEngine, semanticEngine, recommender, sessions, cfg.Search.SimilarMin, cfg.Search.SimilarMax)

	api := app.Group("/api/v1")

	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/logout", authHandler.Logout)

	api.Post("/search", searchHandler.HandleSearch)
	api.Get("/search/history", searchHandler.GetHistory)
	api.Get("/search/conversation", searchHandler.GetConversation)
	api.Post("/search/refine", searchHandler.HandleRefine)
	api.Get("/search/facets", searchHandler.GetFacets)
	api.Post("/search/facets", searchHandler.ApplyFacets)

	api.Post("/parts/similar", similarHandler.HandleSimilar)
	api.Post("/parts/import", importHandler.HandleImport)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/search", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
