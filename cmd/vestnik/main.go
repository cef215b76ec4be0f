package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zivkovicn/vestnik/internal/ai"
	"github.com/zivkovicn/vestnik/internal/api"
	"github.com/zivkovicn/vestnik/internal/cache"
	"github.com/zivkovicn/vestnik/internal/config"
	"github.com/zivkovicn/vestnik/internal/cover"
	"github.com/zivkovicn/vestnik/internal/feed"
	"github.com/zivkovicn/vestnik/internal/ingest"
	"github.com/zivkovicn/vestnik/internal/logger"
	"github.com/zivkovicn/vestnik/internal/middleware"
	"github.com/zivkovicn/vestnik/internal/store"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: cfg.LogFile,
		Pretty: cfg.Env == "development",
	}); err != nil {
		panic(err)
	}

	log := logger.Get()
	log.Info().Msg("Starting vestnik...")

	ctx := context.Background()

	// Storage: Postgres in production, in-memory when no DSN is set.
	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pg.Close()
		repo = pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		repo = store.NewMemoryRepository()
	}

	// Seen-guard: Redis when configured, otherwise an in-process map.
	var seen cache.SeenGuard
	if cfg.RedisURL != "" {
		redisGuard, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Redis client")
		}
		seen = redisGuard
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-memory seen-guard")
		seen = cache.NewMockSeenGuard()
	}
	defer func() {
		if err := seen.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing seen-guard")
		}
	}()

	rewriter := ai.NewClient(cfg.AIApiKey, cfg.AIModel, cfg.AITimeout)
	covers := cover.NewResolver(cfg.ScrapeTimeout, cfg.UserAgent, cfg.PlaceholderDir)

	pipeline := ingest.NewPipeline(repo, rewriter, covers, ingest.Config{
		MinContentLength: cfg.MinContentLength,
		RecentWindow:     cfg.RecentWindow,
		TitleProbeLength: cfg.TitleProbeLength,
		Lang:             cfg.Lang,
		Country:          cfg.Country,
		SiteBaseURL:      cfg.SiteBaseURL,
	})

	orch := ingest.NewOrchestrator(
		feed.NewFetcher(cfg.FeedTimeout, cfg.UserAgent),
		pipeline,
		seen,
		ingest.OrchestratorConfig{
			FeedURLs:     cfg.FeedURLs,
			DefaultLimit: cfg.DefaultLimit,
			MaxLimit:     cfg.MaxLimit,
			PerSourceCap: cfg.PerSourceCap,
			ChunkSize:    cfg.ChunkSize,
			SeenTTL:      cfg.SeenTTL,
		},
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})

	api.SetupRoutes(app, api.NewHandlers(cfg, repo, orch, covers))

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
