package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movie-aggregator-service/docs"
	"movie-aggregator-service/internal/config"
	"movie-aggregator-service/internal/database"
	"movie-aggregator-service/internal/handler"
	"movie-aggregator-service/internal/middleware"
	"movie-aggregator-service/internal/omdb"
	"movie-aggregator-service/internal/poster"
	"movie-aggregator-service/internal/service"
	"movie-aggregator-service/internal/storage"
	"movie-aggregator-service/internal/streaming"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Poster storage
	posters, err := storage.NewPosterStore(cfg.Posters.Dir)
	if err != nil {
		slog.Error("failed to open poster store", "error", err)
		os.Exit(1)
	}

	// Upstream clients
	metadata := omdb.NewClient(cfg.OMDB.APIKey, cfg.OMDB.BaseURL, cfg.UpstreamTimeout())
	availability := streaming.NewClient(cfg.Streaming.APIKey, cfg.Streaming.Host, cfg.Streaming.BaseURL, cfg.UpstreamTimeout())

	// Initialize layers
	resolver := poster.NewResolver(posters, metadata, cfg.Posters.PublicPath)
	svc := service.NewMovieService(metadata, availability, resolver, posters)
	h := handler.NewMovieHandler(svc, cfg.Posters.MaxUploadBytes)

	// Fiber app; body limit leaves room for multipart framing
	app := handler.NewApp(cfg.Posters.MaxUploadBytes + 64*1024)

	// Redis-backed rate limiting (optional)
	if cfg.Redis.Addr != "" {
		rdb, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable, running without rate limiting", "error", err)
		} else {
			defer rdb.Close()
			rl := middleware.NewRateLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds, "/health", "/metrics")
			app.Use(rl.Handler())
		}
	}

	// Swagger docs and metrics
	if !handler.RegisterSwagger(app, "Movie Aggregator", docs.SwaggerYAML) {
		slog.Warn("swagger spec is empty, swagger UI will be unavailable")
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	h.RegisterRoutes(app)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		slog.Info("shutting down movie aggregator...")
		if err := app.Shutdown(); err != nil {
			slog.Error("error shutting down HTTP server", "error", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting movie aggregator", "addr", addr)
	if err := app.Listen(addr); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
