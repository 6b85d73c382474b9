package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"superstore-map/internal/config"
	"superstore-map/internal/middleware"
	"superstore-map/internal/observability"
	"superstore-map/internal/server"
	"superstore-map/internal/services"
	"superstore-map/internal/store"
	"superstore-map/internal/store/sqlite"
	"superstore-map/internal/ui/templates"
)

const (
	renderTimeout   = 10 * time.Second
	dataLoadTimeout = 60 * time.Second
	cacheMaxAge     = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	// the sqlite cache is optional; a failed open degrades to plain CSV loads
	var cache *sqlite.Cache
	if cfg.Data.CacheDB != "" {
		cache, err = sqlite.Open(cfg.Data.CacheDB)
		if err != nil {
			logger.Warn("order cache unavailable", "path", cfg.Data.CacheDB, "error", err)
			cache = nil
		}
	}

	orders := store.NewOrderStore(logger)
	ctx, cancel := context.WithTimeout(context.Background(), dataLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := orders.Load(ctx, cfg.Data.OrdersCSV, cache); err != nil {
		logger.Error("failed to load order data", "error", err)
		os.Exit(1)
	}
	logger.Info("order data ready", "records", orders.Count(), "duration", time.Since(start))

	var cities store.CityIndex
	if cfg.Data.CitiesCSV != "" {
		cities, err = store.LoadCityIndex(cfg.Data.CitiesCSV)
		if err != nil {
			logger.Warn("city index unavailable, circles will have no positions", "error", err)
		}
	}

	session := services.NewSession(orders, cities, services.NewTickerScheduler(), logger)

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(session, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("timeline", func(ctx context.Context) error {
		session.Timeline().Pause()
		return nil
	})
	if cache != nil {
		gracefulServer.RegisterShutdownHook("order-cache", func(ctx context.Context) error {
			return cache.Close()
		})
	}

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
