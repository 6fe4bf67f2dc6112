package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tberg/doorbell/internal/background"
	"github.com/tberg/doorbell/internal/config"
	"github.com/tberg/doorbell/internal/handlers"
	middlewareCustom "github.com/tberg/doorbell/internal/middleware"
	"github.com/tberg/doorbell/internal/repositories"
	"github.com/tberg/doorbell/internal/routes"
	"github.com/tberg/doorbell/internal/services"
	"github.com/tberg/doorbell/internal/storage"
	pkghttp "github.com/tberg/doorbell/pkg/http"
	pkglogger "github.com/tberg/doorbell/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Durable store is optional: a nil client means every component runs on
	// its in-process fallback.
	redisClient, err := storage.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize repositories
	var (
		blockSet  repositories.BlockSetRepository
		visitList repositories.VisitListRepository
		counters  repositories.CounterRepository
	)
	if redisClient != nil {
		blockSet = repositories.NewRedisBlockSetRepository(redisClient)
		visitList = repositories.NewRedisVisitListRepository(redisClient)
		counters = repositories.NewRedisCounterRepository(redisClient)
	}
	snapshot := repositories.NewFileSnapshotRepository(cfg.Blocklist.SnapshotPath)
	visitLog := repositories.NewVisitLogRepository(cfg.Visits.LogPath)

	moderationLogger := pkglogger.NewModerationLogger(logger)

	// Initialize services
	blocklistService := services.NewBlocklistService(blockSet, snapshot, logger)
	visitService := services.NewVisitService(visitList, visitLog, cfg.Visits.RecentLimit, logger)

	globalLimiter := services.NewRateLimitService(counters, "global", cfg.RateLimit.GlobalWindow, cfg.RateLimit.GlobalMax, logger)
	contactLimiter := services.NewRateLimitService(counters, "contact", cfg.RateLimit.ContactWindow, cfg.RateLimit.ContactMax, logger)

	// Reconcile blocklist sources before serving traffic
	syncCtx, syncCancel := context.WithTimeout(context.Background(), 10*time.Second)
	blocklistService.Sync(syncCtx)
	syncCancel()

	// Moderation relay
	relayService, err := services.NewRelayService(&cfg.Discord, blocklistService, logger, moderationLogger)
	if err != nil {
		logger.Error("failed to initialize moderation relay", slog.Any("error", err))
		os.Exit(1)
	}
	if err := relayService.Start(); err != nil {
		logger.Error("failed to start moderation relay", slog.Any("error", err))
		os.Exit(1)
	}
	defer relayService.Close()

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	// Initialize handlers
	contactHandler := handlers.NewContactHandler(
		blocklistService,
		contactLimiter,
		visitService,
		relayService,
		cfg.Contact.DisposableDomains,
		ipConfig,
		logger,
		moderationLogger,
	)
	visitHandler := handlers.NewVisitHandler()

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.Server.AllowedOrigins

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.VisitRecorder(visitService, ipConfig))
	router.Use(middlewareCustom.RateLimitByIP(globalLimiter, ipConfig))

	// Register routes
	routes.RegisterRoutes(router, contactHandler, visitHandler)

	// Health check with durable store reachability
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "store": "down"})
				return
			}
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task for in-process rate windows
	cleanupManager := background.NewCleanupManager(
		[]background.Prunable{globalLimiter, contactLimiter},
		logger,
		cfg.RateLimit.CleanupInterval,
	)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
