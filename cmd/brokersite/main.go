// Package main is the entry point for the BrokerScope API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"brokerscope/internal/cache"
	"brokerscope/internal/config"
	"brokerscope/internal/database"
	"brokerscope/internal/handlers"
	"brokerscope/internal/logging"
	"brokerscope/internal/metrics"
	"brokerscope/internal/middleware"
	"brokerscope/internal/regulator"
	"brokerscope/internal/router"
	"brokerscope/internal/store"
	"brokerscope/internal/websearch"
)

// Write endpoints and outbound lookups allow this many requests per client
// per window.
const (
	rateLimit       = 10
	rateLimitWindow = time.Minute
)

func main() {
	// Load configuration from the env file and environment variables.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.Env, cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Str("addr", cfg.Addr()).Msg("configuration loaded")

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Seed development data (no-op if brokers already exist).
	if cfg.IsDev() {
		if err := database.SeedIfEmpty(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("failed to seed database")
		}
	}

	// Connect to Valkey (optional; the API works uncached without it).
	var responseCache *cache.ResponseCache
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		log.Warn().Err(err).Msg("valkey unavailable, response cache disabled")
	} else {
		defer valkeyClient.Close()
		responseCache = cache.NewResponseCache(valkeyClient, cfg.CacheTTL)
	}

	// Outbound providers. Both degrade gracefully when unconfigured.
	search := websearch.New(websearch.Options{
		SearchURL: cfg.SearchAPIURL,
		SearchKey: cfg.SearchAPIKey,
		NewsURL:   cfg.NewsAPIURL,
		NewsKey:   cfg.NewsAPIKey,
		Timeout:   cfg.OutboundTimeout,
	})
	if !search.SearchConfigured() {
		log.Warn().Msg("web search not configured, search fallback and broker verification disabled")
	}
	registers := regulator.NewChecker(regulator.URLs{
		FCA:   cfg.RegulatorFCAURL,
		CySEC: cfg.RegulatorCySECURL,
		ASIC:  cfg.RegulatorASICURL,
	}, cfg.OutboundTimeout)

	if cfg.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN not set, admin API disabled")
	}

	// Initialize data stores and handler groups.
	deps := &handlers.Deps{
		DB:             db,
		Brokers:        store.NewBrokerStore(db),
		Categories:     store.NewCategoryStore(db),
		Reviews:        store.NewReviewStore(db),
		Users:          store.NewUserStore(db),
		Posts:          store.NewBlogPostStore(db),
		BlogCategories: store.NewBlogCategoryStore(db),
		Search:         search,
		Registers:      registers,
		Cache:          responseCache,
	}

	limiter := middleware.NewRateLimiter(rateLimit, rateLimitWindow)
	defer limiter.Stop()

	var registry *prometheus.Registry
	if cfg.MetricsEnabled {
		registry = metrics.InitRegistry()
	}

	r := router.New(router.Options{
		Public:     handlers.NewPublic(deps),
		Admin:      handlers.NewAdmin(deps),
		AdminToken: cfg.AdminToken,
		Cache:      responseCache,
		Limiter:    limiter,
		Registry:   registry,
	})

	// WriteTimeout covers the slowest outbound call plus its retries.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped gracefully")
}
