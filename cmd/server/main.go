// Command server runs the HelpWave backend: a realtime help-desk where a host
// opens a room, guests join with a 4-character code, and help items are
// created, answered, and resolved live over WebSockets.
//
// Startup order:
//  1. Load .env (best effort) and environment configuration
//  2. Configure zerolog (level, optional pretty console output)
//  3. Open SQLite and migrate the schema
//  4. Configure OpenTelemetry tracing (optional)
//  5. Build the broadcast hub, room registry, and services
//  6. Start the staleness sweeper and the HTTP server
//
// Shutdown is graceful: SIGINT/SIGTERM stops the sweeper, drains in-flight
// HTTP requests, and flushes the trace exporter.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MohnishKJ/HelpWave/internal/config"
	httpapi "github.com/MohnishKJ/HelpWave/internal/http"
	"github.com/MohnishKJ/HelpWave/internal/observability"
	"github.com/MohnishKJ/HelpWave/internal/registry"
	"github.com/MohnishKJ/HelpWave/internal/repo"
	"github.com/MohnishKJ/HelpWave/internal/services"
	"github.com/MohnishKJ/HelpWave/internal/sysutil"
	"github.com/MohnishKJ/HelpWave/internal/ws"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real deployments configure the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting helpwave server")

	// Database
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// Tracing
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup tracing")
	}

	// Realtime plumbing: the hub fans events out to connections, the registry
	// tracks who is in which room and announces roster changes through the hub.
	hub := ws.NewHub()
	reg := registry.New(hub)

	// Background staleness sweep
	sweeper := services.NewSweeper(db, hub, cfg.SweepInterval, cfg.StaleAfter)
	go sweeper.Run(ctx)

	// HTTP transport
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	httpapi.RegisterRoutes(router, db, hub, reg, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	// Drain in-flight requests, then flush traces.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("server stopped")
}
