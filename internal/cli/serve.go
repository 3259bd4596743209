package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"dconn.dev/portfolio/internal/catalog"
	"dconn.dev/portfolio/internal/database"
	"dconn.dev/portfolio/internal/handlers"
	"dconn.dev/portfolio/internal/middleware"
	"dconn.dev/portfolio/internal/services"
	"dconn.dev/portfolio/internal/telemetry"
	"dconn.dev/portfolio/internal/templates"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logCloser, err := bootstrap()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("connected to database", "dialect", db.Dialect.Name)

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	renderer, err := templates.New()
	if err != nil {
		return err
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled() {
		rlCfg := middleware.DefaultRateLimitConfig()
		rlCfg.RatePerSecond = cfg.RateLimitRPS
		rlCfg.Burst = cfg.RateLimitBurst
		limiter = middleware.NewRateLimiter(rlCfg)
		defer limiter.Stop()
	}

	store := catalog.NewStore(db)
	router := handlers.SetupRoutes(cfg, handlers.Deps{
		Projects: services.NewProjectService(store),
		Renderer: renderer,
		Store:    store,
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           otelhttp.NewHandler(router, telemetry.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("shutting down...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
