// CJ Bridge - HTTP and MCP surface over the CJ Dropshipping API.
// Serves catalog, freight, order and tracking operations to the dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cj-bridge/internal/adapter"
	"cj-bridge/internal/app"
	"cj-bridge/internal/config"
	"cj-bridge/internal/gateway"
	"cj-bridge/internal/handler"
	"cj-bridge/internal/middleware"
	"cj-bridge/internal/reconcile"
)

var (
	_ adapter.Supplier = (*gateway.Gateway)(nil)
	_ adapter.Tracker  = (*reconcile.Engine)(nil)
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.NewLogger(os.Stdout)

	gw := app.NewGateway(cfg, logger)

	orders, err := app.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer orders.Close()

	engine := reconcile.NewEngine(gw, orders, cfg.CJ.TrackingURL, logger.With(slog.String("component", "reconcile")))

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("store", orders.Kind),
		slog.String("default_country", cfg.CJ.DefaultCountry),
		slog.String("price_multiplier", cfg.CJ.PriceMultiplier.String()),
	)

	h := handler.New(gw, engine, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: request ID → recovery → logging → handler
	// Request ID is outermost so panic logs carry it
	httpHandler := middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}
