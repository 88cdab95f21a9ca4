// trackingsync periodically refreshes tracking for shipped-but-open orders
// and advances their status. Run with -once from a scheduler, or without it
// as a long-lived worker. Multiple instances coordinate through Redis when
// REDIS_ADDRESS is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cj-bridge/internal/app"
	"cj-bridge/internal/config"
	"cj-bridge/internal/reconcile"
)

func main() {
	once := flag.Bool("once", false, "Run a single sweep and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.NewLogger(os.Stdout)

	orders, err := app.OpenStore(cfg, logger)
	if err != nil {
		return err
	}
	defer orders.Close()

	locker, closeLocker, err := app.NewLocker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating sweep lock: %w", err)
	}
	defer closeLocker()

	gw := app.NewGateway(cfg, logger)
	engine := reconcile.NewEngine(gw, orders, cfg.CJ.TrackingURL, logger.With(slog.String("component", "reconcile")))
	sweeper := reconcile.NewSweeper(engine, orders, locker, cfg.SweepSettings(), logger.With(slog.String("component", "sweep")))

	logger.Info("tracking sync starting",
		slog.String("store", orders.Kind),
		slog.Bool("distributed_lock", locker != nil),
		slog.Duration("interval", cfg.Sweep.Interval),
		slog.Int("concurrency", cfg.Sweep.Concurrency),
		slog.Bool("once", once),
	)

	if once {
		summary, err := sweeper.SweepOnce(ctx)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		logger.Info("sweep finished",
			slog.Int("checked", summary.Checked),
			slog.Int("advanced", summary.Advanced),
			slog.Int("skipped", summary.Skipped),
			slog.Int("failed", summary.Failed),
		)
		return nil
	}

	if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("tracking sync stopped")
	return nil
}
