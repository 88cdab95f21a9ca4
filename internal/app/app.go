// Package app wires configuration into the supplier gateway and order store.
// Shared by the server, the tracking job and the operator CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"cj-bridge/internal/cj"
	"cj-bridge/internal/config"
	"cj-bridge/internal/gateway"
	"cj-bridge/internal/reconcile"
	"cj-bridge/internal/store"
)

// NewGateway builds the signed CJ client and its token manager and returns
// the gateway on top of them.
func NewGateway(cfg *config.Config, logger *slog.Logger) *gateway.Gateway {
	creds := cfg.Credentials()
	tokens := cj.NewTokenManager(cfg.CJ.BaseURL, creds, nil, logger.With(slog.String("component", "cj-auth")))
	client := cj.NewClient(cfg.CJ.BaseURL, creds, tokens, nil)

	logger.Info("CJ client configured",
		slog.String("base_url", client.BaseURL()),
		slog.Bool("signed", creds.APIKey != ""),
	)

	return gateway.New(client, cfg.GatewayConfig(), logger.With(slog.String("component", "gateway")))
}

// Store is an order store plus its release function.
type Store struct {
	reconcile.SweepStore
	Kind  string
	close func() error
}

// Close releases the store's resources.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens Postgres when DATABASE_URL is set and falls back to the
// in-memory store otherwise.
func OpenStore(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory order store")
		return &Store{SweepStore: store.NewMemory(), Kind: "memory"}, nil
	}

	pg, err := store.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening order store: %w", err)
	}
	return &Store{SweepStore: pg, Kind: "postgres", close: pg.Close}, nil
}

// NewLocker returns a Redis-backed sweep lock when REDIS_ADDRESS is set, or
// nil (no cross-instance lock). The returned close function is never nil.
func NewLocker(ctx context.Context, cfg *config.Config) (reconcile.Locker, func() error, error) {
	if cfg.RedisAddress == "" {
		return nil, func() error { return nil }, nil
	}
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddress)
	if err != nil {
		return nil, nil, err
	}
	return store.NewRedisLocker(rdb), rdb.Close, nil
}
