package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cj-bridge/internal/model"
)

const (
	defaultConcurrency = 4
	defaultInterval    = 15 * time.Minute
	defaultBatchSize   = 200

	sweepLockKey = "lock:cj-tracking-sweep"
)

// ErrLocked is returned by a Locker when another instance holds the lock.
var ErrLocked = errors.New("sweep lock held elsewhere")

// SweepStore is the Store the sweep needs: listing and status updates on top
// of the engine's reads and writes.
type SweepStore interface {
	Store
	// ListTrackable returns orders that have a supplier link and are not yet
	// delivered or terminal.
	ListTrackable(ctx context.Context, limit int) ([]model.LocalOrder, error)
	// UpdateStatus moves orderID from one status to another. It reports
	// false, without writing, when the stored status is no longer from.
	UpdateStatus(ctx context.Context, orderID string, from, to model.OrderStatus) (bool, error)
}

// Lock is a held sweep lock.
type Lock interface {
	Refresh(ctx context.Context, ttl time.Duration) error
	Release(ctx context.Context) error
}

// Locker serializes sweeps across instances.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// SweepConfig tunes a Sweeper. Zero fields get defaults.
type SweepConfig struct {
	Interval    time.Duration
	Concurrency int
	BatchSize   int
}

// Summary counts the outcome of one sweep.
type Summary struct {
	Checked  int `json:"checked"`
	Advanced int `json:"advanced"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Sweeper periodically refreshes tracking for open orders and advances their
// status when tracking shows forward progress.
type Sweeper struct {
	engine *Engine
	store  SweepStore
	locker Locker
	cfg    SweepConfig
	logger *slog.Logger
}

// NewSweeper creates a Sweeper. locker may be nil for single-instance runs.
func NewSweeper(engine *Engine, store SweepStore, locker Locker, cfg SweepConfig, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{engine: engine, store: store, locker: locker, cfg: cfg, logger: logger}
}

// Run sweeps immediately and then every Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("tracking sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce refreshes every trackable order once. A held lock skips the
// sweep without error.
func (s *Sweeper) SweepOnce(ctx context.Context) (Summary, error) {
	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, sweepLockKey, s.cfg.Interval)
		if errors.Is(err, ErrLocked) {
			s.logger.Info("tracking sweep skipped, lock held elsewhere")
			return Summary{}, nil
		}
		if err != nil {
			return Summary{}, err
		}
		stop := s.keepLock(ctx, lock, s.cfg.Interval)
		defer func() {
			stop()
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("releasing sweep lock", "error", err)
			}
		}()
	}

	orders, err := s.store.ListTrackable(ctx, s.cfg.BatchSize)
	if err != nil {
		return Summary{}, err
	}

	var (
		mu  sync.Mutex
		sum Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, order := range orders {
		g.Go(func() error {
			outcome := s.sweepOrder(gctx, order)
			mu.Lock()
			defer mu.Unlock()
			sum.Checked++
			switch outcome {
			case outcomeAdvanced:
				sum.Advanced++
			case outcomeSkipped:
				sum.Skipped++
			case outcomeFailed:
				sum.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("tracking sweep finished",
		"checked", sum.Checked, "advanced", sum.Advanced, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, ctx.Err()
}

// keepLock extends lock every half ttl until the returned stop is called, so a
// sweep that outlives one interval keeps excluding other instances.
func (s *Sweeper) keepLock(ctx context.Context, lock Lock, ttl time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lock.Refresh(ctx, ttl); err != nil && ctx.Err() == nil {
					s.logger.Warn("refreshing sweep lock", "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeAdvanced
	outcomeSkipped
	outcomeFailed
)

func (s *Sweeper) sweepOrder(ctx context.Context, order model.LocalOrder) outcome {
	r, err := s.engine.refresh(ctx, order.ID)
	if errors.Is(err, model.ErrPrecondition) {
		return outcomeSkipped
	}
	if err != nil {
		s.logger.Warn("tracking refresh failed", "order_id", order.ID, "error", err)
		return outcomeFailed
	}

	next, ok := StageToLocalStatus(r.Stage)
	if !ok || !IsForwardTransition(order.Status, next) {
		return outcomeUnchanged
	}
	changed, err := s.store.UpdateStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		s.logger.Warn("order status not advanced", "order_id", order.ID, "error", err)
		return outcomeFailed
	}
	if !changed {
		// Someone else moved the order while tracking was fetched.
		s.logger.Info("order status changed during sweep, left as is", "order_id", order.ID, "to", next)
		return outcomeUnchanged
	}
	s.logger.Info("order status advanced", "order_id", order.ID, "from", order.Status, "to", next, "stage", r.Stage)
	return outcomeAdvanced
}
