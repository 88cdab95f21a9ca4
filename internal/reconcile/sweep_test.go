package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cj-bridge/internal/model"
)

type fakeLock struct {
	mu        sync.Mutex
	released  bool
	refreshes []time.Duration
}

func (l *fakeLock) Refresh(_ context.Context, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshes = append(l.refreshes, ttl)
	return nil
}

func (l *fakeLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = true
	return nil
}

type fakeLocker struct {
	mu    sync.Mutex
	err   error
	keys  []string
	locks []*fakeLock
}

func (f *fakeLocker) Obtain(_ context.Context, key string, _ time.Duration) (Lock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.err != nil {
		return nil, f.err
	}
	l := &fakeLock{}
	f.locks = append(f.locks, l)
	return l, nil
}

func trackedOrder(id string, status model.OrderStatus, number string) model.LocalOrder {
	return model.LocalOrder{
		ID:     id,
		Status: status,
		Link:   &model.SupplierLink{ID: "link-" + id, OrderID: id, SupplierOrderID: "CJ-" + id, TrackingNumber: number},
	}
}

func TestSweepOnce_AdvancesForwardOnly(t *testing.T) {
	st := newFakeStore(
		trackedOrder("a", model.OrderProcessing, "T-A"), // transit: processing -> shipped
		trackedOrder("b", model.OrderShipped, "T-B"),    // delivered: shipped -> delivered
		trackedOrder("c", model.OrderShipped, "T-C"),    // created: would go backwards
		trackedOrder("d", model.OrderProcessing, ""),    // nothing to track yet
		trackedOrder("e", model.OrderShipped, "T-E"),    // tracking endpoint fails
	)
	sup := newFakeSupplier()
	sup.tracking["T-A"] = model.OK([]model.TrackingInfo{{TrackingStatus: "In transit"}})
	sup.tracking["T-B"] = model.OK([]model.TrackingInfo{{TrackingStatus: "Delivered"}})
	sup.tracking["T-C"] = model.OK([]model.TrackingInfo{{TrackingStatus: "Order created"}})
	sup.tracking["T-E"] = model.Fail[[]model.TrackingInfo](model.NewRateLimitError("CJ"))
	sup.detail["CJ-d"] = model.OK(model.OrderDetail{OrderResponse: model.OrderResponse{OrderID: "CJ-d"}})

	locker := &fakeLocker{}
	s := NewSweeper(newTestEngine(sup, st), st, locker, SweepConfig{Concurrency: 2}, discardLogger())

	sum, err := s.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 5, Advanced: 2, Skipped: 1, Failed: 1}, sum)
	assert.Equal(t, model.OrderShipped, st.orders["a"].Status)
	assert.Equal(t, model.OrderDelivered, st.orders["b"].Status)
	assert.Equal(t, model.OrderShipped, st.orders["c"].Status)
	assert.Equal(t, model.OrderProcessing, st.orders["d"].Status)
	assert.Equal(t, model.OrderShipped, st.orders["e"].Status)

	require.Len(t, locker.locks, 1)
	assert.True(t, locker.locks[0].released)
	assert.Equal(t, []string{sweepLockKey}, locker.keys)
}

func TestSweepOnce_SkipsTerminalAndDelivered(t *testing.T) {
	st := newFakeStore(
		trackedOrder("x", model.OrderCancelled, "T-X"),
		trackedOrder("y", model.OrderDelivered, "T-Y"),
	)
	sup := newFakeSupplier()

	sum, err := NewSweeper(newTestEngine(sup, st), st, nil, SweepConfig{}, discardLogger()).SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Empty(t, sup.trackedCalls)
}

func TestSweepOnce_LockHeld(t *testing.T) {
	st := newFakeStore(trackedOrder("a", model.OrderProcessing, "T-A"))
	sup := newFakeSupplier()
	locker := &fakeLocker{err: fmt.Errorf("obtain: %w", ErrLocked)}

	sum, err := NewSweeper(newTestEngine(sup, st), st, locker, SweepConfig{}, discardLogger()).SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Empty(t, sup.trackedCalls)
}

func TestSweepOnce_LockError(t *testing.T) {
	st := newFakeStore()
	locker := &fakeLocker{err: errors.New("redis down")}

	_, err := NewSweeper(newTestEngine(newFakeSupplier(), st), st, locker, SweepConfig{}, discardLogger()).SweepOnce(context.Background())

	assert.EqualError(t, err, "redis down")
}

func TestSweepOnce_StatusWriteFailure(t *testing.T) {
	st := newFakeStore(trackedOrder("a", model.OrderProcessing, "T-A"))
	st.statusErr = errors.New("deadlock")
	sup := newFakeSupplier()
	sup.tracking["T-A"] = model.OK([]model.TrackingInfo{{TrackingStatus: "Shipped"}})

	sum, err := NewSweeper(newTestEngine(sup, st), st, nil, SweepConfig{}, discardLogger()).SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, Summary{Checked: 1, Failed: 1}, sum)
}

func TestSweepOnce_StatusChangedDuringRefresh(t *testing.T) {
	tests := []struct {
		name    string
		changed model.OrderStatus
	}{
		{"cancelled", model.OrderCancelled},
		{"refunded", model.OrderRefunded},
		{"manually delivered", model.OrderDelivered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore(trackedOrder("a", model.OrderProcessing, "T-A"))
			sup := newFakeSupplier()
			sup.tracking["T-A"] = model.OK([]model.TrackingInfo{{TrackingStatus: "In transit"}})
			sup.onTrack = func(string) { st.setStatus("a", tt.changed) }

			sum, err := NewSweeper(newTestEngine(sup, st), st, nil, SweepConfig{}, discardLogger()).SweepOnce(context.Background())

			require.NoError(t, err)
			assert.Equal(t, Summary{Checked: 1}, sum)
			assert.Equal(t, tt.changed, st.orders["a"].Status)
		})
	}
}

func TestSweepOnce_RefreshesLockDuringLongSweep(t *testing.T) {
	st := newFakeStore(trackedOrder("a", model.OrderProcessing, "T-A"))
	sup := newFakeSupplier()
	sup.tracking["T-A"] = model.OK([]model.TrackingInfo{{TrackingStatus: "In transit"}})
	sup.onTrack = func(string) { time.Sleep(100 * time.Millisecond) }
	locker := &fakeLocker{}
	interval := 20 * time.Millisecond

	_, err := NewSweeper(newTestEngine(sup, st), st, locker, SweepConfig{Interval: interval}, discardLogger()).SweepOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, locker.locks, 1)
	lock := locker.locks[0]
	lock.mu.Lock()
	defer lock.mu.Unlock()
	assert.True(t, lock.released)
	require.NotEmpty(t, lock.refreshes)
	assert.Equal(t, interval, lock.refreshes[0])
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := newFakeStore(trackedOrder("a", model.OrderProcessing, "T-A"))
	sup := newFakeSupplier()
	sup.tracking["T-A"] = model.OK([]model.TrackingInfo{{TrackingStatus: "Shipped"}})
	s := NewSweeper(newTestEngine(sup, st), st, nil, SweepConfig{Interval: time.Hour}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		sup.mu.Lock()
		defer sup.mu.Unlock()
		return len(sup.trackedCalls) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, model.OrderShipped, st.orders["a"].Status)
}
