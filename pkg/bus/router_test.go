package bus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/common"
)

func TestRouter_Post(t *testing.T) {
	router := NewRouter(zap.NewNop(), 2)

	if err := router.Post(SignalEvent, common.Signal{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := router.Post(SignalEvent, common.Signal{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if router.Pending() != 2 {
		t.Fatalf("expected 2 pending events, got %d", router.Pending())
	}

	if err := router.Post(SignalEvent, common.Signal{}); err == nil {
		t.Fatal("expected error when event capacity is reached")
	}

	stats := router.Statistics()
	if stats.PostCount != 2 {
		t.Errorf("expected 2 posts, got %d", stats.PostCount)
	}
	if stats.PostFails != 1 {
		t.Errorf("expected 1 post fail, got %d", stats.PostFails)
	}
}

func TestRouter_Exec(t *testing.T) {
	router := NewRouter(zap.NewNop(), 16)

	var sigCount atomic.Int32
	router.OnSignal = func(_ context.Context, _ common.Signal) {
		sigCount.Add(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := router.Exec(ctx)

	for i := 0; i < 5; i++ {
		if err := router.Post(SignalEvent, common.Signal{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sigCount.Load() != 5 {
		t.Errorf("expected 5 dispatched signals, got %d", sigCount.Load())
	}
}

func TestRouter_ExecDrainsOnCancel(t *testing.T) {
	router := NewRouter(zap.NewNop(), 16)

	var sigCount atomic.Int32
	router.OnSignal = func(_ context.Context, _ common.Signal) {
		sigCount.Add(1)
	}

	for i := 0; i < 8; i++ {
		if err := router.Post(SignalEvent, common.Signal{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	<-router.Exec(ctx)

	if sigCount.Load() != 8 {
		t.Errorf("expected queued events drained on cancel, got %d of 8", sigCount.Load())
	}
}

func TestRouter_ExecLoop(t *testing.T) {
	router := NewRouter(zap.NewNop(), 16)

	var dispatched atomic.Int32
	router.OnMarketData = func(_ context.Context, _ common.MarketUpdate) {
		dispatched.Add(1)
	}

	stop := errors.New("stop")
	calls := 0
	doOnce := func(_ context.Context) error {
		calls++
		if calls > 3 {
			return stop
		}
		return router.Post(MarketDataEvent, common.MarketUpdate{})
	}

	if err := <-router.ExecLoop(context.Background(), doOnce); !errors.Is(err, stop) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if dispatched.Load() != 3 {
		t.Errorf("expected 3 dispatched updates, got %d", dispatched.Load())
	}
}

func TestRouter_ExecLoopDrainsQueueFirst(t *testing.T) {
	router := NewRouter(zap.NewNop(), 16)

	var order []string
	router.OnSignal = func(_ context.Context, _ common.Signal) {
		order = append(order, "signal")
	}

	stop := errors.New("stop")
	doOnce := func(_ context.Context) error {
		order = append(order, "driver")
		if len(order) > 4 {
			return stop
		}
		return router.Post(SignalEvent, common.Signal{})
	}

	<-router.ExecLoop(context.Background(), doOnce)

	// The driver must only run between fully dispatched batches.
	for i := 0; i+1 < len(order); i += 2 {
		if order[i] != "driver" || order[i+1] != "signal" {
			t.Fatalf("unexpected interleaving: %v", order)
		}
	}
}

func TestRouter_HandlerPanicIsIsolated(t *testing.T) {
	router := NewRouter(zap.NewNop(), 16)

	var after atomic.Int32
	router.OnSignal = func(_ context.Context, _ common.Signal) {
		panic("boom")
	}
	router.OnMarketData = func(_ context.Context, _ common.MarketUpdate) {
		after.Add(1)
	}

	if err := router.Post(SignalEvent, common.Signal{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := router.Post(MarketDataEvent, common.MarketUpdate{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := router.Exec(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	if after.Load() != 1 {
		t.Error("expected dispatch to continue after a handler panic")
	}
	if router.Statistics().DispatchFails != 1 {
		t.Errorf("expected 1 dispatch fail, got %d", router.Statistics().DispatchFails)
	}
}

func TestRouter_DispatchTypeMismatch(t *testing.T) {
	router := NewRouter(zap.NewNop(), 16)

	var sigCount atomic.Int32
	router.OnSignal = func(_ context.Context, _ common.Signal) {
		sigCount.Add(1)
	}

	if err := router.Post(SignalEvent, "not a signal"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := router.Exec(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	if sigCount.Load() != 0 {
		t.Error("expected handler not to run for a mismatched payload")
	}
	if router.Statistics().DispatchFails != 1 {
		t.Errorf("expected 1 dispatch fail, got %d", router.Statistics().DispatchFails)
	}
}

func TestMergeHandlers(t *testing.T) {
	var calls []int
	merged := MergeHandlers(
		func(_ context.Context, _ common.Signal) { calls = append(calls, 1) },
		func(_ context.Context, _ common.Signal) { calls = append(calls, 2) },
		func(_ context.Context, _ common.Signal) { calls = append(calls, 3) },
	)

	merged(context.Background(), common.Signal{})

	if len(calls) != 3 || calls[0] != 1 || calls[1] != 2 || calls[2] != 3 {
		t.Fatalf("expected handlers called in order, got %v", calls)
	}
}
