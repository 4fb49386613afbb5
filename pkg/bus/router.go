package bus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/common"
)

type event struct {
	id   EventId
	data interface{}
}

// Router is the event queue and dispatch table in one. Producers push through
// Post from any goroutine; a single consumer goroutine started by Exec or
// ExecLoop drains the queue and invokes the handlers. All engine state behind
// the handlers is therefore owned by that one goroutine.
type Router struct {
	logger *zap.Logger
	events chan event

	OnMarketData     MarketDataEventHandler
	OnEndOfDay       EndOfDayEventHandler
	OnSignal         SignalEventHandler
	OnOrderCreated   OrderCreatedEventHandler
	OnOrderStatus    OrderStatusEventHandler
	OnTradeExecuted  TradeExecutedEventHandler
	OnPositionReport PositionReportEventHandler
	OnAccountReport  AccountReportEventHandler
	OnPositionUpdate PositionUpdateEventHandler
	OnOrderUpdate    OrderUpdateEventHandler
	OnAccountUpdate  AccountUpdateEventHandler

	runTime       time.Duration
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
}

func NewRouter(logger *zap.Logger, eventCapacity int) *Router {
	return &Router{
		logger: logger,
		events: make(chan event, eventCapacity),
	}
}

// Post enqueues an event. It never blocks the producer; when the queue is
// full an error is returned and the event is dropped.
func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return errors.New("event capacity reached")
	}
}

// Pending returns the number of queued, not yet dispatched events.
func (r *Router) Pending() int {
	return len(r.events)
}

// Exec starts the consumer loop. It returns a channel that yields the
// terminal error once the context is cancelled. Queued events are drained
// before the loop exits.
func (r *Router) Exec(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	go func() {
		start := time.Now()
		defer func() {
			r.runTime += time.Since(start)
		}()

		for {
			select {
			case <-ctx.Done():
				r.drain(ctx)
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.safeDispatch(ctx, ev)
			}
		}
	}()

	return done
}

// ExecLoop behaves like Exec but invokes doOnce whenever the queue is empty.
// The backtest clock uses this as its driver: the callback only runs between
// fully dispatched event batches, which keeps the causal order intact. A
// non-nil error from doOnce terminates the loop after a final drain.
func (r *Router) ExecLoop(ctx context.Context, doOnce func(context.Context) error) <-chan error {
	done := make(chan error, 1)

	go func() {
		start := time.Now()
		defer func() {
			r.runTime += time.Since(start)
		}()

		for {
			select {
			case <-ctx.Done():
				r.drain(ctx)
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.safeDispatch(ctx, ev)
			default:
				if err := doOnce(ctx); err != nil {
					r.drain(ctx)
					done <- err
					return
				}
			}
		}
	}()

	return done
}

// drain dispatches whatever is already queued without waiting for more.
func (r *Router) drain(ctx context.Context) {
	for {
		select {
		case ev := <-r.events:
			r.safeDispatch(ctx, ev)
		default:
			return
		}
	}
}

// safeDispatch isolates handler panics so one bad event cannot take down the
// whole engine.
func (r *Router) safeDispatch(ctx context.Context, ev event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.dispatchFails.Add(1)
			r.logger.Error("handler panic",
				zap.Stringer("event", ev.id),
				zap.Any("panic", rec))
		}
	}()

	r.dispatchCount.Add(1)
	if err := r.dispatch(ctx, ev); err != nil {
		r.dispatchFails.Add(1)
		r.logger.Warn("dispatch failed",
			zap.Stringer("event", ev.id),
			zap.Error(err))
	}
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case MarketDataEvent:
		update, ok := ev.data.(common.MarketUpdate)
		if !ok {
			return errors.New("invalid type assertion for market data event")
		}
		if r.OnMarketData != nil {
			r.OnMarketData(ctx, update)
		}
	case EndOfDayEvent:
		eod, ok := ev.data.(common.EndOfDay)
		if !ok {
			return errors.New("invalid type assertion for end of day event")
		}
		if r.OnEndOfDay != nil {
			r.OnEndOfDay(ctx, eod)
		}
	case SignalEvent:
		sig, ok := ev.data.(common.Signal)
		if !ok {
			return errors.New("invalid type assertion for signal event")
		}
		if r.OnSignal != nil {
			r.OnSignal(ctx, sig)
		}
	case OrderCreatedEvent:
		oc, ok := ev.data.(common.OrderCreated)
		if !ok {
			return errors.New("invalid type assertion for order created event")
		}
		if r.OnOrderCreated != nil {
			r.OnOrderCreated(ctx, oc)
		}
	case OrderStatusEvent:
		ord, ok := ev.data.(common.ActiveOrder)
		if !ok {
			return errors.New("invalid type assertion for order status event")
		}
		if r.OnOrderStatus != nil {
			r.OnOrderStatus(ctx, ord)
		}
	case TradeExecutedEvent:
		trade, ok := ev.data.(common.Trade)
		if !ok {
			return errors.New("invalid type assertion for trade executed event")
		}
		if r.OnTradeExecuted != nil {
			r.OnTradeExecuted(ctx, trade)
		}
	case PositionReportEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position report event")
		}
		if r.OnPositionReport != nil {
			r.OnPositionReport(ctx, pos)
		}
	case AccountReportEvent:
		acct, ok := ev.data.(common.Account)
		if !ok {
			return errors.New("invalid type assertion for account report event")
		}
		if r.OnAccountReport != nil {
			r.OnAccountReport(ctx, acct)
		}
	case PositionUpdateEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position update event")
		}
		if r.OnPositionUpdate != nil {
			r.OnPositionUpdate(ctx, pos)
		}
	case OrderUpdateEvent:
		ord, ok := ev.data.(common.ActiveOrder)
		if !ok {
			return errors.New("invalid type assertion for order update event")
		}
		if r.OnOrderUpdate != nil {
			r.OnOrderUpdate(ctx, ord)
		}
	case AccountUpdateEvent:
		acct, ok := ev.data.(common.Account)
		if !ok {
			return errors.New("invalid type assertion for account update event")
		}
		if r.OnAccountUpdate != nil {
			r.OnAccountUpdate(ctx, acct)
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}

func (r *Router) Statistics() Statistics {
	s := Statistics{
		RunTime:       r.runTime,
		PostCount:     r.postCount.Load(),
		PostFails:     r.postFails.Load(),
		DispatchCount: r.dispatchCount.Load(),
		DispatchFails: r.dispatchFails.Load(),
	}
	if r.runTime > 0 {
		s.Throughput = float64(s.DispatchCount) / r.runTime.Seconds()
	}
	return s
}
