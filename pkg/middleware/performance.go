package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
)

// Performance accumulates time spent inside wrapped handlers. Counters are
// only touched from the consumer goroutine.
type Performance struct {
	logger *zap.Logger

	totalMarketDataDur time.Duration
	totalEndOfDayDur   time.Duration
	totalSignalDur     time.Duration
	totalOrderDur      time.Duration
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
	}
}

func (p *Performance) WithMarketData(handler bus.MarketDataEventHandler) bus.MarketDataEventHandler {
	return func(ctx context.Context, update common.MarketUpdate) {
		startTime := time.Now()
		handler(ctx, update)
		p.totalMarketDataDur += time.Since(startTime)
	}
}

func (p *Performance) WithEndOfDay(handler bus.EndOfDayEventHandler) bus.EndOfDayEventHandler {
	return func(ctx context.Context, eod common.EndOfDay) {
		startTime := time.Now()
		handler(ctx, eod)
		p.totalEndOfDayDur += time.Since(startTime)
	}
}

func (p *Performance) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		startTime := time.Now()
		handler(ctx, signal)
		p.totalSignalDur += time.Since(startTime)
	}
}

func (p *Performance) WithOrderCreated(handler bus.OrderCreatedEventHandler) bus.OrderCreatedEventHandler {
	return func(ctx context.Context, created common.OrderCreated) {
		startTime := time.Now()
		handler(ctx, created)
		p.totalOrderDur += time.Since(startTime)
	}
}

func (p *Performance) PrintStatistics() {
	p.logger.Info("handler statistics",
		zap.Duration("market_data", p.totalMarketDataDur),
		zap.Duration("end_of_day", p.totalEndOfDayDur),
		zap.Duration("signal", p.totalSignalDur),
		zap.Duration("order", p.totalOrderDur))
}
