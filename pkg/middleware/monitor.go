package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
)

type MonitorFlags uint16

const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorMarketData
	MonitorEndOfDay
	MonitorSignals
	MonitorOrders
	MonitorTrades
	MonitorPositions
	MonitorAccount
)

// Monitor logs selected event traffic without touching it.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) enabled(flag MonitorFlags) bool {
	return m.flags&flag != 0 || m.flags&MonitorAll != 0
}

func (m *Monitor) WithMarketData(handler bus.MarketDataEventHandler) bus.MarketDataEventHandler {
	return func(ctx context.Context, update common.MarketUpdate) {
		if m.enabled(MonitorMarketData) {
			m.logger.Info("event", zap.Any("market_data", update))
		}
		handler(ctx, update)
	}
}

func (m *Monitor) WithEndOfDay(handler bus.EndOfDayEventHandler) bus.EndOfDayEventHandler {
	return func(ctx context.Context, eod common.EndOfDay) {
		if m.enabled(MonitorEndOfDay) {
			m.logger.Info("event", zap.Any("end_of_day", eod))
		}
		handler(ctx, eod)
	}
}

func (m *Monitor) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		if m.enabled(MonitorSignals) {
			m.logger.Info("event", zap.Any("signal", signal))
		}
		handler(ctx, signal)
	}
}

func (m *Monitor) WithOrderCreated(handler bus.OrderCreatedEventHandler) bus.OrderCreatedEventHandler {
	return func(ctx context.Context, created common.OrderCreated) {
		if m.enabled(MonitorOrders) {
			m.logger.Info("event", zap.Any("order_created", created))
		}
		handler(ctx, created)
	}
}

func (m *Monitor) WithOrderStatus(handler bus.OrderStatusEventHandler) bus.OrderStatusEventHandler {
	return func(ctx context.Context, order common.ActiveOrder) {
		if m.enabled(MonitorOrders) {
			m.logger.Info("event", zap.Any("order_status", order))
		}
		handler(ctx, order)
	}
}

func (m *Monitor) WithTradeExecuted(handler bus.TradeExecutedEventHandler) bus.TradeExecutedEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		if m.enabled(MonitorTrades) {
			m.logger.Info("event", zap.Any("trade", trade))
		}
		handler(ctx, trade)
	}
}

func (m *Monitor) WithPositionReport(handler bus.PositionReportEventHandler) bus.PositionReportEventHandler {
	return func(ctx context.Context, position common.Position) {
		if m.enabled(MonitorPositions) {
			m.logger.Info("event", zap.Any("position", position))
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithAccountReport(handler bus.AccountReportEventHandler) bus.AccountReportEventHandler {
	return func(ctx context.Context, account common.Account) {
		if m.enabled(MonitorAccount) {
			m.logger.Info("event", zap.Any("account", account))
		}
		handler(ctx, account)
	}
}
