package portfolio

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/exchange"
	"github.com/kformanek/meridian/pkg/utility"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

const serverComponentName = "portfolio.server"

// Server is the single source of truth for positions, active orders and the
// account snapshot. It must only ever be mutated from the consumer goroutine;
// cross-thread updates arrive as events through the router.
//
// An order leaving the active set through a fill raises a pending marker for
// its instrument: the fill implies a position change that has not been
// reconciled yet, and the instrument stays blocked for new signals until the
// position report arrives.
type Server struct {
	logger  *zap.Logger
	router  *bus.Router
	symbols *exchange.Map

	account          common.Account
	positions        map[int64]common.Position
	activeOrders     map[int64]common.ActiveOrder
	pendingPositions map[int64]struct{}
}

func NewServer(logger *zap.Logger, router *bus.Router, symbols *exchange.Map) *Server {
	return &Server{
		logger:           logger,
		router:           router,
		symbols:          symbols,
		positions:        make(map[int64]common.Position),
		activeOrders:     make(map[int64]common.ActiveOrder),
		pendingPositions: make(map[int64]struct{}),
	}
}

func (s *Server) OnPositionReport(_ context.Context, position common.Position) {
	s.UpdatePosition(position)
}

func (s *Server) OnOrderStatus(_ context.Context, order common.ActiveOrder) {
	s.UpdateOrder(order)
}

func (s *Server) OnAccountReport(_ context.Context, account common.Account) {
	s.UpdateAccount(account)
}

// Capital derives directly from the account snapshot; there is no separate
// bookkeeping.
func (s *Server) Capital() fixed.Point {
	return s.account.Capital
}

func (s *Server) Account() common.Account {
	return s.account
}

func (s *Server) Position(instrumentId int64) (common.Position, bool) {
	p, ok := s.positions[instrumentId]
	return p, ok
}

func (s *Server) Positions() []common.Position {
	out := make([]common.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	return out
}

func (s *Server) ActiveOrders() []common.ActiveOrder {
	out := make([]common.ActiveOrder, 0, len(s.activeOrders))
	for _, o := range s.activeOrders {
		out = append(out, o)
	}
	return out
}

// ActiveOrderInstruments is the admission-control input: the union of
// instruments with an active order and instruments awaiting position
// reconciliation after a fill.
func (s *Server) ActiveOrderInstruments() []int64 {
	set := make(map[int64]struct{}, len(s.activeOrders)+len(s.pendingPositions))
	for _, order := range s.activeOrders {
		set[order.InstrumentId] = struct{}{}
	}
	for id := range s.pendingPositions {
		set[id] = struct{}{}
	}

	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// UpdatePosition applies an incoming position report. Equal incoming
// positions are a no-op with no notification. A zero quantity removes the
// position; it is never stored as zero. Any actual change clears the pending
// marker and yields exactly one PositionUpdate notification.
func (s *Server) UpdatePosition(position common.Position) {
	existing, ok := s.positions[position.InstrumentId]
	if ok && existing.Equal(position) {
		return
	}

	if position.Quantity.IsZero() {
		if !ok {
			return
		}
		delete(s.positions, position.InstrumentId)
	} else {
		s.positions[position.InstrumentId] = position
	}

	delete(s.pendingPositions, position.InstrumentId)
	s.notifyPosition(position)

	s.logger.Info("position updated",
		zap.String("ticker", s.ticker(position.InstrumentId)),
		zap.String("quantity", position.Quantity.String()),
		zap.String("avg_price", position.AvgPrice.String()))
}

// UpdateOrder runs the order status transition. A cancelled order leaves the
// active set, a filled order leaves it and marks its instrument pending, any
// other status is inserted or merged. Every call yields exactly one
// OrderUpdate notification regardless of the branch taken.
func (s *Server) UpdateOrder(order common.ActiveOrder) {
	existing, ok := s.activeOrders[order.OrderId]

	switch order.Status {
	case common.OrderStatusCancelled:
		if ok {
			delete(s.activeOrders, order.OrderId)
		}
	case common.OrderStatusFilled:
		if ok {
			s.pendingPositions[existing.InstrumentId] = struct{}{}
			delete(s.activeOrders, order.OrderId)
		}
	default:
		if ok {
			existing.Merge(order)
			s.activeOrders[order.OrderId] = existing
		} else {
			s.activeOrders[order.OrderId] = order
		}
	}

	s.notifyOrder(order)

	s.logger.Info("order updated",
		zap.Int64("order_id", order.OrderId),
		zap.String("ticker", s.ticker(order.InstrumentId)),
		zap.String("status", string(order.Status)))
}

// UpdateAccount overwrites the account snapshot whole.
func (s *Server) UpdateAccount(account common.Account) {
	s.account = account
	s.notifyAccount(account)

	s.logger.Info("account updated",
		zap.String("capital", account.Capital.String()),
		zap.String("equity", account.Equity.String()))
}

func (s *Server) notifyPosition(position common.Position) {
	position.Source = serverComponentName
	position.ExecutionId = utility.GetExecutionID()
	position.TraceID = utility.CreateTraceID()
	if position.TimeStamp.IsZero() {
		position.TimeStamp = time.Now()
	}
	if err := s.router.Post(bus.PositionUpdateEvent, position); err != nil {
		s.logger.Warn("unable to post position update", zap.Error(err))
	}
}

func (s *Server) notifyOrder(order common.ActiveOrder) {
	order.Source = serverComponentName
	order.ExecutionId = utility.GetExecutionID()
	order.TraceID = utility.CreateTraceID()
	if order.TimeStamp.IsZero() {
		order.TimeStamp = time.Now()
	}
	if err := s.router.Post(bus.OrderUpdateEvent, order); err != nil {
		s.logger.Warn("unable to post order update", zap.Error(err))
	}
}

func (s *Server) notifyAccount(account common.Account) {
	account.Source = serverComponentName
	account.ExecutionId = utility.GetExecutionID()
	account.TraceID = utility.CreateTraceID()
	if account.TimeStamp.IsZero() {
		account.TimeStamp = time.Now()
	}
	if err := s.router.Post(bus.AccountUpdateEvent, account); err != nil {
		s.logger.Warn("unable to post account update", zap.Error(err))
	}
}

func (s *Server) ticker(instrumentId int64) string {
	if info, ok := s.symbols.ByID(instrumentId); ok {
		return info.Ticker
	}
	return "unknown"
}
