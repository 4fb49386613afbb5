package sandbox

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

const brokerComponentName = "gateway.sandbox.broker"

// Broker simulates order execution for backtests. It accepts OrderCreated
// events, fills them against incoming market updates, and reports the same
// event shapes a live broker would: order status transitions, trade
// executions, position reports and account snapshots. It keeps its own fills
// ledger and never reads portfolio state.
type Broker struct {
	logger  *zap.Logger
	router  *bus.Router
	symbols *exchange.Map

	currency string
	balance  fixed.Point

	commissionHandler CommissionHandler
	slippageHandler   SlippageHandler

	orderIdCounter int64
	working        []*workingOrder
	positions      map[int64]*heldPosition
	lastPrice      map[int64]fixed.Point

	simulationTime time.Time
	firstPostDone  bool
}

type workingOrder struct {
	id      int64
	created common.OrderCreated
}

type heldPosition struct {
	quantity fixed.Point
	avgPrice fixed.Point
}

func NewBroker(logger *zap.Logger, router *bus.Router, symbols *exchange.Map, currency string, startBalance fixed.Point, options ...Option) *Broker {
	b := &Broker{
		logger:    logger,
		router:    router,
		symbols:   symbols,
		currency:  currency,
		balance:   startBalance,
		positions: make(map[int64]*heldPosition),
		lastPrice: make(map[int64]fixed.Point),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *Broker) OnOrderCreated(_ context.Context, created common.OrderCreated) {
	if _, ok := b.symbols.ByID(created.InstrumentId); !ok {
		b.logger.Warn("symbol info is not present, dropping order",
			zap.Int64("instrument_id", created.InstrumentId))
		return
	}

	b.orderIdCounter++
	order := &workingOrder{id: b.orderIdCounter, created: created}
	b.working = append(b.working, order)

	b.postOrderStatus(order, common.OrderStatusSubmitted, fixed.Zero, fixed.Zero)
}

func (b *Broker) OnMarketData(_ context.Context, update common.MarketUpdate) {
	b.simulationTime = update.TimeStamp
	for id, bar := range update.Bars {
		b.lastPrice[id] = bar.Close
	}

	if !b.firstPostDone {
		b.firstPostDone = true
		b.postAccount()
	}

	remaining := make([]*workingOrder, 0, len(b.working))
	for _, order := range b.working {
		bar, ok := update.Bars[order.created.InstrumentId]
		if !ok {
			remaining = append(remaining, order)
			continue
		}

		fillPrice, fillable := b.fillPrice(order.created.Order, bar)
		if !fillable {
			remaining = append(remaining, order)
			continue
		}

		b.fill(order, fillPrice)
	}
	b.working = remaining
}

// fillPrice decides whether the order executes against this bar and at what
// price. Market orders fill at the close, limit orders at their limit once
// the close trades through it, stop orders at the close once triggered.
func (b *Broker) fillPrice(order common.Order, bar common.Bar) (fixed.Point, bool) {
	price := bar.Close

	switch order.Kind {
	case common.OrderKindMarket:
	case common.OrderKindLimit:
		if order.Side == common.OrderSideBuy && price.Gt(order.LimitPrice) {
			return fixed.Point{}, false
		}
		if order.Side == common.OrderSideSell && price.Lt(order.LimitPrice) {
			return fixed.Point{}, false
		}
		price = order.LimitPrice
	case common.OrderKindStop:
		if order.Side == common.OrderSideBuy && price.Lt(order.StopPrice) {
			return fixed.Point{}, false
		}
		if order.Side == common.OrderSideSell && price.Gt(order.StopPrice) {
			return fixed.Point{}, false
		}
	}

	if b.slippageHandler != nil {
		info, _ := b.symbols.ByID(bar.InstrumentId)
		price = b.slippageHandler(info, order, price)
	}
	return price, true
}

func (b *Broker) fill(order *workingOrder, price fixed.Point) {
	info, _ := b.symbols.ByID(order.created.InstrumentId)
	signedQty := order.created.Order.SignedQuantity()

	trade := common.Trade{
		OrderId:      order.id,
		InstrumentId: order.created.InstrumentId,
		Ticker:       info.Ticker,
		Side:         order.created.Order.Side,
		Quantity:     order.created.Order.Quantity,
		Price:        price,
		Commission:   fixed.Zero,
		Source:       brokerComponentName,
		ExecutionId:  utility.GetExecutionID(),
		TraceID:      utility.CreateTraceID(),
		TimeStamp:    b.simulationTime,
	}
	if b.commissionHandler != nil {
		trade.Commission = b.commissionHandler(info, trade)
	}

	newQty, newAvg := b.applyFill(info, order.created.InstrumentId, signedQty, price)
	b.balance = b.balance.Sub(trade.Commission)

	b.post(bus.TradeExecutedEvent, trade)
	b.postOrderStatus(order, common.OrderStatusFilled, order.created.Order.Quantity, price)
	b.post(bus.PositionReportEvent, common.Position{
		InstrumentId: order.created.InstrumentId,
		Ticker:       info.Ticker,
		Quantity:     newQty,
		AvgPrice:     newAvg,
		Source:       brokerComponentName,
		ExecutionId:  utility.GetExecutionID(),
		TraceID:      utility.CreateTraceID(),
		TimeStamp:    b.simulationTime,
	})
	b.postAccount()
}

// applyFill folds a signed fill into the held position, realizing profit on
// the closed part into the balance. Returns the new signed quantity and
// average price.
func (b *Broker) applyFill(info exchange.SymbolInfo, instrumentId int64, signedQty, price fixed.Point) (fixed.Point, fixed.Point) {
	held, ok := b.positions[instrumentId]
	if !ok {
		b.positions[instrumentId] = &heldPosition{quantity: signedQty, avgPrice: price}
		return signedQty, price
	}

	sameDirection := held.quantity.IsPos() == signedQty.IsPos()
	if sameDirection {
		// Scale in: weighted average entry price.
		oldNotional := held.quantity.Abs().Mul(held.avgPrice)
		addNotional := signedQty.Abs().Mul(price)
		newQty := held.quantity.Add(signedQty)
		held.avgPrice = oldNotional.Add(addNotional).Div(newQty.Abs())
		held.quantity = newQty
		return held.quantity, held.avgPrice
	}

	closedQty := held.quantity.Abs().Min(signedQty.Abs())
	profitPerUnit := price.Sub(held.avgPrice)
	if held.quantity.IsNeg() {
		profitPerUnit = profitPerUnit.Neg()
	}
	b.balance = b.balance.Add(profitPerUnit.Mul(closedQty).Mul(info.ContractSize))

	newQty := held.quantity.Add(signedQty)
	if newQty.IsZero() {
		delete(b.positions, instrumentId)
		return fixed.Zero, fixed.Zero
	}

	if newQty.IsPos() != held.quantity.IsPos() {
		// Crossed through flat, remainder opens at the fill price.
		held.avgPrice = price
	}
	held.quantity = newQty
	return held.quantity, held.avgPrice
}

func (b *Broker) postOrderStatus(order *workingOrder, status common.OrderStatus, filled, avgPrice fixed.Point) {
	info, _ := b.symbols.ByID(order.created.InstrumentId)
	b.post(bus.OrderStatusEvent, common.ActiveOrder{
		OrderId:        order.id,
		InstrumentId:   order.created.InstrumentId,
		Ticker:         info.Ticker,
		Status:         status,
		Quantity:       order.created.Order.Quantity,
		FilledQuantity: filled,
		AvgFillPrice:   avgPrice,
		Source:         brokerComponentName,
		ExecutionId:    utility.GetExecutionID(),
		TraceID:        utility.CreateTraceID(),
		TimeStamp:      b.simulationTime,
	})
}

func (b *Broker) postAccount() {
	margin := fixed.Zero
	unrealized := fixed.Zero
	for id, held := range b.positions {
		info, ok := b.symbols.ByID(id)
		if !ok {
			continue
		}
		price, ok := b.lastPrice[id]
		if !ok {
			price = held.avgPrice
		}
		margin = margin.Add(info.Cost(held.quantity, price))

		profitPerUnit := price.Sub(held.avgPrice)
		if held.quantity.IsNeg() {
			profitPerUnit = profitPerUnit.Neg()
		}
		unrealized = unrealized.Add(profitPerUnit.Mul(held.quantity.Abs()).Mul(info.ContractSize))
	}

	b.post(bus.AccountReportEvent, common.Account{
		Currency:    b.currency,
		Capital:     b.balance.Sub(margin),
		Equity:      b.balance.Add(unrealized),
		Source:      brokerComponentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   b.simulationTime,
	})
}

func (b *Broker) post(id bus.EventId, data interface{}) {
	if err := b.router.Post(id, data); err != nil {
		b.logger.Warn("unable to post event", zap.Stringer("event", id), zap.Error(err))
	}
}
