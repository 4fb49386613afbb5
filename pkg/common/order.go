package common

import (
	"errors"
	"time"

	"github.com/kformanek/meridian/pkg/utility"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

type OrderSide int
type OrderKind int
type OrderStatus string

const (
	OrderSideBuy OrderSide = iota
	OrderSideSell
)

const (
	OrderKindMarket OrderKind = iota
	OrderKindLimit
	OrderKindStop
)

const (
	OrderStatusPendingSubmit OrderStatus = "pending-submit"
	OrderStatusSubmitted     OrderStatus = "submitted"
	OrderStatusFilled        OrderStatus = "filled"
	OrderStatusCancelled     OrderStatus = "cancelled"
)

func (s OrderSide) String() string {
	if s == OrderSideSell {
		return "sell"
	}
	return "buy"
}

func (k OrderKind) String() string {
	switch k {
	case OrderKindLimit:
		return "limit"
	case OrderKindStop:
		return "stop"
	default:
		return "market"
	}
}

var (
	ErrZeroQuantity  = errors.New("'quantity' must not be zero")
	ErrInvalidLimit  = errors.New("'limit_price' must be greater than zero")
	ErrInvalidStop   = errors.New("'stop_price' must be greater than zero")
	ErrInvalidAction = errors.New("'action' is not a valid action")
)

// Order is a broker-ready order. Quantity is always positive, the direction
// lives in Side.
type Order struct {
	Side       OrderSide   `json:"side"`
	Kind       OrderKind   `json:"kind"`
	Quantity   fixed.Point `json:"quantity"`
	LimitPrice fixed.Point `json:"limit_price,omitempty"`
	StopPrice  fixed.Point `json:"stop_price,omitempty"`
}

// NewOrder validates the order parameters at construction. A zero quantity or
// a non-positive limit/stop price is rejected outright.
func NewOrder(side OrderSide, kind OrderKind, quantity, limitPrice, stopPrice fixed.Point) (Order, error) {
	if quantity.IsZero() {
		return Order{}, ErrZeroQuantity
	}
	if kind == OrderKindLimit && !limitPrice.IsPos() {
		return Order{}, ErrInvalidLimit
	}
	if kind == OrderKindStop && !stopPrice.IsPos() {
		return Order{}, ErrInvalidStop
	}

	return Order{
		Side:       side,
		Kind:       kind,
		Quantity:   quantity.Abs(),
		LimitPrice: limitPrice,
		StopPrice:  stopPrice,
	}, nil
}

// SignedQuantity recovers the sign from the side, negative for sells.
func (o Order) SignedQuantity() fixed.Point {
	if o.Side == OrderSideSell {
		return o.Quantity.Neg()
	}
	return o.Quantity
}

// OrderCreated is published by the execution manager for every admitted
// instruction.
type OrderCreated struct {
	TradeId      int64  `json:"trade_id"`
	LegId        int64  `json:"leg_id"`
	Action       Action `json:"action"`
	InstrumentId int64  `json:"instrument_id"`
	Order        Order  `json:"order"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// ActiveOrder is the broker's view of an order that has been submitted and is
// not yet terminal.
type ActiveOrder struct {
	OrderId        int64       `json:"order_id"`
	InstrumentId   int64       `json:"instrument_id"`
	Ticker         string      `json:"ticker,omitempty"`
	Status         OrderStatus `json:"status"`
	Quantity       fixed.Point `json:"quantity"`
	FilledQuantity fixed.Point `json:"filled_quantity"`
	AvgFillPrice   fixed.Point `json:"avg_fill_price"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// Merge overlays non-zero fields of an incoming status update onto an
// existing active order.
func (a *ActiveOrder) Merge(o ActiveOrder) {
	if o.Status != "" {
		a.Status = o.Status
	}
	if !o.Quantity.IsZero() {
		a.Quantity = o.Quantity
	}
	if !o.FilledQuantity.IsZero() {
		a.FilledQuantity = o.FilledQuantity
	}
	if !o.AvgFillPrice.IsZero() {
		a.AvgFillPrice = o.AvgFillPrice
	}
	if o.Ticker != "" {
		a.Ticker = o.Ticker
	}
	a.TimeStamp = o.TimeStamp
}
