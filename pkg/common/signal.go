package common

import (
	"time"

	"github.com/kformanek/meridian/pkg/utility"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

type Action int

const (
	// ActionLong and ActionShort enter positions, ActionSell and ActionCover
	// exit them.
	ActionLong Action = iota
	ActionShort
	ActionSell
	ActionCover
)

func (a Action) String() string {
	switch a {
	case ActionLong:
		return "long"
	case ActionShort:
		return "short"
	case ActionSell:
		return "sell"
	case ActionCover:
		return "cover"
	}
	return "unknown"
}

// IsExit reports whether the action reduces risk. Exit orders are never
// blocked by capital checks.
func (a Action) IsExit() bool {
	return a == ActionSell || a == ActionCover
}

// Side normalizes the action to the broker buy/sell standard.
func (a Action) Side() (OrderSide, error) {
	switch a {
	case ActionLong, ActionCover:
		return OrderSideBuy, nil
	case ActionShort, ActionSell:
		return OrderSideSell, nil
	}
	return 0, ErrInvalidAction
}

// SignalInstruction is one leg of a trading decision.
type SignalInstruction struct {
	InstrumentId int64       `json:"instrument_id"`
	Action       Action      `json:"action"`
	TradeId      int64       `json:"trade_id"`
	LegId        int64       `json:"leg_id"`
	Weight       fixed.Point `json:"weight"`
	Quantity     fixed.Point `json:"quantity"`
	Kind         OrderKind   `json:"kind"`
	LimitPrice   fixed.Point `json:"limit_price,omitempty"`
	StopPrice    fixed.Point `json:"stop_price,omitempty"`
}

// Order converts the instruction into a validated broker order.
func (si SignalInstruction) Order() (Order, error) {
	side, err := si.Action.Side()
	if err != nil {
		return Order{}, err
	}
	return NewOrder(side, si.Kind, si.Quantity, si.LimitPrice, si.StopPrice)
}

type Signal struct {
	Instructions []SignalInstruction `json:"instructions"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
