package common

import (
	"time"

	"github.com/kformanek/meridian/pkg/utility"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

// Trade is an execution report for a single fill.
type Trade struct {
	OrderId      int64       `json:"order_id"`
	InstrumentId int64       `json:"instrument_id"`
	Ticker       string      `json:"ticker,omitempty"`
	Side         OrderSide   `json:"side"`
	Quantity     fixed.Point `json:"quantity"`
	Price        fixed.Point `json:"price"`
	Commission   fixed.Point `json:"commission"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
