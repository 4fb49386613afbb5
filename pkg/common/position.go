package common

import (
	"time"

	"github.com/kformanek/meridian/pkg/utility"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

// Position is a signed holding in one instrument. A quantity of zero is never
// stored, it means the position is gone.
type Position struct {
	InstrumentId int64       `json:"instrument_id"`
	Ticker       string      `json:"ticker,omitempty"`
	Quantity     fixed.Point `json:"quantity"`
	AvgPrice     fixed.Point `json:"avg_price"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// Equal compares the economically relevant fields, ignoring provenance tags.
func (p Position) Equal(o Position) bool {
	return p.InstrumentId == o.InstrumentId &&
		p.Quantity.Eq(o.Quantity) &&
		p.AvgPrice.Eq(o.AvgPrice)
}
