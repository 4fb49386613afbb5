package common

import (
	"time"

	"github.com/kformanek/meridian/pkg/utility/fixed"
)

type Bar struct {
	InstrumentId int64         `json:"instrument_id"`
	Ticker       string        `json:"ticker,omitempty"`
	TimeStamp    time.Time     `json:"ts"`
	Period       time.Duration `json:"period,omitempty"`
	Open         fixed.Point   `json:"open"`
	High         fixed.Point   `json:"high"`
	Low          fixed.Point   `json:"low"`
	Close        fixed.Point   `json:"close"`
	Volume       uint64        `json:"volume"`
}
