package common

import (
	"time"

	"github.com/kformanek/meridian/pkg/utility"
)

// MarketUpdate carries every bar sharing one timestamp, keyed by instrument
// id. The replay clock publishes exactly one update per distinct timestamp.
type MarketUpdate struct {
	Bars map[int64]Bar `json:"bars"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// EndOfDay marks the close of one calendar day of data. Day is midnight UTC
// of the day that just finished streaming.
type EndOfDay struct {
	Day time.Time `json:"day"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
