package common

import (
	"time"

	"github.com/kformanek/meridian/pkg/utility"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

// Account is a snapshot of capital and equity. It is overwritten whole, never
// merged.
type Account struct {
	Currency string      `json:"currency,omitempty"`
	Capital  fixed.Point `json:"capital"`
	Equity   fixed.Point `json:"equity"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
