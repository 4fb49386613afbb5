package live

import (
	"encoding/json"
)

// The live gateway does not define a broker wire protocol. It consumes a
// minimal JSON envelope the bridge process emits: a frame type plus the
// event payload in the shapes the engine already understands.
type frameType string

const (
	frameMarketData frameType = "market_data"
	frameOrder      frameType = "order"
	frameTrade      frameType = "trade"
	framePosition   frameType = "position"
	frameAccount    frameType = "account"
)

type frame struct {
	Type frameType       `json:"type"`
	Data json.RawMessage `json:"data"`
}
