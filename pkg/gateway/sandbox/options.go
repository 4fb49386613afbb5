package sandbox

import (
	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/exchange"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

type Option func(*Broker)
type CommissionHandler func(exchange.SymbolInfo, common.Trade) fixed.Point
type SlippageHandler func(exchange.SymbolInfo, common.Order, fixed.Point) fixed.Point

func WithCommissionHandler(handler CommissionHandler) Option {
	return func(b *Broker) {
		b.commissionHandler = handler
	}
}

func WithSlippageHandler(handler SlippageHandler) Option {
	return func(b *Broker) {
		b.slippageHandler = handler
	}
}
