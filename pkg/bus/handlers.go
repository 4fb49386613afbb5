package bus

import (
	"context"

	"github.com/kformanek/meridian/pkg/common"
)

type MarketDataEventHandler func(context.Context, common.MarketUpdate)
type EndOfDayEventHandler func(context.Context, common.EndOfDay)
type SignalEventHandler func(context.Context, common.Signal)
type OrderCreatedEventHandler func(context.Context, common.OrderCreated)
type OrderStatusEventHandler func(context.Context, common.ActiveOrder)
type TradeExecutedEventHandler func(context.Context, common.Trade)
type PositionReportEventHandler func(context.Context, common.Position)
type AccountReportEventHandler func(context.Context, common.Account)
type PositionUpdateEventHandler func(context.Context, common.Position)
type OrderUpdateEventHandler func(context.Context, common.ActiveOrder)
type AccountUpdateEventHandler func(context.Context, common.Account)

func MergeHandlers[T any](handlers ...func(context.Context, T)) func(context.Context, T) {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
