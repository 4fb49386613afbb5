package bus

type EventId uint8

const (
	MarketDataEvent EventId = iota
	EndOfDayEvent
	SignalEvent
	OrderCreatedEvent
	OrderStatusEvent
	TradeExecutedEvent
	PositionReportEvent
	AccountReportEvent
	PositionUpdateEvent
	OrderUpdateEvent
	AccountUpdateEvent
)

func (id EventId) String() string {
	switch id {
	case MarketDataEvent:
		return "market_data"
	case EndOfDayEvent:
		return "end_of_day"
	case SignalEvent:
		return "signal"
	case OrderCreatedEvent:
		return "order_created"
	case OrderStatusEvent:
		return "order_status"
	case TradeExecutedEvent:
		return "trade_executed"
	case PositionReportEvent:
		return "position_report"
	case AccountReportEvent:
		return "account_report"
	case PositionUpdateEvent:
		return "position_update"
	case OrderUpdateEvent:
		return "order_update"
	case AccountUpdateEvent:
		return "account_update"
	}
	return "unknown"
}
