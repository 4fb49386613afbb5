package execution

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/exchange"
	"github.com/kformanek/meridian/pkg/utility"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

// ErrProcessing wraps unexpected failures while turning a signal into orders.
// Business rejections (conflicts, insufficient capital) are not errors and
// never surface through it.
var ErrProcessing = errors.New("signal processing failed")

const managerComponentName = "execution.manager"

// PortfolioView is the read side of the portfolio the manager needs for
// admission control.
type PortfolioView interface {
	Capital() fixed.Point
	ActiveOrderInstruments() []int64
}

// PriceSource supplies the latest traded price per instrument.
type PriceSource interface {
	Last(instrumentId int64) (fixed.Point, error)
}

// Manager translates signals into orders. It holds no state of its own
// beyond references, and runs entirely on the consumer goroutine.
type Manager struct {
	logger    *zap.Logger
	router    *bus.Router
	symbols   *exchange.Map
	prices    PriceSource
	portfolio PortfolioView
}

func NewManager(logger *zap.Logger, router *bus.Router, symbols *exchange.Map, prices PriceSource, portfolio PortfolioView) *Manager {
	return &Manager{
		logger:    logger,
		router:    router,
		symbols:   symbols,
		prices:    prices,
		portfolio: portfolio,
	}
}

func (m *Manager) OnSignal(ctx context.Context, signal common.Signal) {
	if err := m.Process(ctx, signal); err != nil {
		m.logger.Error("signal processing failed", zap.Error(err))
	}
}

// Process applies conflict and capital admission control to one signal.
//
// A signal touching any instrument that already has an active order or a
// pending position marker is dropped whole. Otherwise each instruction
// becomes a validated order; the capital required by the full batch is
// computed once, and every entry instruction is tested against that same
// total while exits are admitted unconditionally.
func (m *Manager) Process(_ context.Context, signal common.Signal) error {
	if len(signal.Instructions) == 0 {
		return nil
	}

	blocked := make(map[int64]struct{})
	for _, id := range m.portfolio.ActiveOrderInstruments() {
		blocked[id] = struct{}{}
	}

	for _, instruction := range signal.Instructions {
		if _, ok := blocked[instruction.InstrumentId]; ok {
			m.logger.Info("instrument has an active order, ignoring signal",
				zap.Strings("active", m.symbols.Tickers(m.portfolio.ActiveOrderInstruments())),
				zap.String("ticker", m.ticker(instruction.InstrumentId)))
			return nil
		}
	}

	type stagedOrder struct {
		instruction common.SignalInstruction
		info        exchange.SymbolInfo
		order       common.Order
		cost        fixed.Point
	}

	staged := make([]stagedOrder, 0, len(signal.Instructions))
	totalRequired := fixed.Zero

	for _, instruction := range signal.Instructions {
		info, ok := m.symbols.ByID(instruction.InstrumentId)
		if !ok {
			return fmt.Errorf("%w: unknown instrument id %d", ErrProcessing, instruction.InstrumentId)
		}

		order, err := instruction.Order()
		if err != nil {
			return fmt.Errorf("%w: building order for %q: %w", ErrProcessing, info.Ticker, err)
		}

		price, err := m.prices.Last(instruction.InstrumentId)
		if err != nil {
			return fmt.Errorf("%w: pricing %q: %w", ErrProcessing, info.Ticker, err)
		}

		cost := info.Cost(order.Quantity, price)
		totalRequired = totalRequired.Add(cost)

		staged = append(staged, stagedOrder{
			instruction: instruction,
			info:        info,
			order:       order,
			cost:        cost,
		})
	}

	capital := m.portfolio.Capital()

	for _, so := range staged {
		if !so.instruction.Action.IsExit() && totalRequired.Gt(capital) {
			m.logger.Info("insufficient capital to execute order",
				zap.String("ticker", so.info.Ticker),
				zap.String("required", totalRequired.String()),
				zap.String("capital", capital.String()))
			continue
		}

		if err := m.router.Post(bus.OrderCreatedEvent, common.OrderCreated{
			TradeId:      so.instruction.TradeId,
			LegId:        so.instruction.LegId,
			Action:       so.instruction.Action,
			InstrumentId: so.instruction.InstrumentId,
			Order:        so.order,
			Source:       managerComponentName,
			ExecutionId:  utility.GetExecutionID(),
			TraceID:      utility.CreateTraceID(),
			TimeStamp:    signal.TimeStamp,
		}); err != nil {
			return fmt.Errorf("%w: posting order for %q: %w", ErrProcessing, so.info.Ticker, err)
		}
	}

	return nil
}

func (m *Manager) ticker(instrumentId int64) string {
	if info, ok := m.symbols.ByID(instrumentId); ok {
		return info.Ticker
	}
	return "unknown"
}
