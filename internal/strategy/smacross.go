package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/exchange"
	"github.com/kformanek/meridian/pkg/utility"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

const componentName = "strategy.smacross"

type instrumentState struct {
	fast       *fixed.RingBuffer
	slow       *fixed.RingBuffer
	fastAbove  bool
	primed     bool
	inPosition bool
}

// SmaCross is a simple moving average crossover strategy. It goes long when
// the fast average crosses above the slow one and exits when it crosses back
// below. One open position per instrument at most.
type SmaCross struct {
	logger   *zap.Logger
	router   *bus.Router
	symbols  *exchange.Map
	quantity fixed.Point

	fastPeriod int
	slowPeriod int

	states      map[int64]*instrumentState
	nextTradeId int64
}

func NewSmaCross(logger *zap.Logger, router *bus.Router, symbols *exchange.Map, fastPeriod, slowPeriod int, quantity fixed.Point) *SmaCross {
	return &SmaCross{
		logger:      logger,
		router:      router,
		symbols:     symbols,
		quantity:    quantity,
		fastPeriod:  fastPeriod,
		slowPeriod:  slowPeriod,
		states:      make(map[int64]*instrumentState),
		nextTradeId: 1,
	}
}

func (s *SmaCross) Prepare(_ context.Context) error {
	if s.fastPeriod <= 0 || s.slowPeriod <= 0 {
		return fmt.Errorf("periods must be positive, got fast=%d slow=%d", s.fastPeriod, s.slowPeriod)
	}
	if s.fastPeriod >= s.slowPeriod {
		return fmt.Errorf("fast period %d must be shorter than slow period %d", s.fastPeriod, s.slowPeriod)
	}
	if !s.quantity.IsPos() {
		return fmt.Errorf("quantity must be positive, got %s", s.quantity)
	}

	for _, info := range s.symbols.All() {
		s.states[info.InstrumentId] = &instrumentState{
			fast: fixed.NewRingBuffer(s.fastPeriod),
			slow: fixed.NewRingBuffer(s.slowPeriod),
		}
	}
	return nil
}

func (s *SmaCross) OnMarketData(_ context.Context, update common.MarketUpdate) {
	var instructions []common.SignalInstruction

	for id, bar := range update.Bars {
		state, ok := s.states[id]
		if !ok {
			continue
		}

		state.fast.Add(bar.Close)
		state.slow.Add(bar.Close)
		if !state.slow.IsFull() {
			continue
		}

		fastAbove := state.fast.Mean().Gt(state.slow.Mean())
		if !state.primed {
			state.primed = true
			state.fastAbove = fastAbove
			continue
		}
		if fastAbove == state.fastAbove {
			continue
		}
		state.fastAbove = fastAbove

		if fastAbove && !state.inPosition {
			instructions = append(instructions, common.SignalInstruction{
				InstrumentId: id,
				Action:       common.ActionLong,
				TradeId:      s.nextTradeId,
				LegId:        1,
				Quantity:     s.quantity,
				Kind:         common.OrderKindMarket,
			})
			s.nextTradeId++
			state.inPosition = true
		} else if !fastAbove && state.inPosition {
			instructions = append(instructions, common.SignalInstruction{
				InstrumentId: id,
				Action:       common.ActionSell,
				TradeId:      s.nextTradeId,
				LegId:        1,
				Quantity:     s.quantity,
				Kind:         common.OrderKindMarket,
			})
			s.nextTradeId++
			state.inPosition = false
		}
	}

	if len(instructions) == 0 {
		return
	}

	signal := common.Signal{
		Instructions: instructions,
		Source:       componentName,
		ExecutionId:  utility.GetExecutionID(),
		TraceID:      utility.CreateTraceID(),
		TimeStamp:    update.TimeStamp,
	}
	if err := s.router.Post(bus.SignalEvent, signal); err != nil {
		s.logger.Warn("unable to post signal", zap.Error(err))
	}
}
