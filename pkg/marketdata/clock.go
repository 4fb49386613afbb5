package marketdata

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/utility"
)

// ErrExhausted is returned by Advance once all historical data has been
// replayed. It terminates the driver loop.
var ErrExhausted = errors.New("market data exhausted")

const clockComponentName = "marketdata.clock"

const defaultPollInterval = 100 * time.Millisecond

// Clock replays a historical dataset in timestamp order. All rows sharing one
// timestamp go out as a single MarketUpdate batch. When the calendar day of
// the next timestamp differs from the day being streamed, the clock closes
// the gate, emits exactly one EndOfDay for the finished day and does not
// stream the new day until the gate reopens. Waiting is bounded so the
// consumer loop is never starved: Advance returns between polls, letting
// queued work (including the EOD processing itself) run through the loop.
type Clock struct {
	logger *zap.Logger
	router *bus.Router
	gate   *Gate

	bars   []common.Bar
	cursor int

	currentDay    time.Time
	pollInterval  time.Duration
	finalDayClose bool
	finalDone     bool
}

type Option func(*Clock)

// WithFinalDayClose makes the clock synthesize a terminal EndOfDay for the
// last day of the dataset before reporting exhaustion. Off by default: an
// EndOfDay otherwise only marks a day transition.
func WithFinalDayClose() Option {
	return func(c *Clock) {
		c.finalDayClose = true
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(c *Clock) {
		c.pollInterval = interval
	}
}

// NewClock takes the full dataset up front. Input may arrive unsorted; it is
// sorted by timestamp here once.
func NewClock(logger *zap.Logger, router *bus.Router, gate *Gate, bars []common.Bar, options ...Option) *Clock {
	sorted := make([]common.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimeStamp.Before(sorted[j].TimeStamp)
	})

	c := &Clock{
		logger:       logger,
		router:       router,
		gate:         gate,
		bars:         sorted,
		pollInterval: defaultPollInterval,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Advance is the ExecLoop driver callback. Each call either emits one batch,
// emits one EndOfDay, yields while the gate is closed, or reports
// exhaustion. Returning nil hands control back to the consumer loop so
// queued events dispatch before the clock moves again.
func (c *Clock) Advance(_ context.Context) error {
	if c.cursor >= len(c.bars) {
		if c.finalDayClose && !c.finalDone && !c.currentDay.IsZero() {
			c.finalDone = true
			c.postEndOfDay(c.currentDay)
			return nil
		}
		return ErrExhausted
	}

	next := c.bars[c.cursor].TimeStamp
	day := next.UTC().Truncate(24 * time.Hour)

	if c.currentDay.IsZero() {
		c.currentDay = day
	} else if !day.Equal(c.currentDay) {
		// The previous day must be fully processed before the new day
		// streams. Close the gate, announce the boundary, and let the
		// consumer loop work through it.
		c.gate.Close()
		c.postEndOfDay(c.currentDay)
		c.currentDay = day
		return nil
	}

	if !c.gate.Wait(c.pollInterval) {
		return nil
	}

	batch := make(map[int64]common.Bar)
	for c.cursor < len(c.bars) && c.bars[c.cursor].TimeStamp.Equal(next) {
		bar := c.bars[c.cursor]
		batch[bar.InstrumentId] = bar
		c.cursor++
	}

	if err := c.router.Post(bus.MarketDataEvent, common.MarketUpdate{
		Bars:        batch,
		Source:      clockComponentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   next,
	}); err != nil {
		c.logger.Error("unable to post market update", zap.Error(err), zap.Time("ts", next))
	}

	return nil
}

func (c *Clock) postEndOfDay(day time.Time) {
	if err := c.router.Post(bus.EndOfDayEvent, common.EndOfDay{
		Day:         day,
		Source:      clockComponentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   time.Now(),
	}); err != nil {
		c.logger.Error("unable to post end of day", zap.Error(err), zap.Time("day", day))
	}
}
