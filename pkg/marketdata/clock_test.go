package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

func testBar(id int64, ts time.Time, close int) common.Bar {
	return common.Bar{
		InstrumentId: id,
		TimeStamp:    ts,
		Open:         fixed.FromInt(close),
		High:         fixed.FromInt(close),
		Low:          fixed.FromInt(close),
		Close:        fixed.FromInt(close),
		Volume:       1,
	}
}

type replayRecorder struct {
	updates []common.MarketUpdate
	eods    []common.EndOfDay
}

// replay runs the clock to exhaustion through the consumer loop, reopening
// the gate on every end of day unless openGate is false.
func replay(t *testing.T, bars []common.Bar, openGate bool, options ...Option) *replayRecorder {
	t.Helper()

	router := bus.NewRouter(zap.NewNop(), 64)
	gate := NewGate()
	options = append([]Option{WithPollInterval(time.Millisecond)}, options...)
	clock := NewClock(zap.NewNop(), router, gate, bars, options...)

	rec := &replayRecorder{}
	router.OnMarketData = func(_ context.Context, update common.MarketUpdate) {
		rec.updates = append(rec.updates, update)
	}
	router.OnEndOfDay = func(_ context.Context, eod common.EndOfDay) {
		rec.eods = append(rec.eods, eod)
		if openGate {
			gate.Open()
		}
	}

	calls := 0
	doOnce := func(ctx context.Context) error {
		calls++
		if calls > 10*len(bars)+20 {
			return errors.New("clock did not finish")
		}
		return clock.Advance(ctx)
	}

	if err := <-router.ExecLoop(context.Background(), doOnce); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	return rec
}

func TestClock_BatchesByTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	bars := []common.Bar{
		testBar(2, ts.Add(time.Minute), 11),
		testBar(1, ts, 10),
		testBar(2, ts, 20),
	}

	rec := replay(t, bars, true)

	if len(rec.updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(rec.updates))
	}
	first := rec.updates[0]
	if !first.TimeStamp.Equal(ts) {
		t.Errorf("expected unsorted input replayed in timestamp order, got %v first", first.TimeStamp)
	}
	if len(first.Bars) != 2 {
		t.Errorf("expected both instruments in the first batch, got %d", len(first.Bars))
	}
	if !first.Bars[1].Close.Eq(fixed.FromInt(10)) || !first.Bars[2].Close.Eq(fixed.FromInt(20)) {
		t.Error("expected batch keyed by instrument id")
	}
	if len(rec.updates[1].Bars) != 1 {
		t.Errorf("expected single bar in second batch, got %d", len(rec.updates[1].Bars))
	}
	if len(rec.eods) != 0 {
		t.Errorf("expected no end of day within a single day, got %d", len(rec.eods))
	}
}

func TestClock_DayBoundary(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	bars := []common.Bar{
		testBar(1, day1, 10),
		testBar(1, day1.Add(time.Hour), 11),
		testBar(1, day2, 12),
	}

	rec := replay(t, bars, true)

	if len(rec.updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(rec.updates))
	}
	if len(rec.eods) != 1 {
		t.Fatalf("expected exactly 1 end of day, got %d", len(rec.eods))
	}
	if !rec.eods[0].Day.Equal(day1.Truncate(24 * time.Hour)) {
		t.Errorf("expected end of day for the finished day, got %v", rec.eods[0].Day)
	}
}

func TestClock_GateBlocksNextDay(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)
	bars := []common.Bar{
		testBar(1, day1, 10),
		testBar(1, day2, 12),
	}

	router := bus.NewRouter(zap.NewNop(), 64)
	gate := NewGate()
	clock := NewClock(zap.NewNop(), router, gate, bars, WithPollInterval(time.Millisecond))

	var updates []common.MarketUpdate
	router.OnMarketData = func(_ context.Context, update common.MarketUpdate) {
		updates = append(updates, update)
	}
	// End of day handler deliberately does not reopen the gate.

	stop := errors.New("stop")
	calls := 0
	doOnce := func(ctx context.Context) error {
		calls++
		if calls > 10 {
			return stop
		}
		return clock.Advance(ctx)
	}

	if err := <-router.ExecLoop(context.Background(), doOnce); !errors.Is(err, stop) {
		t.Fatalf("expected driver stop, got %v", err)
	}

	if len(updates) != 1 {
		t.Fatalf("expected only the first day streamed while the gate stays closed, got %d updates", len(updates))
	}
	if gate.IsOpen() {
		t.Error("expected gate to remain closed")
	}
}

func TestClock_FinalDayClose(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	bars := []common.Bar{testBar(1, day1, 10)}

	rec := replay(t, bars, true)
	if len(rec.eods) != 0 {
		t.Fatalf("expected no final end of day by default, got %d", len(rec.eods))
	}

	rec = replay(t, bars, true, WithFinalDayClose())
	if len(rec.eods) != 1 {
		t.Fatalf("expected terminal end of day, got %d", len(rec.eods))
	}
	if !rec.eods[0].Day.Equal(day1.Truncate(24 * time.Hour)) {
		t.Errorf("expected terminal end of day for the last day, got %v", rec.eods[0].Day)
	}
}

func TestClock_EndOfDayPrecedesNextDay(t *testing.T) {
	day1 := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)

	// Rows arrive with the second day first; replay must still close day one
	// before any of day two streams.
	bars := []common.Bar{
		testBar(1, day2.Add(time.Hour), 14),
		testBar(1, day2, 12),
		testBar(1, day1.Add(time.Hour), 11),
		testBar(1, day1, 10),
	}

	router := bus.NewRouter(zap.NewNop(), 64)
	gate := NewGate()
	clock := NewClock(zap.NewNop(), router, gate, bars, WithPollInterval(time.Millisecond))

	type loggedEvent struct {
		kind string
		ts   time.Time
	}
	var log []loggedEvent
	router.OnMarketData = func(_ context.Context, update common.MarketUpdate) {
		log = append(log, loggedEvent{kind: "update", ts: update.TimeStamp})
	}
	router.OnEndOfDay = func(_ context.Context, eod common.EndOfDay) {
		log = append(log, loggedEvent{kind: "eod", ts: eod.Day})
		gate.Open()
	}

	calls := 0
	doOnce := func(ctx context.Context) error {
		calls++
		if calls > 100 {
			return errors.New("clock did not finish")
		}
		return clock.Advance(ctx)
	}
	if err := <-router.ExecLoop(context.Background(), doOnce); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	boundary := day2.Truncate(24 * time.Hour)
	eodAt := -1
	firstDay2At := -1
	eodCount := 0
	for i, ev := range log {
		switch ev.kind {
		case "eod":
			eodCount++
			eodAt = i
			if !ev.ts.Equal(day1.Truncate(24 * time.Hour)) {
				t.Errorf("expected end of day for the first day, got %v", ev.ts)
			}
		case "update":
			if firstDay2At == -1 && !ev.ts.Before(boundary) {
				firstDay2At = i
			}
		}
	}

	if eodCount != 1 {
		t.Fatalf("expected exactly one end of day, got %d", eodCount)
	}
	if firstDay2At == -1 {
		t.Fatal("expected second day data to stream")
	}
	if eodAt > firstDay2At {
		t.Fatalf("expected end of day at %d to precede the first second-day update at %d: %v", eodAt, firstDay2At, log)
	}
	if len(log) != 5 {
		t.Fatalf("expected 4 updates and 1 end of day, got %d events", len(log))
	}
}

func TestClock_ExhaustionIsPermanent(t *testing.T) {
	clock := NewClock(zap.NewNop(), bus.NewRouter(zap.NewNop(), 8), NewGate(), nil)

	for i := 0; i < 3; i++ {
		if err := clock.Advance(context.Background()); !errors.Is(err, ErrExhausted) {
			t.Fatalf("expected ErrExhausted on call %d, got %v", i, err)
		}
	}
}
