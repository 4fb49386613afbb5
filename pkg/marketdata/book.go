package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

// Book keeps the latest bar per instrument. It is only ever touched from the
// consumer goroutine, so it carries no locks.
type Book struct {
	last      map[int64]common.Bar
	timeStamp time.Time
}

func NewBook() *Book {
	return &Book{
		last: make(map[int64]common.Bar),
	}
}

func (b *Book) OnMarketData(_ context.Context, update common.MarketUpdate) {
	for id, bar := range update.Bars {
		b.last[id] = bar
	}
	b.timeStamp = update.TimeStamp
}

// Last returns the most recent close price for the instrument.
func (b *Book) Last(instrumentId int64) (fixed.Point, error) {
	bar, ok := b.last[instrumentId]
	if !ok {
		return fixed.Point{}, fmt.Errorf("no market data for instrument id %d", instrumentId)
	}
	return bar.Close, nil
}

func (b *Book) LastBar(instrumentId int64) (common.Bar, bool) {
	bar, ok := b.last[instrumentId]
	return bar, ok
}

func (b *Book) TimeStamp() time.Time {
	return b.timeStamp
}
