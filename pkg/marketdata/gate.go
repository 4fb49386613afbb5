package marketdata

import (
	"sync"
	"time"
)

// Gate is the end-of-day handshake flag shared between the replay clock and
// the consumer loop. It starts open; the clock closes it when it emits an
// EndOfDay event and downstream processing re-opens it when the day's
// bookkeeping is done.
type Gate struct {
	mu     sync.Mutex
	open   bool
	opened chan struct{}
}

func NewGate() *Gate {
	return &Gate{
		open:   true,
		opened: make(chan struct{}),
	}
}

func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		g.open = true
		close(g.opened)
	}
}

func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open {
		g.open = false
		g.opened = make(chan struct{})
	}
}

func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Wait blocks until the gate is open or the timeout elapses, reporting the
// gate state. The bounded wait keeps the caller responsive; it must not spin.
func (g *Gate) Wait(timeout time.Duration) bool {
	g.mu.Lock()
	if g.open {
		g.mu.Unlock()
		return true
	}
	opened := g.opened
	g.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-opened:
		return true
	case <-timer.C:
		return g.IsOpen()
	}
}
