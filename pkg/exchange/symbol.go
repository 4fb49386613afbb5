package exchange

import (
	"fmt"
	"sort"

	"github.com/kformanek/meridian/pkg/utility/fixed"
)

type SymbolClass string

const (
	Future SymbolClass = "future"
	Equity SymbolClass = "equity"
	Forex  SymbolClass = "forex"
)

func ParseSymbolClass(s string) (SymbolClass, error) {
	switch SymbolClass(s) {
	case Future, Equity, Forex:
		return SymbolClass(s), nil
	default:
		return "", fmt.Errorf("unknown symbol class %q", s)
	}
}

// SymbolInfo describes one tradable contract. Instances are registered once
// at startup and referenced by instrument id everywhere else.
type SymbolInfo struct {
	Ticker        string
	InstrumentId  int64
	Class         SymbolClass
	QuoteCurrency string
	Digits        int
	ContractSize  fixed.Point
	MarginRate    fixed.Point
}

// Cost returns the capital required to carry quantity units at the given
// price: |quantity| * price * contract size * margin rate.
func (s SymbolInfo) Cost(quantity, price fixed.Point) fixed.Point {
	return quantity.Abs().Mul(price).Mul(s.ContractSize).Mul(s.MarginRate)
}

// Map is the process-wide symbol registry. Read-only after construction.
type Map struct {
	byId     map[int64]SymbolInfo
	byTicker map[string]SymbolInfo
}

func NewMap(infos ...SymbolInfo) (*Map, error) {
	m := &Map{
		byId:     make(map[int64]SymbolInfo, len(infos)),
		byTicker: make(map[string]SymbolInfo, len(infos)),
	}
	for _, info := range infos {
		if info.Ticker == "" {
			return nil, fmt.Errorf("symbol with instrument id %d has no ticker", info.InstrumentId)
		}
		if _, ok := m.byId[info.InstrumentId]; ok {
			return nil, fmt.Errorf("duplicate instrument id %d", info.InstrumentId)
		}
		if _, ok := m.byTicker[info.Ticker]; ok {
			return nil, fmt.Errorf("duplicate ticker %q", info.Ticker)
		}
		m.byId[info.InstrumentId] = info
		m.byTicker[info.Ticker] = info
	}
	return m, nil
}

func (m *Map) ByID(id int64) (SymbolInfo, bool) {
	info, ok := m.byId[id]
	return info, ok
}

func (m *Map) ByTicker(ticker string) (SymbolInfo, bool) {
	info, ok := m.byTicker[ticker]
	return info, ok
}

func (m *Map) Size() int {
	return len(m.byId)
}

// All returns every registered symbol, ordered by ticker.
func (m *Map) All() []SymbolInfo {
	infos := make([]SymbolInfo, 0, len(m.byId))
	for _, info := range m.byId {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Ticker < infos[j].Ticker
	})
	return infos
}

// Tickers resolves instrument ids to their tickers, sorted, for log output.
// Unknown ids are rendered as "#<id>".
func (m *Map) Tickers(ids []int64) []string {
	tickers := make([]string, 0, len(ids))
	for _, id := range ids {
		if info, ok := m.byId[id]; ok {
			tickers = append(tickers, info.Ticker)
		} else {
			tickers = append(tickers, fmt.Sprintf("#%d", id))
		}
	}
	sort.Strings(tickers)
	return tickers
}
