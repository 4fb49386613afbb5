package exchange

import (
	"testing"

	"github.com/kformanek/meridian/pkg/utility/fixed"
)

func testSymbol(ticker string, id int64) SymbolInfo {
	return SymbolInfo{
		Ticker:        ticker,
		InstrumentId:  id,
		Class:         Future,
		QuoteCurrency: "USD",
		Digits:        2,
		ContractSize:  fixed.FromInt(50),
		MarginRate:    fixed.FromFloat64(0.1),
	}
}

func TestSymbolInfo_Cost(t *testing.T) {
	info := testSymbol("ES", 1)

	// 2 * 4000 * 50 * 0.1 = 40000
	cost := info.Cost(fixed.FromInt(2), fixed.FromInt(4000))
	if !cost.Eq(fixed.FromInt(40000)) {
		t.Errorf("expected cost 40000, got %s", cost)
	}

	// Quantity sign must not matter.
	negCost := info.Cost(fixed.FromInt(-2), fixed.FromInt(4000))
	if !negCost.Eq(cost) {
		t.Errorf("expected cost independent of sign, got %s", negCost)
	}
}

func TestNewMap_DuplicateDetection(t *testing.T) {
	if _, err := NewMap(testSymbol("ES", 1), testSymbol("NQ", 1)); err == nil {
		t.Error("expected error for duplicate instrument id")
	}
	if _, err := NewMap(testSymbol("ES", 1), testSymbol("ES", 2)); err == nil {
		t.Error("expected error for duplicate ticker")
	}
	if _, err := NewMap(testSymbol("", 1)); err == nil {
		t.Error("expected error for empty ticker")
	}
}

func TestMap_Lookup(t *testing.T) {
	m, err := NewMap(testSymbol("ES", 1), testSymbol("NQ", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info, ok := m.ByID(2); !ok || info.Ticker != "NQ" {
		t.Errorf("expected NQ for id 2, got %+v ok=%v", info, ok)
	}
	if info, ok := m.ByTicker("ES"); !ok || info.InstrumentId != 1 {
		t.Errorf("expected id 1 for ES, got %+v ok=%v", info, ok)
	}
	if _, ok := m.ByID(99); ok {
		t.Error("expected lookup miss for unknown id")
	}
	if m.Size() != 2 {
		t.Errorf("expected size 2, got %d", m.Size())
	}
}

func TestMap_Tickers(t *testing.T) {
	m, err := NewMap(testSymbol("NQ", 2), testSymbol("ES", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tickers := m.Tickers([]int64{2, 1, 7})
	if len(tickers) != 3 {
		t.Fatalf("expected 3 tickers, got %v", tickers)
	}
	// Sorted output with unknown ids rendered as #<id>.
	if tickers[0] != "#7" || tickers[1] != "ES" || tickers[2] != "NQ" {
		t.Errorf("unexpected tickers: %v", tickers)
	}
}

func TestParseSymbolClass(t *testing.T) {
	for _, valid := range []string{"future", "equity", "forex"} {
		if _, err := ParseSymbolClass(valid); err != nil {
			t.Errorf("%s: unexpected error: %v", valid, err)
		}
	}
	if _, err := ParseSymbolClass("crypto"); err == nil {
		t.Error("expected error for unknown class")
	}
}
