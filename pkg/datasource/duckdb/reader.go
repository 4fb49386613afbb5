package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/exchange"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

// Reader loads historical bars from a DuckDB database. Each symbol lives in
// its own <ticker>_bars table with (ts, open, high, low, close, volume).
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open %q: %w", r.dataSourceName, err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	_ = r.db.Close()
}

// LoadBars reads all bars for one symbol in [from, to], tagged with the
// symbol's instrument id. Rows come back ordered but callers must not rely
// on it; the replay clock sorts regardless.
func (r *Reader) LoadBars(ctx context.Context, info exchange.SymbolInfo, from, to time.Time) ([]common.Bar, error) {

	query := fmt.Sprintf(`SELECT ts, open, high, low, close, volume FROM %s_bars WHERE ts BETWEEN ? AND ? ORDER BY ts`, info.Ticker)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying bars for %q: %w", info.Ticker, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var bars []common.Bar
	for rows.Next() {
		var (
			ts                     time.Time
			open, high, low, close float64
			volume                 uint64
		)
		if err := rows.Scan(&ts, &open, &high, &low, &close, &volume); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		bars = append(bars, common.Bar{
			InstrumentId: info.InstrumentId,
			Ticker:       info.Ticker,
			TimeStamp:    ts,
			Open:         fixed.FromFloat64(open),
			High:         fixed.FromFloat64(high),
			Low:          fixed.FromFloat64(low),
			Close:        fixed.FromFloat64(close),
			Volume:       volume,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}

	return bars, nil
}
