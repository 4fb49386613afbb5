package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/common"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	ts TEXT NOT NULL,
	instrument_id INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	quantity TEXT NOT NULL,
	avg_price TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS orders (
	ts TEXT NOT NULL,
	order_id INTEGER NOT NULL,
	instrument_id INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	status TEXT NOT NULL,
	quantity TEXT NOT NULL,
	filled_quantity TEXT NOT NULL,
	avg_fill_price TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS accounts (
	ts TEXT NOT NULL,
	currency TEXT NOT NULL,
	capital TEXT NOT NULL,
	equity TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	ts TEXT NOT NULL,
	order_id INTEGER NOT NULL,
	instrument_id INTEGER NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	price TEXT NOT NULL,
	commission TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS day_marks (
	day TEXT NOT NULL
);
`

// Recorder persists portfolio state changes and executed trades to a SQLite
// database so a run can be inspected after the fact. Writes happen on the
// consumer goroutine; failures are logged and the run continues.
type Recorder struct {
	logger *zap.Logger
	db     *sql.DB
}

func NewRecorder(logger *zap.Logger, dataSourceName string) (*Recorder, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("unable to open recorder db %q: %w", dataSourceName, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to create recorder schema: %w", err)
	}
	return &Recorder{
		logger: logger,
		db:     db,
	}, nil
}

func (r *Recorder) Close() {
	_ = r.db.Close()
}

func (r *Recorder) OnPositionUpdate(ctx context.Context, position common.Position) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO positions (ts, instrument_id, ticker, quantity, avg_price) VALUES (?, ?, ?, ?, ?)`,
		position.TimeStamp.Format(time.RFC3339Nano),
		position.InstrumentId,
		position.Ticker,
		position.Quantity.String(),
		position.AvgPrice.String())
	if err != nil {
		r.logger.Warn("unable to record position", zap.Error(err))
	}
}

func (r *Recorder) OnOrderUpdate(ctx context.Context, order common.ActiveOrder) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (ts, order_id, instrument_id, ticker, status, quantity, filled_quantity, avg_fill_price) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		order.TimeStamp.Format(time.RFC3339Nano),
		order.OrderId,
		order.InstrumentId,
		order.Ticker,
		string(order.Status),
		order.Quantity.String(),
		order.FilledQuantity.String(),
		order.AvgFillPrice.String())
	if err != nil {
		r.logger.Warn("unable to record order", zap.Error(err))
	}
}

func (r *Recorder) OnAccountUpdate(ctx context.Context, account common.Account) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (ts, currency, capital, equity) VALUES (?, ?, ?, ?)`,
		account.TimeStamp.Format(time.RFC3339Nano),
		account.Currency,
		account.Capital.String(),
		account.Equity.String())
	if err != nil {
		r.logger.Warn("unable to record account", zap.Error(err))
	}
}

func (r *Recorder) OnTradeExecuted(ctx context.Context, trade common.Trade) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trades (ts, order_id, instrument_id, ticker, side, quantity, price, commission) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.TimeStamp.Format(time.RFC3339Nano),
		trade.OrderId,
		trade.InstrumentId,
		trade.Ticker,
		trade.Side.String(),
		trade.Quantity.String(),
		trade.Price.String(),
		trade.Commission.String())
	if err != nil {
		r.logger.Warn("unable to record trade", zap.Error(err))
	}
}

func (r *Recorder) OnEndOfDay(ctx context.Context, eod common.EndOfDay) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO day_marks (day) VALUES (?)`,
		eod.Day.Format(time.DateOnly))
	if err != nil {
		r.logger.Warn("unable to record day mark", zap.Error(err))
	}
}
