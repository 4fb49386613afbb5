package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
)

const defaultReadTimeout = 60 * time.Second

// Feed is the broker-side event producer for live trading. It runs on its
// own goroutine and is the second producer next to the consumer loop: every
// decoded frame goes through the router queue, never into engine state
// directly.
type Feed struct {
	logger *zap.Logger
	router *bus.Router
	url    string

	conn        *websocket.Conn
	readTimeout time.Duration
}

func NewFeed(logger *zap.Logger, router *bus.Router, url string) *Feed {
	return &Feed{
		logger:      logger,
		router:      router,
		url:         url,
		readTimeout: defaultReadTimeout,
	}
}

func (f *Feed) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("unable to dial %q: %w", f.url, err)
	}
	f.conn = conn
	f.logger.Info("gateway feed connected", zap.String("url", f.url))
	return nil
}

func (f *Feed) Close() {
	if f.conn != nil {
		_ = f.conn.Close()
	}
}

// Run reads frames until the connection drops or the context is cancelled.
// It blocks and is meant to be started as a goroutine.
func (f *Feed) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		f.Close()
	}()

	for {
		if err := f.conn.SetReadDeadline(time.Now().Add(f.readTimeout)); err != nil {
			return fmt.Errorf("unable to set read deadline: %w", err)
		}

		_, payload, err := f.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read failed: %w", err)
		}

		if err := f.handle(payload); err != nil {
			f.logger.Warn("dropping frame", zap.Error(err))
		}
	}
}

func (f *Feed) handle(payload []byte) error {
	var fr frame
	if err := json.Unmarshal(payload, &fr); err != nil {
		return fmt.Errorf("unable to decode frame: %w", err)
	}

	switch fr.Type {
	case frameMarketData:
		var update common.MarketUpdate
		if err := json.Unmarshal(fr.Data, &update); err != nil {
			return fmt.Errorf("unable to decode market data frame: %w", err)
		}
		return f.router.Post(bus.MarketDataEvent, update)
	case frameOrder:
		var order common.ActiveOrder
		if err := json.Unmarshal(fr.Data, &order); err != nil {
			return fmt.Errorf("unable to decode order frame: %w", err)
		}
		return f.router.Post(bus.OrderStatusEvent, order)
	case frameTrade:
		var trade common.Trade
		if err := json.Unmarshal(fr.Data, &trade); err != nil {
			return fmt.Errorf("unable to decode trade frame: %w", err)
		}
		return f.router.Post(bus.TradeExecutedEvent, trade)
	case framePosition:
		var position common.Position
		if err := json.Unmarshal(fr.Data, &position); err != nil {
			return fmt.Errorf("unable to decode position frame: %w", err)
		}
		return f.router.Post(bus.PositionReportEvent, position)
	case frameAccount:
		var account common.Account
		if err := json.Unmarshal(fr.Data, &account); err != nil {
			return fmt.Errorf("unable to decode account frame: %w", err)
		}
		return f.router.Post(bus.AccountReportEvent, account)
	}
	return fmt.Errorf("unknown frame type %q", fr.Type)
}
