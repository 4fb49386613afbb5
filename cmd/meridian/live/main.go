package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/internal/cfg"
	"github.com/kformanek/meridian/internal/dbg"
	"github.com/kformanek/meridian/internal/record"
	"github.com/kformanek/meridian/internal/strategy"
	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/execution"
	"github.com/kformanek/meridian/pkg/gateway/live"
	"github.com/kformanek/meridian/pkg/marketdata"
	"github.com/kformanek/meridian/pkg/middleware"
	"github.com/kformanek/meridian/pkg/portfolio"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

var (
	configPath = flag.String("config", "live.yaml", "path to the configuration file")
	fastPeriod = flag.Int("fast", 10, "fast moving average period")
	slowPeriod = flag.Int("slow", 30, "slow moving average period")
	quantity   = flag.Int("quantity", 1, "order quantity per entry")
)

func main() {
	flag.Parse()

	conf, err := cfg.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if conf.Logging.Mode == "prod" {
		logger, err = dbg.NewProdLogger()
	} else {
		logger, err = dbg.NewDevLogger()
	}
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(logger, conf); err != nil {
		logger.Fatal("live session failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, conf *cfg.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if conf.Live.Url == "" {
		return errors.New("live gateway url is not configured")
	}

	symbols, err := conf.SymbolMap()
	if err != nil {
		return err
	}

	router := bus.NewRouter(logger, conf.Router.EventCapacity)
	book := marketdata.NewBook()

	portfolioServer := portfolio.NewServer(logger, router, symbols)
	manager := execution.NewManager(logger, router, symbols, book, portfolioServer)

	strat := strategy.NewSmaCross(logger, router, symbols, *fastPeriod, *slowPeriod, fixed.FromInt(*quantity))
	if err := strat.Prepare(ctx); err != nil {
		return err
	}

	recorder, err := record.NewRecorder(logger, conf.Recorder.Path)
	if err != nil {
		return err
	}
	defer recorder.Close()

	monitor := middleware.NewMonitor(logger, middleware.MonitorAll)
	performance := middleware.NewPerformance(logger)

	router.OnMarketData = middleware.Chain(performance.WithMarketData, monitor.WithMarketData)(bus.MergeHandlers(
		book.OnMarketData,
		strat.OnMarketData))
	router.OnSignal = middleware.Chain(performance.WithSignal, monitor.WithSignal)(manager.OnSignal)
	// No broker submission path yet, but admitted orders must stay visible.
	router.OnOrderCreated = middleware.Chain(performance.WithOrderCreated, monitor.WithOrderCreated)(
		func(_ context.Context, created common.OrderCreated) {
			logger.Info("order admitted, awaiting broker submission",
				zap.Int64("trade_id", created.TradeId),
				zap.Int64("instrument_id", created.InstrumentId),
				zap.String("action", created.Action.String()),
				zap.String("quantity", created.Order.Quantity.String()))
		})
	router.OnOrderStatus = monitor.WithOrderStatus(portfolioServer.OnOrderStatus)
	router.OnTradeExecuted = monitor.WithTradeExecuted(recorder.OnTradeExecuted)
	router.OnPositionReport = monitor.WithPositionReport(portfolioServer.OnPositionReport)
	router.OnAccountReport = monitor.WithAccountReport(portfolioServer.OnAccountReport)
	router.OnPositionUpdate = recorder.OnPositionUpdate
	router.OnOrderUpdate = recorder.OnOrderUpdate
	router.OnAccountUpdate = recorder.OnAccountUpdate

	feed := live.NewFeed(logger, router, conf.Live.Url)
	if err := feed.Connect(ctx); err != nil {
		return err
	}
	defer feed.Close()

	errCh := router.Exec(ctx)

	feedErr := make(chan error, 1)
	go func() {
		feedErr <- feed.Run(ctx)
	}()

	select {
	case err = <-feedErr:
		stop()
		<-errCh
	case err = <-errCh:
	}

	router.Statistics().Print(logger)
	performance.PrintStatistics()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
