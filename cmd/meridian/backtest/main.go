package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/kformanek/meridian/internal/cfg"
	"github.com/kformanek/meridian/internal/dbg"
	"github.com/kformanek/meridian/internal/record"
	"github.com/kformanek/meridian/internal/strategy"
	"github.com/kformanek/meridian/pkg/bus"
	"github.com/kformanek/meridian/pkg/common"
	"github.com/kformanek/meridian/pkg/datasource/duckdb"
	"github.com/kformanek/meridian/pkg/datasource/historical"
	"github.com/kformanek/meridian/pkg/exchange"
	"github.com/kformanek/meridian/pkg/execution"
	"github.com/kformanek/meridian/pkg/gateway/sandbox"
	"github.com/kformanek/meridian/pkg/marketdata"
	"github.com/kformanek/meridian/pkg/middleware"
	"github.com/kformanek/meridian/pkg/portfolio"
	"github.com/kformanek/meridian/pkg/utility/fixed"
)

var (
	configPath = flag.String("config", "backtest.yaml", "path to the configuration file")
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
		logger.Fatal("backtest failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, conf *cfg.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	symbols, err := conf.SymbolMap()
	if err != nil {
		return err
	}

	bars, err := loadBars(ctx, conf, symbols)
	if err != nil {
		return err
	}
	logger.Info("bars loaded", zap.Int("count", len(bars)), zap.Int("symbols", symbols.Size()))

	router := bus.NewRouter(logger, conf.Router.EventCapacity)
	gate := marketdata.NewGate()
	clock := marketdata.NewClock(logger, router, gate, bars)
	book := marketdata.NewBook()

	startBalance, err := conf.Account.Balance()
	if err != nil {
		return err
	}

	portfolioServer := portfolio.NewServer(logger, router, symbols)
	manager := execution.NewManager(logger, router, symbols, book, portfolioServer)
	broker := sandbox.NewBroker(logger, router, symbols, conf.Account.Currency, startBalance)

	strat := strategy.NewSmaCross(logger, router, symbols, *fastPeriod, *slowPeriod, fixed.FromInt(*quantity))
	if err := strat.Prepare(ctx); err != nil {
		return err
	}

	recorder, err := record.NewRecorder(logger, conf.Recorder.Path)
	if err != nil {
		return err
	}
	defer recorder.Close()

	monitor := middleware.NewMonitor(logger, middleware.MonitorOrders|middleware.MonitorTrades)
	performance := middleware.NewPerformance(logger)

	router.OnMarketData = middleware.Chain(performance.WithMarketData, monitor.WithMarketData)(bus.MergeHandlers(
		book.OnMarketData,
		broker.OnMarketData,
		strat.OnMarketData))
	router.OnEndOfDay = middleware.Chain(performance.WithEndOfDay, monitor.WithEndOfDay)(bus.MergeHandlers(
		recorder.OnEndOfDay,
		func(_ context.Context, _ common.EndOfDay) {
			gate.Open()
		}))
	router.OnSignal = middleware.Chain(performance.WithSignal, monitor.WithSignal)(manager.OnSignal)
	router.OnOrderCreated = middleware.Chain(performance.WithOrderCreated, monitor.WithOrderCreated)(broker.OnOrderCreated)
	router.OnOrderStatus = monitor.WithOrderStatus(portfolioServer.OnOrderStatus)
	router.OnTradeExecuted = monitor.WithTradeExecuted(recorder.OnTradeExecuted)
	router.OnPositionReport = monitor.WithPositionReport(portfolioServer.OnPositionReport)
	router.OnAccountReport = monitor.WithAccountReport(portfolioServer.OnAccountReport)
	router.OnPositionUpdate = recorder.OnPositionUpdate
	router.OnOrderUpdate = recorder.OnOrderUpdate
	router.OnAccountUpdate = recorder.OnAccountUpdate

	err = <-router.ExecLoop(ctx, clock.Advance)
	if err != nil && !errors.Is(err, marketdata.ErrExhausted) && !errors.Is(err, context.Canceled) {
		return err
	}

	router.Statistics().Print(logger)
	performance.PrintStatistics()
	logger.Info("final account", zap.Any("account", portfolioServer.Account()))
	for _, position := range portfolioServer.Positions() {
		logger.Info("open position", zap.Any("position", position))
	}
	return nil
}

func loadBars(ctx context.Context, conf *cfg.Config, symbols *exchange.Map) ([]common.Bar, error) {
	from, to, err := conf.Session.Range()
	if err != nil {
		return nil, err
	}

	switch conf.Data.Source {
	case "duckdb":
		reader := duckdb.NewReader(conf.Data.Path)
		if err := reader.Connect(); err != nil {
			return nil, err
		}
		defer reader.Close()

		var bars []common.Bar
		for _, info := range symbols.All() {
			symbolBars, err := reader.LoadBars(ctx, info, from, to)
			if err != nil {
				return nil, err
			}
			bars = append(bars, symbolBars...)
		}
		return bars, nil

	case "binary":
		var bars []common.Bar
		for _, info := range symbols.All() {
			path := filepath.Join(conf.Data.Path, info.Ticker+".bin")
			symbolBars, err := historical.LoadBars(path, info)
			if err != nil {
				return nil, err
			}
			for _, bar := range symbolBars {
				if bar.TimeStamp.Before(from) || bar.TimeStamp.After(to) {
					continue
				}
				bars = append(bars, bar)
			}
		}
		return bars, nil

	default:
		return nil, fmt.Errorf("unknown data source %q", conf.Data.Source)
	}
}
