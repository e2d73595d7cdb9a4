// 配置驱动的一次性回测：随机游走行情 → EMA 交叉策略 → 模拟成交。
// 用法：
//
//	go run ./cmd/backtest -config configs/backtest.yaml -runs 4
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"backsim/asset"
	"backsim/broker"
	"backsim/config"
	"backsim/engine"
	"backsim/feed"
	"backsim/infrastructure/logger"
	"backsim/metrics"
	"backsim/policy"
	"backsim/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/backtest.yaml", "配置文件路径")
	runs := flag.Int("runs", 1, "并发运行的独立回测数")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Close() }()

	start, _ := config.ParseTime(cfg.Engine.Start)
	end, _ := config.ParseTime(cfg.Engine.End)
	tf, err := feed.NewTimeframe(start, end)
	if err != nil {
		log.Fatalf("无效时间窗口: %v", err)
	}
	validation, err := validationTimeframe(cfg)
	if err != nil {
		log.Fatalf("无效验证窗口: %v", err)
	}

	ctx := context.Background()
	var orch engine.Orchestrator
	memLoggers := make([]*metrics.MemoryLogger, *runs)

	for i := 0; i < *runs; i++ {
		idx := i
		memLoggers[idx] = metrics.NewMemoryLogger()
		orch.Go(func() error {
			runner, f, err := buildRunner(cfg, zlog.Logger, memLoggers[idx], int64(idx))
			if err != nil {
				return err
			}
			return runner.Run(ctx, f, tf, validation, cfg.Engine.Episodes)
		})
	}

	for _, err := range orch.Join() {
		zlog.Error("run failed", zap.Error(err))
	}

	for i, mem := range memLoggers {
		report(i, mem)
	}
}

// buildRunner 为一次独立运行装配全套组件。各运行互不共享状态，
// 随机种子按运行序号错开。
func buildRunner(cfg config.AppConfig, zlog *zap.Logger, mem *metrics.MemoryLogger, seedShift int64) (*engine.Runner, feed.Feed, error) {
	currency := asset.Currency(cfg.Account.Currency)
	assets := make([]asset.Asset, 0, len(cfg.Feed.Symbols))
	for _, s := range cfg.Feed.Symbols {
		assets = append(assets, asset.New(s, currency))
	}

	start, _ := config.ParseTime(cfg.Engine.Start)
	end, _ := config.ParseTime(cfg.Engine.End)
	seed := cfg.Feed.Seed + seedShift
	f := feed.NewRandomWalkFeed(
		feed.Timeframe{Start: start, End: end},
		time.Duration(cfg.Feed.IntervalMs)*time.Millisecond,
		assets...,
	).WithSeed(seed).WithPrice(cfg.Feed.StartPrice, cfg.Feed.Volatility)

	var pricing broker.PricingEngine = broker.NoCostPricing{}
	if cfg.Broker.SpreadBps > 0 {
		pricing = broker.SpreadPricing{SpreadBps: cfg.Broker.SpreadBps}
	}
	b := broker.NewSimBroker(pricing, zlog, asset.NewAmount(currency, cfg.Account.Deposit))

	runner, err := engine.New(
		engine.Config{ChannelCapacity: cfg.Engine.ChannelCapacity},
		engine.Components{
			Broker:   b,
			Strategy: strategy.NewEMACross(cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod),
			Policy:   policy.NewFlex(cfg.Policy.OrderPct, zlog),
			Metrics:  []engine.Metric{metrics.NewAccountMetric(), metrics.NewReturnsMetric(currency)},
			Logger:   metrics.NewTee(mem, metrics.NewConsoleLogger(zlog)),
			Log:      zlog,
		})
	if err != nil {
		return nil, nil, err
	}
	return runner, f, nil
}

func validationTimeframe(cfg config.AppConfig) (*feed.Timeframe, error) {
	if cfg.Engine.ValidationStart == "" {
		return nil, nil
	}
	vs, err := config.ParseTime(cfg.Engine.ValidationStart)
	if err != nil {
		return nil, err
	}
	ve, err := config.ParseTime(cfg.Engine.ValidationEnd)
	if err != nil {
		return nil, err
	}
	tf, err := feed.NewTimeframe(vs, ve)
	if err != nil {
		return nil, err
	}
	return &tf, nil
}

func report(idx int, mem *metrics.MemoryLogger) {
	returns := mem.Series("returns.total")
	drawdown := mem.Series("returns.max_drawdown")
	trades := mem.Series("account.trades")
	fmt.Printf("run %d: steps=%d", idx, len(returns))
	if n := len(returns); n > 0 {
		fmt.Printf(" return=%.4f max_drawdown=%.4f", returns[n-1], drawdown[n-1])
	}
	if n := len(trades); n > 0 {
		fmt.Printf(" trades=%.0f", trades[n-1])
	}
	fmt.Println()
}
