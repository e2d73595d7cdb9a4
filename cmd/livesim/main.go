// 长驻模拟盘：websocket 成交流驱动策略与模拟成交，
// 指标经 Prometheus/NATS 导出，配置文件支持热更新。
// 用法：
//
//	go run ./cmd/livesim -config configs/livesim.yaml
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync/atomic"
	"syscall"

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
	cfgPath := flag.String("config", "configs/livesim.yaml", "配置文件路径")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	currency := asset.Currency(cfg.Account.Currency)
	lf := feed.NewLiveFeed(cfg.Feed.Endpoint, zlog.Logger)
	for _, s := range cfg.Feed.Symbols {
		if err := lf.Subscribe(asset.New(s, currency)); err != nil {
			log.Fatalf("订阅 %s 失败: %v", s, err)
		}
	}
	defer lf.Close()

	loggers := []engine.MetricsLogger{metrics.NewConsoleLogger(zlog.Logger)}
	if cfg.Metrics.PrometheusAddr != "" {
		prom, err := metrics.NewPrometheusLogger(nil)
		if err != nil {
			log.Fatalf("注册 Prometheus 指标失败: %v", err)
		}
		loggers = append(loggers, prom)
		metrics.StartServer(cfg.Metrics.PrometheusAddr)
		zlog.Info("metrics endpoint started", zap.String("addr", cfg.Metrics.PrometheusAddr))
	}
	if cfg.Metrics.NATSUrl != "" {
		nl, err := metrics.NewNATSLogger(cfg.Metrics.NATSUrl, cfg.Metrics.NATSSubject, zlog.Logger)
		if err != nil {
			log.Fatalf("连接 NATS 失败: %v", err)
		}
		defer nl.Close()
		loggers = append(loggers, nl)
	}

	b := broker.NewSimBroker(
		broker.SpreadPricing{SpreadBps: cfg.Broker.SpreadBps},
		zlog.Logger,
		asset.NewAmount(currency, cfg.Account.Deposit),
	)
	runner, err := engine.New(
		engine.Config{Name: "livesim", ChannelCapacity: cfg.Engine.ChannelCapacity},
		engine.Components{
			Broker:   b,
			Strategy: strategy.NewEMACross(cfg.Strategy.FastPeriod, cfg.Strategy.SlowPeriod),
			Policy:   policy.NewFlex(cfg.Policy.OrderPct, zlog.Logger),
			Metrics:  []engine.Metric{metrics.NewAccountMetric(), metrics.NewReturnsMetric(currency)},
			Logger:   metrics.NewTee(loggers...),
			Log:      zlog.Logger,
		})
	if err != nil {
		log.Fatalf("装配引擎失败: %v", err)
	}

	// 配置热更新目前只接管日志级别之外的下一次重启参数，
	// 运行中的引擎不中断，收到更新仅记录。
	var reloads atomic.Int64
	if w, err := config.NewWatcher(*cfgPath); err == nil {
		go func() {
			_ = w.Start(ctx, func(config.AppConfig) {
				reloads.Add(1)
				zlog.Info("config reloaded", zap.Int64("count", reloads.Load()))
			})
		}()
	}

	if err := runner.Run(ctx, lf, feed.InfiniteTimeframe(), nil, 1); err != nil && ctx.Err() == nil {
		zlog.Error("livesim terminated", zap.Error(err))
	}
}
