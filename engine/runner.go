package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"backsim/feed"
	"backsim/order"
)

// runCounter 为未命名的 Runner 生成默认名称。
// 显式计数器归属本包，不做隐式全局可变状态。
var runCounter atomic.Int64

func nextRunName() string {
	return fmt.Sprintf("run-%d", runCounter.Add(1))
}

// Config 运行引擎配置。
type Config struct {
	Name            string // 为空时自动编号 run-1、run-2 ...
	ChannelCapacity int    // 事件通道容量，默认 10
}

// Components 运行引擎依赖组件。
type Components struct {
	Broker   Broker
	Strategy Strategy
	Policy   Policy
	Metrics  []Metric
	Logger   MetricsLogger
	Log      *zap.Logger
}

// Runner 驱动一次回测：按阶段/回合重放行情，
// 每个事件执行一次固定顺序的步进（broker → 指标 → 策略 → 执行策略）。
type Runner struct {
	name     string
	capacity int

	broker   Broker
	strategy Strategy
	policy   Policy
	metrics  []Metric
	logger   MetricsLogger
	log      *zap.Logger

	info *RunInfo
}

// New 创建运行引擎并校验组件齐备。
func New(cfg Config, components Components) (*Runner, error) {
	if err := validateComponents(components); err != nil {
		return nil, fmt.Errorf("invalid components: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = nextRunName()
	}
	if cfg.ChannelCapacity <= 0 {
		cfg.ChannelCapacity = 10
	}
	log := components.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		name:     cfg.Name,
		capacity: cfg.ChannelCapacity,
		broker:   components.Broker,
		strategy: components.Strategy,
		policy:   components.Policy,
		metrics:  components.Metrics,
		logger:   components.Logger,
		log:      log.With(zap.String("run", cfg.Name)),
		info:     NewRunInfo(cfg.Name),
	}, nil
}

func validateComponents(c Components) error {
	switch {
	case c.Broker == nil:
		return errors.New("broker is required")
	case c.Strategy == nil:
		return errors.New("strategy is required")
	case c.Policy == nil:
		return errors.New("policy is required")
	case c.Logger == nil:
		return errors.New("metrics logger is required")
	}
	return nil
}

// Name 返回运行名称。
func (r *Runner) Name() string { return r.name }

// Info 返回当前运行计数器快照。
func (r *Runner) Info() RunInfo { return *r.info }

// Run 执行 episodes 个回合：每回合先在 timeframe 上跑 MAIN 阶段，
// 提供 validation 窗口时随后跑 VALIDATE 阶段。
func (r *Runner) Run(ctx context.Context, f feed.Feed, tf feed.Timeframe, validation *feed.Timeframe, episodes int) error {
	if episodes <= 0 {
		return fmt.Errorf("invalid episodes %d, must be > 0", episodes)
	}

	r.log.Info("run starting",
		zap.String("timeframe", tf.String()),
		zap.Int("episodes", episodes),
		zap.Bool("validation", validation != nil))

	for ep := 0; ep < episodes; ep++ {
		r.info.NextEpisode()
		if err := r.runPhase(ctx, f, tf, PhaseMain); err != nil {
			return fmt.Errorf("episode %d main phase: %w", r.info.Episode, err)
		}
		if validation != nil {
			if err := r.runPhase(ctx, f, *validation, PhaseValidate); err != nil {
				return fmt.Errorf("episode %d validate phase: %w", r.info.Episode, err)
			}
		}
	}

	r.log.Info("run finished", zap.Int("episodes", episodes), zap.Int("last_step", r.info.Step))
	return nil
}

// runPhase 单阶段运行：启动行情生产任务写入事件通道，循环消费并步进，
// 通道关闭即正常终止。阶段结束通知与通道关闭通过 defer 保证执行，
// 步进异常退出时同样生效。
func (r *Runner) runPhase(ctx context.Context, f feed.Feed, tf feed.Timeframe, phase Phase) (err error) {
	if !f.Timeframe().Overlaps(tf) {
		r.log.Info("feed does not cover timeframe, phase skipped",
			zap.String("phase", phase.String()), zap.String("timeframe", tf.String()))
		return nil
	}

	r.info.BeginPhase(phase)
	ch := feed.NewEventChannel(r.capacity, tf)
	pctx, cancel := context.WithCancel(ctx)
	defer cancel() // 阶段结束时生产任务一定被取消
	defer ch.Close()

	go func() {
		defer ch.Close()
		if perr := f.Play(pctx, ch); perr != nil &&
			!errors.Is(perr, context.Canceled) && !errors.Is(perr, feed.ErrChannelClosed) {
			r.log.Warn("feed terminated with error", zap.Error(perr))
		}
	}()

	r.notify(phase, true)
	defer r.notify(phase, false)

	var pending []*order.Order
	for {
		ev, rerr := ch.Receive(pctx)
		if rerr != nil {
			if errors.Is(rerr, feed.ErrChannelClosed) {
				return nil // 预期终止信号，不是错误
			}
			return rerr
		}
		if pending, err = r.step(pending, ev); err != nil {
			return err
		}
	}
}

// step 单步执行，顺序固定：
//  1. broker 先结算上一步挂出的订单，防止策略看到当步成交前的信息
//  2. 指标计算并逐组件写入日志器
//  3. 策略生成信号
//  4. 执行策略转化为下一步待处理订单
func (r *Runner) step(pending []*order.Order, ev feed.Event) ([]*order.Order, error) {
	r.info.NextStep(ev.Time)

	acct, err := r.broker.Place(pending, ev)
	if err != nil {
		return nil, fmt.Errorf("broker place at step %d: %w", r.info.Step, err)
	}

	for _, m := range r.metrics {
		r.logger.Log(m.Calculate(acct, ev), *r.info)
	}
	r.logger.Log(r.broker.Metrics(), *r.info)
	r.logger.Log(r.strategy.Metrics(), *r.info)
	r.logger.Log(r.policy.Metrics(), *r.info)

	signals := r.strategy.Generate(ev)
	return r.policy.Act(signals, acct, ev), nil
}

// components 返回固定顺序的组件列表，阶段边界按此顺序统一通知。
func (r *Runner) components() []Lifecycle {
	out := []Lifecycle{r.strategy, r.policy, r.broker}
	for _, m := range r.metrics {
		out = append(out, m)
	}
	out = append(out, r.logger)
	return out
}

func (r *Runner) notify(phase Phase, start bool) {
	for _, c := range r.components() {
		if start {
			c.Start(phase)
		} else {
			c.End(phase)
		}
	}
}

// Reset 清空全部组件状态与运行计数器，同配置可重新运行。
func (r *Runner) Reset() {
	for _, c := range r.components() {
		c.Reset()
	}
	r.info.Reset()
}
