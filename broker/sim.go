// Package broker 实现对盘口模型的订单执行模拟。
package broker

import (
	"fmt"

	"go.uber.org/zap"

	"backsim/account"
	"backsim/asset"
	"backsim/engine"
	"backsim/feed"
	"backsim/order"
)

// SimBroker 模拟经纪商：持有开放 handler 集合与账户，每步推进一次。
// 账户只在 Place 中被单一消费者串行修改，无需内部加锁。
type SimBroker struct {
	pricing  PricingEngine
	deposits []asset.Amount
	acct     *account.Account
	handlers []order.Handler
	log      *zap.Logger

	queued []*order.Order

	placed     int64
	executions int64
	rejected   int64
	expired    int64
}

// NewSimBroker 创建模拟经纪商并存入初始资金。
func NewSimBroker(pricing PricingEngine, log *zap.Logger, deposits ...asset.Amount) *SimBroker {
	if pricing == nil {
		pricing = NoCostPricing{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SimBroker{
		pricing:  pricing,
		deposits: deposits,
		acct:     account.New(deposits...),
		log:      log,
	}
}

// Account 返回账户引用，供测试与报表读取。
func (b *SimBroker) Account() *account.Account { return b.acct }

// Queue 在下一次 Place 时接受的预挂订单，
// 用于在首个事件到达前就持有开放订单的场景。
func (b *SimBroker) Queue(orders ...*order.Order) {
	b.queued = append(b.queued, orders...)
}

// Place 处理一批新订单并推进全部开放 handler 一步：
//  1. 接受通过校验的新订单（撤单指令立即生效，不参与撮合）
//  2. 先评估 TIF，到期的订单标记 EXPIRED 并移除
//  3. 仍开放的 handler 依次撮合，成交写入账户；
//     整单成交后标记 COMPLETED 并移除
//
// 返回更新后的账户引用供同一步的下游消费。
func (b *SimBroker) Place(orders []*order.Order, ev feed.Event) (*account.Account, error) {
	for _, o := range b.queued {
		b.accept(o, ev)
	}
	b.queued = nil
	for _, o := range orders {
		b.accept(o, ev)
	}

	b.expire(ev)

	if err := b.match(ev); err != nil {
		return nil, err
	}
	return b.acct, nil
}

// accept 校验并登记单个新订单。校验失败标记 REJECTED 并记录，
// 不静默丢弃。
func (b *SimBroker) accept(o *order.Order, ev feed.Event) {
	b.placed++

	if o.Kind == order.KindCancel {
		b.cancel(o, ev)
		return
	}

	h, err := order.NewHandler(o)
	if err != nil {
		b.reject(o, ev, err)
		return
	}
	if err := o.SetStatus(order.StatusAccepted, ev.Time); err != nil {
		b.reject(o, ev, err)
		return
	}
	b.handlers = append(b.handlers, h)
	b.acct.RegisterOpen(o)
}

// cancel 撤单指令：接受后立即移除目标 handler 并标记目标 CANCELLED。
// 目标已终态或不在开放集合中属于校验失败。
func (b *SimBroker) cancel(o *order.Order, ev feed.Event) {
	target := o.Target
	if target == nil || target.State.Status.Terminal() {
		b.reject(o, ev, order.ErrTargetTerminal)
		return
	}
	idx := -1
	for i, h := range b.handlers {
		if h.Order() == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.reject(o, ev, fmt.Errorf("target %s not held by broker", target.ID))
		return
	}
	if err := o.SetStatus(order.StatusAccepted, ev.Time); err != nil {
		b.reject(o, ev, err)
		return
	}
	b.handlers = append(b.handlers[:idx], b.handlers[idx+1:]...)
	_ = target.SetStatus(order.StatusCancelled, ev.Time)
	_ = o.SetStatus(order.StatusCompleted, ev.Time)
	b.acct.RemoveOpen(target.ID)
	b.log.Debug("order cancelled",
		zap.String("order", target.ID), zap.String("by", o.ID))
}

// expire 对全部开放 handler 先行 TIF 评估。
func (b *SimBroker) expire(ev feed.Event) {
	kept := b.handlers[:0]
	for _, h := range b.handlers {
		o := h.Order()
		if o.TIF.IsExpired(o, ev.Time, h.Remaining()) {
			_ = o.SetStatus(order.StatusExpired, ev.Time)
			b.acct.RemoveOpen(o.ID)
			b.expired++
			b.log.Debug("order expired", zap.String("order", o.ID))
			continue
		}
		kept = append(kept, h)
	}
	b.handlers = kept
}

// match 逐个 handler 撮合。事件中没有对应资产价格的 handler 跳过。
// 撮合出错时先提交已过滤的 handler 集合再返回，
// 已完成的 handler 不会因为后续订单失败而残留。
func (b *SimBroker) match(ev feed.Event) error {
	kept := b.handlers[:0]
	for i, h := range b.handlers {
		o := h.Order()
		pa, ok := ev.PriceOf(o.Asset)
		if !ok {
			kept = append(kept, h)
			continue
		}
		execs, err := h.Execute(b.pricing.Quote(pa, ev.Time), ev.Time)
		if err != nil {
			b.handlers = append(kept, b.handlers[i:]...)
			return fmt.Errorf("execute order %s: %w", o.ID, err)
		}
		for _, e := range execs {
			b.acct.Apply(e)
			b.executions++
			b.log.Debug("execution",
				zap.String("order", o.ID),
				zap.Float64("size", e.Size),
				zap.Float64("price", e.Price))
		}
		if h.Remaining() == 0 {
			_ = o.SetStatus(order.StatusCompleted, ev.Time)
			b.acct.RemoveOpen(o.ID)
			continue
		}
		kept = append(kept, h)
	}
	b.handlers = kept
	return nil
}

func (b *SimBroker) reject(o *order.Order, ev feed.Event, cause error) {
	b.rejected++
	_ = o.SetStatus(order.StatusRejected, ev.Time)
	b.log.Error("order rejected",
		zap.String("order", o.ID),
		zap.String("kind", string(o.Kind)),
		zap.Error(cause))
}

// Start 实现 engine.Lifecycle。
func (b *SimBroker) Start(phase engine.Phase) {
	b.log.Debug("broker phase start", zap.String("phase", phase.String()))
}

// End 实现 engine.Lifecycle。
func (b *SimBroker) End(phase engine.Phase) {
	b.log.Debug("broker phase end", zap.String("phase", phase.String()))
}

// Reset 清空开放集合与账户并重新存入初始资金。
func (b *SimBroker) Reset() {
	b.handlers = nil
	b.queued = nil
	b.acct.Reset(b.deposits...)
	b.placed, b.executions, b.rejected, b.expired = 0, 0, 0, 0
}

// Metrics 实现 engine.Lifecycle。
func (b *SimBroker) Metrics() map[string]float64 {
	return map[string]float64{
		"broker.orders.placed":   float64(b.placed),
		"broker.orders.rejected": float64(b.rejected),
		"broker.orders.expired":  float64(b.expired),
		"broker.executions":      float64(b.executions),
		"broker.open":            float64(len(b.handlers)),
	}
}
