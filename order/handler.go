package order

import (
	"errors"
	"fmt"
	"time"
)

// Handler 单一订单的撮合状态机，broker 每步调用一次 Execute。
// 本设计不建模部分成交：每步要么整单成交，要么零成交。
type Handler interface {
	// Execute 按当前报价与时间尝试撮合。订单已处于终态时调用属于
	// 调用方 bug，返回错误而不是静默忽略。
	Execute(p Pricing, now time.Time) ([]Execution, error)
	// Order 返回被包装的订单。
	Order() *Order
	// Remaining 返回尚未成交的带符号数量。
	Remaining() float64
}

// ErrHandlerDone 对终态/已成交 handler 的重复调用。
var ErrHandlerDone = errors.New("handler already done")

// NewHandler 按订单类型派发 handler。KindCancel 不经过撮合，
// 由 broker 直接处理，这里拒绝。
func NewHandler(o *Order) (Handler, error) {
	switch o.Kind {
	case KindMarket:
		return &marketHandler{base: base{order: o}}, nil
	case KindLimit:
		return &limitHandler{base: base{order: o}}, nil
	case KindStop:
		return &stopHandler{base: base{order: o}}, nil
	case KindStopLimit:
		return &stopLimitHandler{base: base{order: o}}, nil
	case KindTrail:
		return &trailHandler{base: base{order: o}}, nil
	case KindTrailLimit:
		return &trailLimitHandler{base: base{order: o}}, nil
	default:
		return nil, fmt.Errorf("no handler for order kind %s", o.Kind)
	}
}

// base handler 公共部分：持有订单并跟踪已成交数量。
type base struct {
	order *Order
	fill  float64
}

func (b *base) Order() *Order { return b.order }

func (b *base) Remaining() float64 { return b.order.Size - b.fill }

// guard 撮合前置检查。
func (b *base) guard() error {
	if b.order.State.Status.Terminal() {
		return fmt.Errorf("%w: order %s is %s", ErrHandlerDone, b.order.ID, b.order.State.Status)
	}
	if b.Remaining() == 0 {
		return fmt.Errorf("%w: order %s fully filled", ErrHandlerDone, b.order.ID)
	}
	return nil
}

// fillAll 整单成交剩余数量。
func (b *base) fillAll(price float64, now time.Time) []Execution {
	size := b.Remaining()
	b.fill = b.order.Size
	return []Execution{{Order: b.order, Size: size, Price: price, Time: now}}
}

// touchPrice 返回该方向吃价：买单吃 ask，卖单吃 bid。
func touchPrice(o *Order, p Pricing) float64 {
	if o.Buy() {
		return p.Ask()
	}
	return p.Bid()
}

// marketHandler 市价单：首次调用即按当前报价整单成交。
type marketHandler struct {
	base
}

func (h *marketHandler) Execute(p Pricing, now time.Time) ([]Execution, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	return h.fillAll(touchPrice(h.order, p), now), nil
}

// limitHandler 限价单：价格达到至少与限价同等有利时整单成交，成交价为限价。
// 卖出：bid >= limit；买入：ask <= limit。
type limitHandler struct {
	base
}

func (h *limitHandler) Execute(p Pricing, now time.Time) ([]Execution, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	if limitTriggered(h.order.Buy(), h.order.Limit, p) {
		return h.fillAll(h.order.Limit, now), nil
	}
	return nil, nil
}

// stopHandler 止损单：价格向持有者不利方向越过触发价后整单成交。
// 卖出止损：bid <= stop；买入止损：ask >= stop。成交价为触发侧报价。
type stopHandler struct {
	base
}

func (h *stopHandler) Execute(p Pricing, now time.Time) ([]Execution, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	if stopTriggered(h.order.Buy(), h.order.Stop, p) {
		return h.fillAll(touchPrice(h.order, p), now), nil
	}
	return nil, nil
}

// stopLimitHandler 两阶段：止损触发前休眠，触发后按限价逻辑撮合。
// 同一步内可先触发再满足限价而直接成交。
type stopLimitHandler struct {
	base
	triggered bool
}

func (h *stopLimitHandler) Execute(p Pricing, now time.Time) ([]Execution, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	if !h.triggered {
		h.triggered = stopTriggered(h.order.Buy(), h.order.Stop, p)
	}
	if h.triggered && limitTriggered(h.order.Buy(), h.order.Limit, p) {
		return h.fillAll(h.order.Limit, now), nil
	}
	return nil, nil
}

// trailHandler 跟踪止损：跟踪进入以来的有利极值并动态推算止损价。
// 卖出跟踪最高 bid，止损价 = 极值*(1-trailPct)；买入跟踪最低 ask，
// 止损价 = 极值*(1+trailPct)。极值只向有利方向棘轮，从不回退。
type trailHandler struct {
	base
	trail trailLevel
}

func (h *trailHandler) Execute(p Pricing, now time.Time) ([]Execution, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	stop := h.trail.update(h.order, p)
	if stopTriggered(h.order.Buy(), stop, p) {
		return h.fillAll(touchPrice(h.order, p), now), nil
	}
	return nil, nil
}

// trailLimitHandler 跟踪止损限价：动态止损触发后按限价逻辑撮合，
// 限价 = 触发时的动态止损价 + LimitOffset。
type trailLimitHandler struct {
	base
	trail     trailLevel
	triggered bool
	limit     float64
}

func (h *trailLimitHandler) Execute(p Pricing, now time.Time) ([]Execution, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	stop := h.trail.update(h.order, p)
	if !h.triggered && stopTriggered(h.order.Buy(), stop, p) {
		h.triggered = true
		h.limit = stop + h.order.LimitOffset
	}
	if h.triggered && limitTriggered(h.order.Buy(), h.limit, p) {
		return h.fillAll(h.limit, now), nil
	}
	return nil, nil
}

// trailLevel 跟踪极值并换算当前止损价。
type trailLevel struct {
	extreme float64
	seeded  bool
}

func (t *trailLevel) update(o *Order, p Pricing) float64 {
	if o.Buy() {
		ask := p.Ask()
		if !t.seeded || ask < t.extreme {
			t.extreme = ask
			t.seeded = true
		}
		return t.extreme * (1 + o.TrailPct)
	}
	bid := p.Bid()
	if !t.seeded || bid > t.extreme {
		t.extreme = bid
		t.seeded = true
	}
	return t.extreme * (1 - o.TrailPct)
}

func stopTriggered(buy bool, stop float64, p Pricing) bool {
	if buy {
		return p.Ask() >= stop
	}
	return p.Bid() <= stop
}

func limitTriggered(buy bool, limit float64, p Pricing) bool {
	if buy {
		return p.Ask() <= limit
	}
	return p.Bid() >= limit
}
