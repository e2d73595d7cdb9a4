package broker

import (
	"time"

	"backsim/feed"
	"backsim/order"
)

// PricingEngine 将一次原始价格观测转换为可撮合的买卖报价。
// 可插拔：无成本、固定点差、滑点模型等均可替换。
type PricingEngine interface {
	Quote(pa feed.PriceAction, t time.Time) order.Pricing
}

// quote order.Pricing 的不可变实现。
type quote struct {
	bid float64
	ask float64
}

func (q quote) Bid() float64 { return q.bid }
func (q quote) Ask() float64 { return q.ask }
func (q quote) Mid() float64 { return (q.bid + q.ask) / 2 }

// NoCostPricing 无成本定价：买卖价都等于观测价。
type NoCostPricing struct{}

func (NoCostPricing) Quote(pa feed.PriceAction, _ time.Time) order.Pricing {
	p := pa.Price()
	return quote{bid: p, ask: p}
}

// SpreadPricing 围绕观测价的对称点差定价，SpreadBps 为总点差的万分比。
type SpreadPricing struct {
	SpreadBps float64
}

func (s SpreadPricing) Quote(pa feed.PriceAction, _ time.Time) order.Pricing {
	p := pa.Price()
	half := p * s.SpreadBps / 10000 / 2
	return quote{bid: p - half, ask: p + half}
}
