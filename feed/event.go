package feed

import (
	"time"

	"backsim/asset"
)

// PriceAction 一次原始价格观测，事件中可包含多个资产的观测。
type PriceAction interface {
	Asset() asset.Asset
	// Price 返回该观测的代表价格（成交价或收盘价）。
	Price() float64
}

// TradePrice 单笔成交观测。
type TradePrice struct {
	Ref    asset.Asset
	Value  float64
	Volume float64
}

func (t TradePrice) Asset() asset.Asset { return t.Ref }
func (t TradePrice) Price() float64     { return t.Value }

// PriceBar OHLCV 柱状观测。
type PriceBar struct {
	Ref    asset.Asset
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (b PriceBar) Asset() asset.Asset { return b.Ref }

// Price 柱状观测以收盘价为代表价格。
func (b PriceBar) Price() float64 { return b.Close }

// Event 行情事件：同一模拟时刻的一组价格观测。
// 事件按时间非递减顺序进入运行循环，由 Feed 保证。
type Event struct {
	Time    time.Time
	Actions []PriceAction
}

// NewEvent 创建事件。
func NewEvent(t time.Time, actions ...PriceAction) Event {
	return Event{Time: t, Actions: actions}
}

// Empty 无任何观测时为真。
func (e Event) Empty() bool {
	return len(e.Actions) == 0
}

// PriceOf 返回事件中某资产的观测，不存在时第二个返回值为 false。
func (e Event) PriceOf(a asset.Asset) (PriceAction, bool) {
	for _, pa := range e.Actions {
		if pa.Asset() == a {
			return pa, true
		}
	}
	return nil, false
}
