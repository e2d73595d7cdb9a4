// Package strategy 提供参考策略实现。
package strategy

import (
	"time"

	"backsim/asset"
	"backsim/engine"
	"backsim/feed"
)

// ema 指数移动平均。
type ema struct {
	period int
	value  float64
	count  int
}

func (e *ema) update(price float64) float64 {
	e.count++
	if e.count == 1 {
		e.value = price
		return e.value
	}
	alpha := 2.0 / float64(e.period+1)
	e.value = alpha*price + (1-alpha)*e.value
	return e.value
}

func (e *ema) ready() bool { return e.count >= e.period }

// emaPair 单一资产的快慢均线状态。
type emaPair struct {
	fast *ema
	slow *ema
	up   bool // 上一次观察到的快慢相对位置
	init bool
}

// Rec 一条已发出信号的记录。
type Rec struct {
	Asset  asset.Asset
	Rating float64
	Time   time.Time
}

// EMACross 快慢均线交叉策略：金叉发出看多信号，死叉发出看空信号。
// 经典的参考实现，用于驱动端到端回测。
type EMACross struct {
	FastPeriod int
	SlowPeriod int

	pairs   map[asset.Asset]*emaPair
	history []Rec
	signals int64
}

// NewEMACross 创建均线交叉策略，默认 12/26。
func NewEMACross(fast, slow int) *EMACross {
	if fast <= 0 {
		fast = 12
	}
	if slow <= fast {
		slow = fast * 2
	}
	return &EMACross{
		FastPeriod: fast,
		SlowPeriod: slow,
		pairs:      make(map[asset.Asset]*emaPair),
	}
}

// Generate 实现 engine.Strategy。
func (s *EMACross) Generate(ev feed.Event) []engine.Signal {
	var signals []engine.Signal
	for _, pa := range ev.Actions {
		p, ok := s.pairs[pa.Asset()]
		if !ok {
			p = &emaPair{
				fast: &ema{period: s.FastPeriod},
				slow: &ema{period: s.SlowPeriod},
			}
			s.pairs[pa.Asset()] = p
		}
		fast := p.fast.update(pa.Price())
		slow := p.slow.update(pa.Price())
		if !p.slow.ready() {
			continue
		}
		up := fast > slow
		if !p.init {
			p.init = true
			p.up = up
			continue
		}
		if up == p.up {
			continue
		}
		p.up = up
		rating := 1.0
		if !up {
			rating = -1.0
		}
		signals = append(signals, engine.Signal{Asset: pa.Asset(), Rating: rating})
		s.history = append(s.history, Rec{Asset: pa.Asset(), Rating: rating, Time: ev.Time})
		s.signals++
	}
	return signals
}

// Start 实现 engine.Lifecycle。
func (s *EMACross) Start(engine.Phase) {}

// End 实现 engine.Lifecycle。
func (s *EMACross) End(engine.Phase) {}

// History 返回本次运行以来发出的全部信号记录。
func (s *EMACross) History() []Rec { return s.history }

// Reset 清空全部均线状态与信号记录。
func (s *EMACross) Reset() {
	s.pairs = make(map[asset.Asset]*emaPair)
	s.history = nil
	s.signals = 0
}

// Metrics 实现 engine.Lifecycle。
func (s *EMACross) Metrics() map[string]float64 {
	return map[string]float64{"strategy.signals": float64(s.signals)}
}
