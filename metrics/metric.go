// Package metrics 提供指标计算与指标日志器。
package metrics

import (
	"backsim/account"
	"backsim/asset"
	"backsim/engine"
	"backsim/feed"
)

// nopLifecycle 指标组件的默认生命周期实现。
type nopLifecycle struct{}

func (nopLifecycle) Start(engine.Phase)          {}
func (nopLifecycle) End(engine.Phase)            {}
func (nopLifecycle) Reset()                      {}
func (nopLifecycle) Metrics() map[string]float64 { return nil }

// AccountMetric 汇报账户基础指标：各货币现金、持仓数、成交数、开放订单数。
type AccountMetric struct {
	lastPrices map[asset.Asset]float64
}

// NewAccountMetric 创建账户指标。
func NewAccountMetric() *AccountMetric {
	return &AccountMetric{lastPrices: make(map[asset.Asset]float64)}
}

// Calculate 实现 engine.Metric。
func (m *AccountMetric) Calculate(acct *account.Account, ev feed.Event) map[string]float64 {
	for _, pa := range ev.Actions {
		m.lastPrices[pa.Asset()] = pa.Price()
	}

	out := map[string]float64{
		"account.trades":      float64(len(acct.Trades)),
		"account.open_orders": float64(len(acct.OpenOrders())),
		"account.positions":   float64(len(acct.Positions())),
	}
	seen := make(map[asset.Currency]bool)
	for _, amt := range acct.Cash.Amounts() {
		out["account.cash."+string(amt.Currency)] = amt.Float()
		seen[amt.Currency] = true
	}
	// 现金恰好为零但仍有持仓的货币同样要报告权益
	for _, p := range acct.Positions() {
		seen[p.Asset.Currency] = true
	}
	for c := range seen {
		out["account.equity."+string(c)] = acct.Equity(c, m.lastPrice)
	}
	return out
}

func (m *AccountMetric) lastPrice(a asset.Asset) (float64, bool) {
	p, ok := m.lastPrices[a]
	return p, ok
}

// Start 实现 engine.Lifecycle。
func (m *AccountMetric) Start(engine.Phase) {}

// End 实现 engine.Lifecycle。
func (m *AccountMetric) End(engine.Phase) {}

// Reset 清空价格缓存。
func (m *AccountMetric) Reset() {
	m.lastPrices = make(map[asset.Asset]float64)
}

// Metrics 实现 engine.Lifecycle。
func (m *AccountMetric) Metrics() map[string]float64 { return nil }

// ReturnsMetric 跟踪某一货币权益的累计收益率与最大回撤。
type ReturnsMetric struct {
	Currency asset.Currency

	lastPrices map[asset.Asset]float64
	initial    float64
	peak       float64
	drawdown   float64
	seeded     bool
}

// NewReturnsMetric 创建收益指标。
func NewReturnsMetric(c asset.Currency) *ReturnsMetric {
	return &ReturnsMetric{Currency: c, lastPrices: make(map[asset.Asset]float64)}
}

// Calculate 实现 engine.Metric。
func (m *ReturnsMetric) Calculate(acct *account.Account, ev feed.Event) map[string]float64 {
	for _, pa := range ev.Actions {
		m.lastPrices[pa.Asset()] = pa.Price()
	}
	equity := acct.Equity(m.Currency, func(a asset.Asset) (float64, bool) {
		p, ok := m.lastPrices[a]
		return p, ok
	})
	if !m.seeded {
		m.initial = equity
		m.peak = equity
		m.seeded = true
	}
	if equity > m.peak {
		m.peak = equity
	}
	if m.peak > 0 {
		if dd := (m.peak - equity) / m.peak; dd > m.drawdown {
			m.drawdown = dd
		}
	}
	total := 0.0
	if m.initial != 0 {
		total = equity/m.initial - 1
	}
	return map[string]float64{
		"returns.total":        total,
		"returns.max_drawdown": m.drawdown,
	}
}

// Start 实现 engine.Lifecycle。
func (m *ReturnsMetric) Start(engine.Phase) {}

// End 实现 engine.Lifecycle。
func (m *ReturnsMetric) End(engine.Phase) {}

// Reset 实现 engine.Lifecycle。
func (m *ReturnsMetric) Reset() {
	m.lastPrices = make(map[asset.Asset]float64)
	m.initial, m.peak, m.drawdown = 0, 0, 0
	m.seeded = false
}

// Metrics 实现 engine.Lifecycle。
func (m *ReturnsMetric) Metrics() map[string]float64 { return nil }
