// Package account 维护一次回测运行的资金与持仓视图。
// 账户只由 Broker 在步进中串行更新；策略/策略执行/指标只读。
package account

import (
	"time"

	"backsim/asset"
	"backsim/order"
)

// Position 某一标的的净持仓。
type Position struct {
	Asset   asset.Asset
	Size    float64 // 带符号净数量
	AvgCost float64 // 加权平均成本
}

// Value 按给定价格的市值。
func (p Position) Value(price float64) float64 {
	return p.Size * price
}

// UnrealizedPnL 按给定价格的浮动盈亏。
func (p Position) UnrealizedPnL(price float64) float64 {
	return p.Size * (price - p.AvgCost)
}

// Account 现金账本 + 持仓 + 开放订单 + 成交流水。
type Account struct {
	Cash       *asset.Wallet
	positions  map[asset.Asset]Position
	openOrders map[string]*order.Order
	Trades     []order.Execution
	LastUpdate time.Time
}

// New 创建账户并存入初始资金。
func New(deposits ...asset.Amount) *Account {
	return &Account{
		Cash:       asset.NewWallet(deposits...),
		positions:  make(map[asset.Asset]Position),
		openOrders: make(map[string]*order.Order),
	}
}

// Position 返回某标的持仓，未持有时为零值。
func (a *Account) Position(as asset.Asset) Position {
	p, ok := a.positions[as]
	if !ok {
		return Position{Asset: as}
	}
	return p
}

// Positions 返回全部非零持仓的拷贝。
func (a *Account) Positions() []Position {
	out := make([]Position, 0, len(a.positions))
	for _, p := range a.positions {
		if p.Size != 0 {
			out = append(out, p)
		}
	}
	return out
}

// OpenOrders 返回当前开放订单。
func (a *Account) OpenOrders() []*order.Order {
	out := make([]*order.Order, 0, len(a.openOrders))
	for _, o := range a.openOrders {
		out = append(out, o)
	}
	return out
}

// RegisterOpen 登记开放订单，broker 接受订单时调用。
func (a *Account) RegisterOpen(o *order.Order) {
	a.openOrders[o.ID] = o
}

// RemoveOpen 移除开放订单，订单到达终态时调用。
func (a *Account) RemoveOpen(id string) {
	delete(a.openOrders, id)
}

// Apply 将一笔成交写入账户：更新持仓加权成本、按标的计价货币
// 调整现金，并追加到成交流水。
func (a *Account) Apply(e order.Execution) {
	p := a.Position(e.Order.Asset)
	newSize := p.Size + e.Size
	switch {
	case newSize == 0:
		p.AvgCost = 0
	case p.Size == 0 || sameSign(p.Size, e.Size):
		// 开仓或加仓：加权平均
		p.AvgCost = (p.AvgCost*p.Size + e.Price*e.Size) / newSize
	default:
		// 减仓或反手：平掉部分不改变剩余均价，反手部分按新价计
		if !sameSign(newSize, p.Size) {
			p.AvgCost = e.Price
		}
	}
	p.Size = newSize
	p.Asset = e.Order.Asset
	a.positions[e.Order.Asset] = p

	a.Cash.Withdraw(asset.NewAmount(e.Order.Asset.Currency, e.Value()))
	a.Trades = append(a.Trades, e)
	a.LastUpdate = e.Time
}

// Equity 某一货币下的权益 = 现金 + 该货币计价持仓按最后成交价的市值。
// 跨货币汇总需要汇率表，超出本系统范围，因而按货币分别报告。
func (a *Account) Equity(c asset.Currency, lastPrice func(asset.Asset) (float64, bool)) float64 {
	equity := a.Cash.Balance(c).Float()
	for _, p := range a.positions {
		if p.Asset.Currency != c || p.Size == 0 {
			continue
		}
		if price, ok := lastPrice(p.Asset); ok {
			equity += p.Value(price)
		} else {
			equity += p.Value(p.AvgCost)
		}
	}
	return equity
}

// Reset 清空账户状态并重新存入初始资金。
func (a *Account) Reset(deposits ...asset.Amount) {
	a.Cash = asset.NewWallet(deposits...)
	a.positions = make(map[asset.Asset]Position)
	a.openOrders = make(map[string]*order.Order)
	a.Trades = nil
	a.LastUpdate = time.Time{}
}

func sameSign(a, b float64) bool {
	return (a > 0) == (b > 0)
}
