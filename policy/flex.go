// Package policy 将策略信号转化为订单。
package policy

import (
	"math"

	"go.uber.org/zap"

	"backsim/account"
	"backsim/engine"
	"backsim/feed"
	"backsim/order"
)

// Flex 基础执行策略：按账户现金的固定比例为每个信号生成市价单，
// 信号方向与现有持仓相反时先平仓再开新仓。
type Flex struct {
	// OrderPct 单笔订单占该货币现金余额的比例，默认 0.1。
	OrderPct float64
	// MinSize 数量下限，低于该值不下单。
	MinSize float64

	log     *zap.Logger
	created int64
}

// NewFlex 创建基础执行策略。
func NewFlex(orderPct float64, log *zap.Logger) *Flex {
	if orderPct <= 0 || orderPct > 1 {
		orderPct = 0.1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Flex{OrderPct: orderPct, MinSize: 1e-8, log: log}
}

// Act 实现 engine.Policy。
func (f *Flex) Act(signals []engine.Signal, acct *account.Account, ev feed.Event) []*order.Order {
	var orders []*order.Order
	for _, sig := range signals {
		pa, ok := ev.PriceOf(sig.Asset)
		if !ok || sig.Rating == 0 {
			continue
		}
		price := pa.Price()
		if price <= 0 {
			continue
		}

		pos := acct.Position(sig.Asset)
		if pos.Size != 0 && (pos.Size > 0) != (sig.Rating > 0) {
			if o, err := order.NewMarketOrder(sig.Asset, -pos.Size); err == nil {
				orders = append(orders, o)
				f.created++
			}
		}

		cash := acct.Cash.Balance(sig.Asset.Currency).Float()
		size := math.Abs(cash*f.OrderPct*sig.Rating) / price
		if size < f.MinSize {
			continue
		}
		if sig.Rating < 0 {
			size = -size
		}
		o, err := order.NewMarketOrder(sig.Asset, size)
		if err != nil {
			f.log.Warn("skip signal", zap.String("asset", sig.Asset.String()), zap.Error(err))
			continue
		}
		orders = append(orders, o)
		f.created++
	}
	return orders
}

// Start 实现 engine.Lifecycle。
func (f *Flex) Start(engine.Phase) {}

// End 实现 engine.Lifecycle。
func (f *Flex) End(engine.Phase) {}

// Reset 实现 engine.Lifecycle。
func (f *Flex) Reset() { f.created = 0 }

// Metrics 实现 engine.Lifecycle。
func (f *Flex) Metrics() map[string]float64 {
	return map[string]float64{"policy.orders.created": float64(f.created)}
}
