package engine

import (
	"backsim/account"
	"backsim/asset"
	"backsim/feed"
	"backsim/order"
)

// Lifecycle 所有注册到运行引擎的组件共享的生命周期契约。
// 引擎在每个阶段边界按固定顺序统一调用，不做反射。
type Lifecycle interface {
	// Start 阶段开始通知。
	Start(phase Phase)
	// End 阶段结束通知，即使步进循环异常退出也会执行。
	End(phase Phase)
	// Reset 清空组件内部状态，保证同配置可重复运行。
	Reset()
	// Metrics 返回组件自身的指标，每步被采集并写入日志器。
	Metrics() map[string]float64
}

// Signal 策略对某标的的方向/置信度评估，尚不是订单。
// Rating 取值 [-1, 1]，正为看多。
type Signal struct {
	Asset  asset.Asset
	Rating float64
}

// Strategy 从行情事件生成信号。
type Strategy interface {
	Lifecycle
	Generate(ev feed.Event) []Signal
}

// Policy 将信号结合账户转化为下一步待处理订单。
type Policy interface {
	Lifecycle
	Act(signals []Signal, acct *account.Account, ev feed.Event) []*order.Order
}

// Broker 订单执行面：消费待处理订单与事件，返回更新后的账户。
type Broker interface {
	Lifecycle
	Place(orders []*order.Order, ev feed.Event) (*account.Account, error)
}

// Metric 由账户与事件计算一组命名数值结果。
type Metric interface {
	Lifecycle
	Calculate(acct *account.Account, ev feed.Event) map[string]float64
}

// MetricsLogger 接收每步的指标结果。
type MetricsLogger interface {
	Lifecycle
	Log(results map[string]float64, info RunInfo)
}
