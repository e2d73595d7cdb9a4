package order

// Pricing 撮合用报价。handler 只依赖 bid/ask 契约，
// 不假设具体定价引擎（无成本、点差、滑点均可）。
type Pricing interface {
	// Bid 当前最优买价。
	Bid() float64
	// Ask 当前最优卖价。
	Ask() float64
	// Mid 中间价。
	Mid() float64
}
