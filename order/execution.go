package order

import "time"

// Execution 一次成交的不可变记录。由 handler 产生，broker 消费后
// 写入账户与成交流水，此后不再修改。
type Execution struct {
	Order *Order
	Size  float64 // 带符号的成交数量
	Price float64
	Time  time.Time
}

// Value 成交金额（按标的计价货币），带符号。
func (e Execution) Value() float64 {
	return e.Size * e.Price
}
