package order

import "time"

// TimeInForce 决定一个仍然开放的订单何时被强制过期。
// 由 broker 在每次撮合尝试前调用；返回 true 时订单转为 EXPIRED。
type TimeInForce interface {
	// IsExpired 判断订单是否到期。remaining 为尚未成交的数量。
	IsExpired(o *Order, now time.Time, remaining float64) bool
}

// GTC Good-Till-Cancelled：挂单超过 MaxDays 天后过期。
// now == placedTime 的同一时刻不过期，避免同 tick 误判。
type GTC struct {
	MaxDays int
}

func (g GTC) IsExpired(o *Order, now time.Time, _ float64) bool {
	days := g.MaxDays
	if days <= 0 {
		days = 90
	}
	deadline := o.State.PlacedAt.Add(time.Duration(days) * 24 * time.Hour)
	return now.After(deadline)
}

// GTD Good-Till-Date：越过指定日期后过期。
type GTD struct {
	Date time.Time
}

func (g GTD) IsExpired(_ *Order, now time.Time, _ float64) bool {
	return now.After(g.Date)
}

// IOC Immediate-Or-Cancel：只允许在接收的同一时刻成交，
// 时间一旦前进，未成交部分即过期。
type IOC struct{}

func (IOC) IsExpired(o *Order, now time.Time, _ float64) bool {
	return now.After(o.State.PlacedAt)
}

// DAY 当日有效：交易日（按 UTC 日历日）切换后过期。
type DAY struct{}

func (DAY) IsExpired(o *Order, now time.Time, _ float64) bool {
	py, pm, pd := o.State.PlacedAt.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return py != ny || pm != nm || pd != nd
}

// FOK Fill-Or-Kill：评估时只要还有未成交数量就过期，与时间无关。
// 部分成交跨评估不被容忍，要么整单成交要么整单作废。
type FOK struct{}

func (FOK) IsExpired(_ *Order, _ time.Time, remaining float64) bool {
	return remaining != 0
}
