package asset

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount 单一货币金额。余额使用 decimal 避免多币种累加时的浮点漂移。
type Amount struct {
	Currency Currency
	Value    decimal.Decimal
}

// NewAmount 由 float64 构造金额。
func NewAmount(c Currency, v float64) Amount {
	return Amount{Currency: c, Value: decimal.NewFromFloat(v)}
}

// Float 返回 float64 视图，供指标计算使用。
func (a Amount) Float() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) String() string {
	return a.Value.StringFixed(4) + " " + string(a.Currency)
}

// Wallet 多币种现金账本。非并发安全，由单一持有者（Broker）串行更新。
type Wallet struct {
	balances map[Currency]decimal.Decimal
}

// NewWallet 创建账本并存入初始金额。
func NewWallet(amounts ...Amount) *Wallet {
	w := &Wallet{balances: make(map[Currency]decimal.Decimal)}
	for _, a := range amounts {
		w.Deposit(a)
	}
	return w
}

// Deposit 存入金额（负数等价于取出）。
func (w *Wallet) Deposit(a Amount) {
	w.balances[a.Currency] = w.balances[a.Currency].Add(a.Value)
}

// Withdraw 取出金额。允许透支，保证金模型由上层决定。
func (w *Wallet) Withdraw(a Amount) {
	w.balances[a.Currency] = w.balances[a.Currency].Sub(a.Value)
}

// Balance 返回某一货币余额。
func (w *Wallet) Balance(c Currency) Amount {
	return Amount{Currency: c, Value: w.balances[c]}
}

// Amounts 返回全部非零余额，按货币排序，便于确定性输出。
func (w *Wallet) Amounts() []Amount {
	out := make([]Amount, 0, len(w.balances))
	for c, v := range w.balances {
		if v.IsZero() {
			continue
		}
		out = append(out, Amount{Currency: c, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// Clone 深拷贝账本。
func (w *Wallet) Clone() *Wallet {
	c := &Wallet{balances: make(map[Currency]decimal.Decimal, len(w.balances))}
	for k, v := range w.balances {
		c.balances[k] = v
	}
	return c
}

func (w *Wallet) String() string {
	amounts := w.Amounts()
	parts := make([]string, 0, len(amounts))
	for _, a := range amounts {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
