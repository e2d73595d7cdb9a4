package asset

import "fmt"

// Currency 货币代码（ISO 4217 或交易所记账单位，如 USDT）。
type Currency string

const (
	USD  Currency = "USD"
	EUR  Currency = "EUR"
	JPY  Currency = "JPY"
	USDT Currency = "USDT"
	BTC  Currency = "BTC"
)

// Asset 标的资产：交易符号 + 计价货币。
// 同一 Symbol 不同货币视为不同资产。
type Asset struct {
	Symbol   string
	Currency Currency
}

// New 创建资产，货币为空时默认 USD。
func New(symbol string, currency Currency) Asset {
	if currency == "" {
		currency = USD
	}
	return Asset{Symbol: symbol, Currency: currency}
}

func (a Asset) String() string {
	return fmt.Sprintf("%s/%s", a.Symbol, a.Currency)
}
