package policy

import (
	"testing"
	"time"

	"backsim/account"
	"backsim/asset"
	"backsim/engine"
	"backsim/feed"
	"backsim/order"
)

var (
	btc = asset.New("BTCUSDT", asset.USDT)
	now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func priceEvent(p float64) feed.Event {
	return feed.NewEvent(now, feed.TradePrice{Ref: btc, Value: p})
}

func TestFlexSizesOrderByCashFraction(t *testing.T) {
	f := NewFlex(0.1, nil)
	acct := account.New(asset.NewAmount(asset.USDT, 10000))

	orders := f.Act([]engine.Signal{{Asset: btc, Rating: 1}}, acct, priceEvent(100))
	if len(orders) != 1 {
		t.Fatalf("orders = %d", len(orders))
	}
	// 10000 * 0.1 / 100 = 10
	if orders[0].Size != 10 || orders[0].Kind != order.KindMarket {
		t.Fatalf("unexpected order %v", orders[0])
	}
}

func TestFlexSellSignalProducesNegativeSize(t *testing.T) {
	f := NewFlex(0.2, nil)
	acct := account.New(asset.NewAmount(asset.USDT, 1000))

	orders := f.Act([]engine.Signal{{Asset: btc, Rating: -1}}, acct, priceEvent(50))
	if len(orders) != 1 {
		t.Fatalf("orders = %d", len(orders))
	}
	if orders[0].Size != -4 {
		t.Fatalf("size = %v", orders[0].Size)
	}
}

func TestFlexRatingScalesSize(t *testing.T) {
	f := NewFlex(0.1, nil)
	acct := account.New(asset.NewAmount(asset.USDT, 10000))

	orders := f.Act([]engine.Signal{{Asset: btc, Rating: 0.5}}, acct, priceEvent(100))
	if len(orders) != 1 || orders[0].Size != 5 {
		t.Fatalf("unexpected orders %v", orders)
	}
}

func TestFlexFlattensOppositePositionFirst(t *testing.T) {
	f := NewFlex(0.1, nil)
	acct := account.New(asset.NewAmount(asset.USDT, 10000))
	long, err := order.NewMarketOrder(btc, 3)
	if err != nil {
		t.Fatal(err)
	}
	acct.Apply(order.Execution{Order: long, Size: 3, Price: 100, Time: now})

	orders := f.Act([]engine.Signal{{Asset: btc, Rating: -1}}, acct, priceEvent(100))
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want flatten + entry", len(orders))
	}
	if orders[0].Size != -3 {
		t.Fatalf("flatten size = %v", orders[0].Size)
	}
	if orders[1].Size >= 0 {
		t.Fatalf("entry size = %v, want negative", orders[1].Size)
	}
}

func TestFlexSkipsUnpricedAndZeroRatedSignals(t *testing.T) {
	f := NewFlex(0.1, nil)
	acct := account.New(asset.NewAmount(asset.USDT, 10000))
	eth := asset.New("ETHUSDT", asset.USDT)

	orders := f.Act([]engine.Signal{
		{Asset: eth, Rating: 1}, // 事件中无该资产价格
		{Asset: btc, Rating: 0}, // 中性信号
	}, acct, priceEvent(100))
	if len(orders) != 0 {
		t.Fatalf("orders = %v", orders)
	}
}

func TestFlexSkipsDustOrders(t *testing.T) {
	f := NewFlex(0.1, nil)
	f.MinSize = 1
	acct := account.New(asset.NewAmount(asset.USDT, 100))

	// 100 * 0.1 / 1000 = 0.01 < MinSize
	orders := f.Act([]engine.Signal{{Asset: btc, Rating: 1}}, acct, priceEvent(1000))
	if len(orders) != 0 {
		t.Fatalf("orders = %v", orders)
	}
}

func TestFlexMetricsAndReset(t *testing.T) {
	f := NewFlex(0.1, nil)
	acct := account.New(asset.NewAmount(asset.USDT, 10000))
	f.Act([]engine.Signal{{Asset: btc, Rating: 1}}, acct, priceEvent(100))

	if f.Metrics()["policy.orders.created"] != 1 {
		t.Fatalf("created = %v", f.Metrics()["policy.orders.created"])
	}
	f.Reset()
	if f.Metrics()["policy.orders.created"] != 0 {
		t.Fatalf("counter survived reset")
	}
}

func TestFlexDefaultOrderPct(t *testing.T) {
	if f := NewFlex(0, nil); f.OrderPct != 0.1 {
		t.Fatalf("default pct = %v", f.OrderPct)
	}
	if f := NewFlex(1.5, nil); f.OrderPct != 0.1 {
		t.Fatalf("out-of-range pct = %v", f.OrderPct)
	}
}
