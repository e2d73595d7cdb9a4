package order

import (
	"errors"
	"testing"
	"time"
)

// fixedPricing 测试用报价。
type fixedPricing struct {
	bid float64
	ask float64
}

func (p fixedPricing) Bid() float64 { return p.bid }
func (p fixedPricing) Ask() float64 { return p.ask }
func (p fixedPricing) Mid() float64 { return (p.bid + p.ask) / 2 }

func noCost(price float64) fixedPricing {
	return fixedPricing{bid: price, ask: price}
}

var handlerTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func acceptedHandler(t *testing.T, o *Order, err error) Handler {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	if err := o.SetStatus(StatusAccepted, handlerTime); err != nil {
		t.Fatal(err)
	}
	h, err := NewHandler(o)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestMarketHandlerFillsOnceThenFails(t *testing.T) {
	ho, hoErr := NewMarketOrder(testAsset, 10)
	h := acceptedHandler(t, ho, hoErr)

	execs, err := h.Execute(noCost(100), handlerTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 {
		t.Fatalf("expected exactly one execution, got %d", len(execs))
	}
	if execs[0].Value() == 0 {
		t.Fatal("execution value must be non-zero")
	}
	if execs[0].Size != 10 || execs[0].Price != 100 {
		t.Fatalf("unexpected execution %+v", execs[0])
	}
	if h.Remaining() != 0 {
		t.Fatalf("market order fills entirely, remaining %v", h.Remaining())
	}

	// a market order cannot remain open, re-invocation is a caller bug
	if _, err := h.Execute(noCost(100), handlerTime); !errors.Is(err, ErrHandlerDone) {
		t.Fatalf("second execute must fail, got %v", err)
	}
}

func TestExecuteTerminalOrderFails(t *testing.T) {
	o, _ := NewMarketOrder(testAsset, 1)
	_ = o.SetStatus(StatusAccepted, handlerTime)
	h, _ := NewHandler(o)
	_ = o.SetStatus(StatusCancelled, handlerTime)

	if _, err := h.Execute(noCost(100), handlerTime); !errors.Is(err, ErrHandlerDone) {
		t.Fatalf("executing a terminal order must fail, got %v", err)
	}
}

func TestSellStopHandler(t *testing.T) {
	ho, hoErr := NewStopOrder(testAsset, -5, 99)
	h := acceptedHandler(t, ho, hoErr)

	execs, err := h.Execute(noCost(100), handlerTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 0 {
		t.Fatalf("price 100 above stop 99, not triggered, got %d execs", len(execs))
	}

	execs, err = h.Execute(noCost(98), handlerTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 {
		t.Fatalf("price 98 below stop 99, expected one execution, got %d", len(execs))
	}
	if execs[0].Size != -5 {
		t.Fatalf("full remaining size fills, got %v", execs[0].Size)
	}
}

func TestBuyStopHandler(t *testing.T) {
	ho, hoErr := NewStopOrder(testAsset, 5, 101)
	h := acceptedHandler(t, ho, hoErr)
	if execs, _ := h.Execute(noCost(100), handlerTime); len(execs) != 0 {
		t.Fatal("ask below buy-stop must not trigger")
	}
	if execs, _ := h.Execute(noCost(102), handlerTime); len(execs) != 1 {
		t.Fatal("ask above buy-stop must trigger")
	}
}

func TestBuyLimitHandler(t *testing.T) {
	ho, hoErr := NewLimitOrder(testAsset, 5, 99)
	h := acceptedHandler(t, ho, hoErr)

	if execs, _ := h.Execute(noCost(100), handlerTime); len(execs) != 0 {
		t.Fatal("ask 100 above limit 99, no execution")
	}
	execs, err := h.Execute(noCost(98), handlerTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 {
		t.Fatalf("ask 98 at or below limit 99, expected one execution, got %d", len(execs))
	}
	if execs[0].Price != 99 {
		t.Fatalf("limit order fills at the limit price, got %v", execs[0].Price)
	}
}

func TestSellLimitHandler(t *testing.T) {
	ho, hoErr := NewLimitOrder(testAsset, -5, 101)
	h := acceptedHandler(t, ho, hoErr)
	if execs, _ := h.Execute(noCost(100), handlerTime); len(execs) != 0 {
		t.Fatal("bid 100 below limit 101, no execution")
	}
	if execs, _ := h.Execute(noCost(102), handlerTime); len(execs) != 1 {
		t.Fatal("bid 102 above limit 101, one execution")
	}
}

func TestStopLimitHandlerSell(t *testing.T) {
	// stop=100 limit=98，卖出：逐步经过未触发/触发未满足/成交三种价位
	cases := []struct {
		price float64
		execs int
	}{
		{101, 0}, // stop not hit
		{97, 0},  // stop hit but bid below limit
		{99, 1},  // triggered earlier, bid satisfies limit
	}
	ho, hoErr := NewStopLimitOrder(testAsset, -5, 100, 98)
	h := acceptedHandler(t, ho, hoErr)
	for _, tc := range cases {
		execs, err := h.Execute(noCost(tc.price), handlerTime)
		if err != nil {
			t.Fatal(err)
		}
		if len(execs) != tc.execs {
			t.Fatalf("price %v: expected %d executions, got %d", tc.price, tc.execs, len(execs))
		}
	}
}

func TestStopLimitTriggerAndFillSameStep(t *testing.T) {
	ho, hoErr := NewStopLimitOrder(testAsset, -5, 100, 98)
	h := acceptedHandler(t, ho, hoErr)
	execs, err := h.Execute(noCost(99), handlerTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 {
		t.Fatalf("price satisfying both stop and limit fills in one step, got %d", len(execs))
	}
	if execs[0].Price != 98 {
		t.Fatalf("stop-limit fills at the limit price, got %v", execs[0].Price)
	}
}

func TestTrailHandlerRatchets(t *testing.T) {
	// 卖出跟踪，回撤 5%：极值只向上棘轮
	ho, hoErr := NewTrailOrder(testAsset, -5, 0.05)
	h := acceptedHandler(t, ho, hoErr)

	if execs, _ := h.Execute(noCost(100), handlerTime); len(execs) != 0 {
		t.Fatal("no drawdown yet")
	}
	// 极值推到 110，止损价 104.5
	if execs, _ := h.Execute(noCost(110), handlerTime); len(execs) != 0 {
		t.Fatal("new extreme, no trigger")
	}
	// 回落但未破：105 > 104.5
	if execs, _ := h.Execute(noCost(105), handlerTime); len(execs) != 0 {
		t.Fatal("105 above trail stop 104.5")
	}
	// 极值不允许回退，止损价仍是 104.5
	execs, err := h.Execute(noCost(104), handlerTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 {
		t.Fatalf("104 below trail stop 104.5, expected trigger, got %d", len(execs))
	}
}

func TestBuyTrailHandler(t *testing.T) {
	// 买入跟踪，反弹 5%：跟踪最低 ask
	ho, hoErr := NewTrailOrder(testAsset, 5, 0.05)
	h := acceptedHandler(t, ho, hoErr)

	if execs, _ := h.Execute(noCost(100), handlerTime); len(execs) != 0 {
		t.Fatal("stop starts at 105, ask 100 below")
	}
	// 极值下探 90，止损价 94.5
	if execs, _ := h.Execute(noCost(90), handlerTime); len(execs) != 0 {
		t.Fatal("new low, no trigger")
	}
	if execs, _ := h.Execute(noCost(95), handlerTime); len(execs) != 1 {
		t.Fatal("ask 95 above stop 94.5, expected trigger")
	}
}

func TestTrailLimitHandler(t *testing.T) {
	// 卖出跟踪限价：触发后限价 = 动态止损价 + offset
	ho, hoErr := NewTrailLimitOrder(testAsset, -5, 0.05, -1)
	h := acceptedHandler(t, ho, hoErr)

	if execs, _ := h.Execute(noCost(110), handlerTime); len(execs) != 0 {
		t.Fatal("extreme 110, stop 104.5, no trigger")
	}
	// 触发：bid 104 <= 104.5；限价 103.5；bid 104 >= 103.5 → 成交
	execs, err := h.Execute(noCost(104), handlerTime)
	if err != nil {
		t.Fatal(err)
	}
	if len(execs) != 1 {
		t.Fatalf("expected trigger and limit fill, got %d", len(execs))
	}
	if execs[0].Price != 103.5 {
		t.Fatalf("fills at the derived limit price, got %v", execs[0].Price)
	}
}

func TestNewHandlerRejectsCancelKind(t *testing.T) {
	target, _ := NewLimitOrder(testAsset, 1, 99)
	_ = target.SetStatus(StatusAccepted, handlerTime)
	c, err := NewCancellationOrder(target)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewHandler(c); err == nil {
		t.Fatal("cancellation orders do not go through matching")
	}
}
