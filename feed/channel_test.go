package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"backsim/asset"
)

var (
	chAsset = asset.New("BTCUSDT", asset.USDT)
	chStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	chTf    = Timeframe{Start: chStart, End: chStart.Add(24 * time.Hour)}
)

func chEvent(offset time.Duration, price float64) Event {
	return NewEvent(chStart.Add(offset), TradePrice{Ref: chAsset, Value: price, Volume: 1})
}

func TestChannelSendReceive(t *testing.T) {
	ch := NewEventChannel(2, chTf)
	ctx := context.Background()

	if err := ch.Send(ctx, chEvent(time.Minute, 100)); err != nil {
		t.Fatal(err)
	}
	ev, err := ch.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Actions[0].Price() != 100 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestChannelDropsOutOfRangeEvents(t *testing.T) {
	ch := NewEventChannel(1, chTf)
	ctx := context.Background()

	// 区间外事件静默丢弃，即使缓冲已满也不阻塞
	if err := ch.Send(ctx, NewEvent(chStart.Add(-time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := ch.Send(ctx, NewEvent(chTf.End.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := ch.Send(ctx, chEvent(time.Minute, 1)); err != nil {
		t.Fatal(err)
	}
	ev, err := ch.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ev.Actions) == 0 || ev.Actions[0].Price() != 1 {
		t.Fatal("only the in-range event should be buffered")
	}
}

func TestChannelBackpressureBlocksProducer(t *testing.T) {
	ch := NewEventChannel(1, chTf)
	ctx := context.Background()

	if err := ch.Send(ctx, chEvent(time.Minute, 1)); err != nil {
		t.Fatal(err)
	}

	sent := make(chan error, 1)
	go func() {
		sent <- ch.Send(ctx, chEvent(2*time.Minute, 2))
	}()

	select {
	case err := <-sent:
		t.Fatalf("send beyond capacity must block, returned %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	// 消费后生产者解除阻塞
	if _, err := ch.Receive(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-sent:
		if err != nil {
			t.Fatalf("send after drain: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("producer still blocked after drain")
	}
}

func TestChannelCloseUnblocksReceive(t *testing.T) {
	ch := NewEventChannel(1, chTf)
	ctx := context.Background()

	got := make(chan error, 1)
	go func() {
		_, err := ch.Receive(ctx)
		got <- err
	}()

	time.Sleep(20 * time.Millisecond)
	ch.Close()

	select {
	case err := <-got:
		if !errors.Is(err, ErrChannelClosed) {
			t.Fatalf("expected ErrChannelClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("receive still blocked after close")
	}
}

func TestChannelCloseUnblocksSend(t *testing.T) {
	ch := NewEventChannel(1, chTf)
	ctx := context.Background()
	if err := ch.Send(ctx, chEvent(time.Minute, 1)); err != nil {
		t.Fatal(err)
	}

	got := make(chan error, 1)
	go func() {
		got <- ch.Send(ctx, chEvent(2*time.Minute, 2))
	}()
	time.Sleep(20 * time.Millisecond)
	ch.Close()

	select {
	case err := <-got:
		if !errors.Is(err, ErrChannelClosed) {
			t.Fatalf("expected ErrChannelClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("send still blocked after close")
	}
}

func TestChannelCloseIsIdempotent(t *testing.T) {
	ch := NewEventChannel(1, chTf)
	ch.Close()
	ch.Close()
	if !ch.Closed() {
		t.Fatal("channel should report closed")
	}
	if _, err := ch.Receive(context.Background()); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("receive on closed channel: %v", err)
	}
}

func TestChannelDrainsBufferedAfterClose(t *testing.T) {
	ch := NewEventChannel(4, chTf)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := ch.Send(ctx, chEvent(time.Duration(i)*time.Minute, float64(i))); err != nil {
			t.Fatal(err)
		}
	}
	ch.Close()

	// 已生产的事件先交付，随后才报告关闭
	for i := 1; i <= 3; i++ {
		ev, err := ch.Receive(ctx)
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		if ev.Actions[0].Price() != float64(i) {
			t.Fatalf("FIFO order violated at %d: %+v", i, ev)
		}
	}
	if _, err := ch.Receive(ctx); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected closed after drain, got %v", err)
	}
}

func TestChannelContextCancellation(t *testing.T) {
	ch := NewEventChannel(1, chTf)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ch.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
