package order

import (
	"testing"
	"time"

	"backsim/asset"
)

var testAsset = asset.New("BTCUSDT", asset.USDT)

func TestStatusTerminal(t *testing.T) {
	terminals := []Status{StatusCompleted, StatusCancelled, StatusExpired, StatusRejected}
	for _, s := range terminals {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusInitial, StatusAccepted} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusTransitionsForwardOnly(t *testing.T) {
	now := time.Now()
	o, err := NewMarketOrder(testAsset, 1)
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	if o.Status() != StatusInitial {
		t.Fatalf("expected INITIAL, got %s", o.Status())
	}
	if err := o.SetStatus(StatusAccepted, now); err != nil {
		t.Fatalf("INITIAL -> ACCEPTED: %v", err)
	}
	if err := o.SetStatus(StatusCompleted, now); err != nil {
		t.Fatalf("ACCEPTED -> COMPLETED: %v", err)
	}

	// no resurrecting a terminal order
	if err := o.SetStatus(StatusAccepted, now); err == nil {
		t.Fatal("COMPLETED -> ACCEPTED must fail")
	}
	// no second terminal state
	if err := o.SetStatus(StatusCancelled, now); err == nil {
		t.Fatal("COMPLETED -> CANCELLED must fail")
	}
}

func TestStatusNoSkipToTerminalTwice(t *testing.T) {
	now := time.Now()
	for _, terminal := range []Status{StatusCompleted, StatusCancelled, StatusExpired} {
		o, _ := NewMarketOrder(testAsset, 1)
		// INITIAL can only go to ACCEPTED or REJECTED
		if err := o.SetStatus(terminal, now); err == nil {
			t.Errorf("INITIAL -> %s must fail", terminal)
		}
	}
}

func TestStatusIdempotentSame(t *testing.T) {
	o, _ := NewMarketOrder(testAsset, 1)
	if err := o.SetStatus(StatusInitial, time.Now()); err != nil {
		t.Fatalf("same-status transition should be allowed: %v", err)
	}
}

func TestPlacedAtSetOnAccept(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	o, _ := NewLimitOrder(testAsset, 1, 99)
	if err := o.SetStatus(StatusAccepted, now); err != nil {
		t.Fatal(err)
	}
	if !o.State.PlacedAt.Equal(now) {
		t.Fatalf("placed time not recorded, got %s", o.State.PlacedAt)
	}
}
