package asset

import "testing"

func TestWalletDepositWithdraw(t *testing.T) {
	w := NewWallet(NewAmount(USDT, 1000))
	w.Withdraw(NewAmount(USDT, 250.5))
	w.Deposit(NewAmount(EUR, 10))

	if got := w.Balance(USDT).Float(); got != 749.5 {
		t.Fatalf("USDT balance = %v", got)
	}
	if got := w.Balance(EUR).Float(); got != 10 {
		t.Fatalf("EUR balance = %v", got)
	}
	if got := w.Balance(JPY).Float(); got != 0 {
		t.Fatalf("unknown currency balance = %v", got)
	}
}

func TestWalletNoFloatDrift(t *testing.T) {
	w := NewWallet()
	// 0.1 累加十次在 float64 下会偏离 1.0，decimal 账本不会
	for i := 0; i < 10; i++ {
		w.Deposit(NewAmount(USD, 0.1))
	}
	if got := w.Balance(USD).Float(); got != 1.0 {
		t.Fatalf("expected exactly 1.0, got %v", got)
	}
}

func TestWalletAmountsSortedNonZero(t *testing.T) {
	w := NewWallet(NewAmount(USDT, 5), NewAmount(EUR, 1))
	w.Withdraw(NewAmount(USDT, 5))

	amounts := w.Amounts()
	if len(amounts) != 1 || amounts[0].Currency != EUR {
		t.Fatalf("zero balances filtered, got %v", amounts)
	}
}

func TestWalletClone(t *testing.T) {
	w := NewWallet(NewAmount(USD, 100))
	c := w.Clone()
	c.Withdraw(NewAmount(USD, 40))
	if w.Balance(USD).Float() != 100 {
		t.Fatal("clone must not share state")
	}
	if c.Balance(USD).Float() != 60 {
		t.Fatal("clone balance wrong")
	}
}

func TestAssetDefaults(t *testing.T) {
	a := New("AAPL", "")
	if a.Currency != USD {
		t.Fatalf("default currency USD, got %s", a.Currency)
	}
	if a.String() != "AAPL/USD" {
		t.Fatalf("asset string = %s", a.String())
	}
}
