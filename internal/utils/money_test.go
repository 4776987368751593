package utils

import "testing"

func TestDepositCharge(t *testing.T) {
	cases := []struct {
		total int64
		pct   int
		want  int64
	}{
		{10000, 25, 2500},
		{9999, 50, 5000},
		{9999, 25, 2500},
		{100000, 100, 100000},
		{1, 25, 0}, // rounds to 0, rejected below
	}
	for _, c := range cases {
		got, err := DepositCharge(c.total, c.pct)
		if c.want == 0 {
			if err == nil {
				t.Fatalf("DepositCharge(%d, %d): expected error for zero charge", c.total, c.pct)
			}
			continue
		}
		if err != nil {
			t.Fatalf("DepositCharge(%d, %d): %v", c.total, c.pct, err)
		}
		if got != c.want {
			t.Fatalf("DepositCharge(%d, %d) = %d, want %d", c.total, c.pct, got, c.want)
		}
	}
}

func TestDepositChargeRejectsUnknownChoice(t *testing.T) {
	if _, err := DepositCharge(10000, 30); err == nil {
		t.Fatalf("expected error for 30%% choice")
	}
	if _, err := DepositCharge(10000, 0); err == nil {
		t.Fatalf("expected error for 0%% choice")
	}
}

func TestBalanceCharge(t *testing.T) {
	if got, err := BalanceCharge(75000); err != nil || got != 75000 {
		t.Fatalf("BalanceCharge(75000) = %d, %v", got, err)
	}
	if _, err := BalanceCharge(0); err == nil {
		t.Fatalf("expected error for zero remaining")
	}
}

func TestFormatRupiah(t *testing.T) {
	cases := map[int64]string{
		0:        "Rp0",
		999:      "Rp999",
		1000:     "Rp1.000",
		1500000:  "Rp1.500.000",
		-250000:  "-Rp250.000",
	}
	for amount, want := range cases {
		if got := FormatRupiah(amount); got != want {
			t.Fatalf("FormatRupiah(%d) = %q, want %q", amount, got, want)
		}
	}
}
