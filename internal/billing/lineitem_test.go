package billing

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestRound2HalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.01},
		{2.675, 2.68},
		{9.0909, 9.09},
		{0, 0},
		{-1.005, -1.01},
		{1234.5649, 1234.56},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Fatalf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
	if got := Round2(math.NaN()); got != 0 {
		t.Fatalf("Round2(NaN) = %v, want 0", got)
	}
}

func TestSchemePercentRatio(t *testing.T) {
	// "10+1" distributes one free unit over eleven shipped, not ten.
	if got := SchemePercent(10, 1); got != 9.09 {
		t.Fatalf("expected 9.09 for a 10+1 scheme, got %v", got)
	}
	if got := SchemePercent(1, 1); got != 50 {
		t.Fatalf("expected 50 for a 1+1 scheme, got %v", got)
	}
	if got := SchemePercent(0, 1); got != 0 {
		t.Fatalf("expected 0 when buy quantity is absent, got %v", got)
	}
	if got := SchemePercent(10, 0); got != 0 {
		t.Fatalf("expected 0 when free quantity is absent, got %v", got)
	}
}

func TestCalculateAmountByMode(t *testing.T) {
	item := LineItem{
		Quantity:     fp(10),
		PurchaseRate: fp(100),
		Discount:     10,
		GSTPercent:   12,
	}
	cases := []struct {
		mode AmountMode
		want float64
	}{
		{ModeExclusive, 1000},
		{ModeInclusiveAll, 900},
		{ModeInclusiveGST, 1008},
	}
	for _, c := range cases {
		got := Calculate(item, c.mode)
		if got.Amount == nil {
			t.Fatalf("mode %s: expected amount, got nil", c.mode)
		}
		if *got.Amount != c.want {
			t.Fatalf("mode %s: expected amount %v, got %v", c.mode, c.want, *got.Amount)
		}
	}
}

func TestCalculateSchemeAddsToDiscount(t *testing.T) {
	// Explicit discount and scheme compose additively: 10% + 50% = 60%.
	item := LineItem{
		Quantity:     fp(10),
		PurchaseRate: fp(100),
		Discount:     10,
		SchemeQty:    1,
		SchemeFree:   1,
	}
	got := Calculate(item, ModeInclusiveAll)
	if got.SchemePercent != 50 {
		t.Fatalf("expected scheme percent 50, got %v", got.SchemePercent)
	}
	if got.Amount == nil || *got.Amount != 400 {
		t.Fatalf("expected amount 400, got %v", got.Amount)
	}
}

func TestCalculateIncompleteRowHasNoAmount(t *testing.T) {
	got := Calculate(LineItem{Quantity: fp(10)}, ModeExclusive)
	if got.Amount != nil {
		t.Fatalf("expected nil amount for a row without a rate, got %v", *got.Amount)
	}

	// A fully entered zero row computes to 0, which is not the same thing.
	got = Calculate(LineItem{Quantity: fp(0), PurchaseRate: fp(0)}, ModeExclusive)
	if got.Amount == nil {
		t.Fatal("expected a computed amount of 0 for a zero row, got nil")
	}
	if *got.Amount != 0 {
		t.Fatalf("expected amount 0, got %v", *got.Amount)
	}
}

func TestCalculateUnknownModePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown amount mode")
		}
	}()
	Calculate(LineItem{Quantity: fp(1), PurchaseRate: fp(1)}, AmountMode("net_net"))
}

func TestParseAmountMode(t *testing.T) {
	for _, valid := range []string{"exclusive", "inclusive_all", "inclusive_gst"} {
		if _, err := ParseAmountMode(valid); err != nil {
			t.Fatalf("expected %q to parse, got %v", valid, err)
		}
	}
	if _, err := ParseAmountMode("inclusive"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
