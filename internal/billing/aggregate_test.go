package billing

import "testing"

func TestAggregateExclusiveTaxableNetsDiscount(t *testing.T) {
	// The displayed line amount in exclusive mode ignores the discount,
	// but the bill's taxable figure must not. Both behaviours are fixed.
	item := LineItem{
		Quantity:     fp(10),
		PurchaseRate: fp(100),
		Discount:     10,
		GSTPercent:   12,
	}
	calc := Calculate(item, ModeExclusive)
	if calc.Amount == nil || *calc.Amount != 1000 {
		t.Fatalf("expected displayed amount 1000, got %v", calc.Amount)
	}

	totals := Aggregate([]LineItem{item}, ModeExclusive)
	if totals.Subtotal != 1000 {
		t.Fatalf("expected subtotal 1000, got %v", totals.Subtotal)
	}
	if totals.DiscountAmount != 100 {
		t.Fatalf("expected discount 100, got %v", totals.DiscountAmount)
	}
	if totals.Taxable != 900 {
		t.Fatalf("expected taxable 900, got %v", totals.Taxable)
	}
	if totals.GSTAmount != 108 {
		t.Fatalf("expected GST 108, got %v", totals.GSTAmount)
	}
	if totals.GrandTotal != 1008 {
		t.Fatalf("expected grand total 1008, got %v", totals.GrandTotal)
	}
}

func TestAggregateInclusiveModesMatchOnTaxable(t *testing.T) {
	items := []LineItem{{
		Quantity:     fp(10),
		PurchaseRate: fp(100),
		Discount:     10,
		GSTPercent:   12,
	}}
	all := Aggregate(items, ModeInclusiveAll)
	gst := Aggregate(items, ModeInclusiveGST)
	if all.Taxable != 900 || gst.Taxable != 900 {
		t.Fatalf("expected taxable 900 in both inclusive modes, got %v and %v", all.Taxable, gst.Taxable)
	}
	if all.GrandTotal != gst.GrandTotal {
		t.Fatalf("grand totals diverged: %v vs %v", all.GrandTotal, gst.GrandTotal)
	}
}

func TestAggregateEmptyBill(t *testing.T) {
	totals := Aggregate(nil, ModeInclusiveAll)
	if totals != (BillTotals{}) {
		t.Fatalf("expected zeroed totals for an empty bill, got %+v", totals)
	}
}

func TestAggregateFreeUnits(t *testing.T) {
	// Free units count toward total quantity, never toward money.
	items := []LineItem{{
		Quantity:     fp(10),
		Free:         2,
		PurchaseRate: fp(100),
	}}
	totals := Aggregate(items, ModeExclusive)
	if totals.TotalQuantity != 12 {
		t.Fatalf("expected total quantity 12, got %v", totals.TotalQuantity)
	}
	if totals.Subtotal != 1000 {
		t.Fatalf("expected subtotal 1000, got %v", totals.Subtotal)
	}
	if totals.GrandTotal != 1000 {
		t.Fatalf("expected grand total 1000, got %v", totals.GrandTotal)
	}
}

func TestAggregateIncompleteRowCountsAsZero(t *testing.T) {
	items := []LineItem{
		{Quantity: fp(5)},
		{Quantity: fp(2), PurchaseRate: fp(12.5)},
	}
	totals := Aggregate(items, ModeExclusive)
	if totals.ProductCount != 2 {
		t.Fatalf("expected 2 products, got %d", totals.ProductCount)
	}
	if totals.Subtotal != 25 {
		t.Fatalf("expected subtotal 25, got %v", totals.Subtotal)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	items := []LineItem{
		{Quantity: fp(3), PurchaseRate: fp(33.33), Discount: 7.5, GSTPercent: 12, SchemeQty: 10, SchemeFree: 1},
		{Quantity: fp(7), PurchaseRate: fp(9.99), Discount: 2.25, GSTPercent: 5},
		{Quantity: fp(100), PurchaseRate: fp(0.07), GSTPercent: 18},
	}
	first := Aggregate(items, ModeInclusiveGST)
	for i := 0; i < 500; i++ {
		if got := Aggregate(items, ModeInclusiveGST); got != first {
			t.Fatalf("totals drifted on run %d: %+v vs %+v", i, got, first)
		}
	}
}

func TestAggregateUnknownModePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown amount mode")
		}
	}()
	Aggregate(nil, AmountMode("mrp"))
}
