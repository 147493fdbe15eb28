package billing

// BillTotals is a pure projection over a line-item collection. It has no
// independent lifetime; callers recompute it whenever the collection or
// the amount mode changes.
type BillTotals struct {
	ProductCount   int     `json:"productCount"`
	TotalQuantity  float64 `json:"totalQuantity"`
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	Taxable        float64 `json:"taxable"`
	GSTAmount      float64 `json:"gstAmount"`
	GrandTotal     float64 `json:"grandTotal"`
}

// Aggregate folds an ordered list of line items into bill totals under
// the given mode. It recomputes every per-item figure from the raw fields
// rather than trusting the cached Amount, so subtotal, discount, taxable
// and GST stay mutually consistent even if a displayed amount is stale.
//
// In exclusive mode the bill-level taxable figure nets out the discount
// (base minus discount) even though the displayed line amount does not.
// The operator-facing amount is the naive figure; the compliance figures
// are always discount-correct. This asymmetry is intentional — keep it.
//
// An empty list returns zeroed totals. An unknown mode panics.
func Aggregate(items []LineItem, mode AmountMode) BillTotals {
	mustBeValid(mode)

	var t BillTotals
	for _, item := range items {
		qty := numeric(item.Quantity)
		rate := numeric(item.PurchaseRate)
		scheme := SchemePercent(item.SchemeQty, item.SchemeFree)

		baseAmount := Round2(qty * rate)
		discountPercent := item.Discount + scheme
		discountAmount := Round2(baseAmount * discountPercent / 100)
		effectiveRate := Round2(rate - rate*discountPercent/100)

		var taxable float64
		switch mode {
		case ModeExclusive:
			taxable = Round2(baseAmount - discountAmount)
		case ModeInclusiveAll, ModeInclusiveGST:
			taxable = Round2(effectiveRate * qty)
		}
		gstAmount := Round2(taxable * item.GSTPercent / 100)

		// Round after every addition so repeated aggregation of the same
		// list is idempotent and totals never drift.
		t.ProductCount++
		t.TotalQuantity = Round2(t.TotalQuantity + qty + item.Free)
		t.Subtotal = Round2(t.Subtotal + baseAmount)
		t.DiscountAmount = Round2(t.DiscountAmount + discountAmount)
		t.Taxable = Round2(t.Taxable + taxable)
		t.GSTAmount = Round2(t.GSTAmount + gstAmount)
		t.GrandTotal = Round2(t.GrandTotal + taxable + gstAmount)
	}
	return t
}
