package billing

// LineItem is one product row of an invoice. Quantity and PurchaseRate
// are pointers because a row the operator has not finished entering is
// different from one entered as zero: an incomplete row has no amount at
// all, a zero row has an amount of 0.00.
type LineItem struct {
	Quantity     *float64
	Free         float64
	PurchaseRate *float64
	// Discount is an explicit percentage entered by the operator.
	Discount float64
	// SchemeQty and SchemeFree encode a "buy N get M free" promotion.
	SchemeQty  float64
	SchemeFree float64
	// SchemePercent and Amount are derived; they are overwritten on every
	// recalculation and never edited directly.
	SchemePercent float64
	GSTPercent    float64
	Amount        *float64
}

// Calculation is the derived output for a single line item.
type Calculation struct {
	SchemePercent float64
	// Amount is nil when the row is not yet computable (quantity or rate
	// missing), which callers must keep distinct from a computed 0.
	Amount *float64
}

// SchemePercent converts a "buy buyQty get freeQty free" scheme into its
// equivalent discount percentage. The free units are spread over every
// unit shipped, so "10+1" is 1/11 (9.09%), not 10%.
func SchemePercent(buyQty, freeQty float64) float64 {
	if buyQty <= 0 || freeQty <= 0 {
		return 0
	}
	return Round2(freeQty / (buyQty + freeQty) * 100)
}

// Calculate derives the scheme percentage and display amount for one line
// item under the given mode. It is pure; writing the result back into the
// item is the caller's job.
//
// The explicit discount and the scheme discount compose additively, not
// multiplicatively. That matches how combined discounts are quoted in
// pharma distribution; do not "fix" it to compounding.
func Calculate(item LineItem, mode AmountMode) Calculation {
	mustBeValid(mode)

	scheme := SchemePercent(item.SchemeQty, item.SchemeFree)
	if item.Quantity == nil || item.PurchaseRate == nil {
		return Calculation{SchemePercent: scheme}
	}

	qty := *item.Quantity
	rate := *item.PurchaseRate
	discountPercent := item.Discount + scheme
	effectiveRate := Round2(rate - rate*discountPercent/100)

	// Free units never contribute to the amount; they only count toward
	// the bill's total quantity.
	var amount float64
	switch mode {
	case ModeExclusive:
		amount = Round2(rate * qty)
	case ModeInclusiveAll:
		amount = Round2(effectiveRate * qty)
	case ModeInclusiveGST:
		gst := Round2(effectiveRate * item.GSTPercent / 100)
		amount = Round2((effectiveRate + gst) * qty)
	}
	return Calculation{SchemePercent: scheme, Amount: &amount}
}

// Recalculate applies Calculate to the item and returns a copy with the
// derived fields written back.
func Recalculate(item LineItem, mode AmountMode) LineItem {
	c := Calculate(item, mode)
	item.SchemePercent = c.SchemePercent
	item.Amount = c.Amount
	return item
}

func numeric(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
