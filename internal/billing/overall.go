package billing

import "errors"

// ErrEmptyBill is returned when an overall discount is converted or
// applied against a bill whose subtotal is zero.
var ErrEmptyBill = errors.New("billing: bill has no line items")

// PercentToValue converts a bill-wide discount percentage into an
// absolute value against the current subtotal.
func PercentToValue(percent, subtotal float64) (float64, error) {
	if subtotal == 0 {
		return 0, ErrEmptyBill
	}
	return Round2(subtotal * percent / 100), nil
}

// ValueToPercent converts a bill-wide absolute discount into a percentage
// against the current subtotal.
func ValueToPercent(value, subtotal float64) (float64, error) {
	if subtotal == 0 {
		return 0, ErrEmptyBill
	}
	return Round2(value / subtotal * 100), nil
}

// ApplyOverallDiscount distributes a bill-wide discount percentage across
// all line items by adding it to each item's existing explicit discount —
// never replacing or compounding — and recalculating the derived fields.
// Scheme inputs are untouched. The input slice is not modified; reversing
// an application means applying the negated percentage.
func ApplyOverallDiscount(items []LineItem, percent float64, mode AmountMode) []LineItem {
	mustBeValid(mode)

	out := make([]LineItem, len(items))
	for i, item := range items {
		item.Discount = Round2(item.Discount + percent)
		out[i] = Recalculate(item, mode)
	}
	return out
}
