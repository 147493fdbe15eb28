package billing

import "fmt"

// AmountMode selects what a line's displayed amount represents. It is
// bill-scoped: one invoice uses a single mode for every line item.
type AmountMode string

const (
	// ModeExclusive displays the raw rate times quantity; discount and GST
	// are accounted for at the bill level only.
	ModeExclusive AmountMode = "exclusive"
	// ModeInclusiveAll displays the discount-net amount, excluding GST.
	ModeInclusiveAll AmountMode = "inclusive_all"
	// ModeInclusiveGST displays the discount-net amount plus GST.
	ModeInclusiveGST AmountMode = "inclusive_gst"
)

// Valid reports whether the mode is one of the three supported values.
func (m AmountMode) Valid() bool {
	switch m {
	case ModeExclusive, ModeInclusiveAll, ModeInclusiveGST:
		return true
	}
	return false
}

// ParseAmountMode validates a mode arriving from the API boundary.
func ParseAmountMode(s string) (AmountMode, error) {
	m := AmountMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("billing: unknown amount mode %q", s)
	}
	return m, nil
}

// mustBeValid guards engine entry points against unknown modes. Silently
// defaulting would produce financially wrong totals with no indication,
// so an unknown mode inside the engine is treated as a programming error.
func mustBeValid(m AmountMode) {
	if !m.Valid() {
		panic(fmt.Sprintf("billing: unknown amount mode %q", string(m)))
	}
}
