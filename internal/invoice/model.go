package invoice

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pharma/internal/billing"
)

// Kind distinguishes purchase bills (distributor to pharmacy) from sales
// bills. Both run through the same calculation engine.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindSales    Kind = "sales"
)

// ParseKind validates an invoice kind arriving from the API boundary.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPurchase, KindSales:
		return Kind(s), nil
	}
	return "", fmt.Errorf("invoice: unknown kind %q", s)
}

// Line is one persisted product row. The monetary fields mirror
// billing.LineItem; ProductName, Batch and Expiry are carried for the
// printed bill and are not part of any calculation.
type Line struct {
	ID          uuid.UUID `json:"id"`
	ProductName string    `json:"productName"`
	Batch       string    `json:"batch,omitempty"`
	Expiry      string    `json:"expiry,omitempty"`

	Quantity      *float64 `json:"quantity"`
	Free          float64  `json:"free"`
	Rate          *float64 `json:"rate"`
	Discount      float64  `json:"discount"`
	SchemeQty     float64  `json:"schemeQty"`
	SchemeFree    float64  `json:"schemeFree"`
	SchemePercent float64  `json:"schemePercent"`
	GSTPercent    float64  `json:"gstPer"`
	Amount        *float64 `json:"amount"`
}

// Invoice is a stored bill: an ordered line collection, the bill-scoped
// amount mode, and the totals computed at the last write.
type Invoice struct {
	ID            uuid.UUID          `json:"id"`
	Kind          Kind               `json:"kind"`
	DistributorID uuid.UUID          `json:"distributorId"`
	Number        string             `json:"invoiceNumber"`
	Date          time.Time          `json:"invoiceDate"`
	Mode          billing.AmountMode `json:"amountMode"`
	Lines         []Line             `json:"items"`
	Totals        billing.BillTotals `json:"totals"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func (l Line) billingItem() billing.LineItem {
	return billing.LineItem{
		Quantity:      l.Quantity,
		Free:          l.Free,
		PurchaseRate:  l.Rate,
		Discount:      l.Discount,
		SchemeQty:     l.SchemeQty,
		SchemeFree:    l.SchemeFree,
		SchemePercent: l.SchemePercent,
		GSTPercent:    l.GSTPercent,
		Amount:        l.Amount,
	}
}

func (l Line) withDerived(item billing.LineItem) Line {
	l.Discount = item.Discount
	l.SchemePercent = item.SchemePercent
	l.Amount = item.Amount
	return l
}

// recompute rederives every line's scheme percentage and amount under the
// given mode and aggregates the bill totals. Lines are copied, never
// mutated in place.
func recompute(lines []Line, mode billing.AmountMode) ([]Line, billing.BillTotals) {
	out := make([]Line, len(lines))
	items := make([]billing.LineItem, len(lines))
	for i, line := range lines {
		item := billing.Recalculate(line.billingItem(), mode)
		out[i] = line.withDerived(item)
		items[i] = item
	}
	return out, billing.Aggregate(items, mode)
}
