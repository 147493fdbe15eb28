package printing

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/backend-pharma/internal/invoice"
)

// Renderer produces the printable A4 invoice document.
type Renderer struct {
	// CompanyName is printed in the header. Optional.
	CompanyName string
}

// Render draws one invoice and returns the PDF bytes.
func (r *Renderer) Render(inv invoice.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.Number, false)
	pdf.AddPage()

	if r.CompanyName != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, r.CompanyName, "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 13)
	title := "Purchase Invoice"
	if inv.Kind == invoice.KindSales {
		title = "Sales Invoice"
	}
	pdf.CellFormat(0, 8, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 6, "Invoice No: "+inv.Number, "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 6, "Date: "+inv.Date.Format("02-01-2006"), "", 1, "R", false, 0, "")
	pdf.CellFormat(95, 6, "Amount Mode: "+string(inv.Mode), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	r.itemTable(pdf, inv)
	r.totalsBlock(pdf, inv)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) itemTable(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	type column struct {
		title string
		width float64
		align string
	}
	columns := []column{
		{"#", 8, "C"},
		{"Product", 52, "L"},
		{"Batch", 18, "L"},
		{"Qty", 12, "R"},
		{"Free", 12, "R"},
		{"Rate", 18, "R"},
		{"Disc%", 14, "R"},
		{"Scheme%", 18, "R"},
		{"GST%", 14, "R"},
		{"Amount", 24, "R"},
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, line := range inv.Lines {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			line.ProductName,
			line.Batch,
			optional(line.Quantity),
			money(line.Free),
			optional(line.Rate),
			money(line.Discount),
			money(line.SchemePercent),
			money(line.GSTPercent),
			optional(line.Amount),
		}
		for j, c := range columns {
			pdf.CellFormat(c.width, 6, cells[j], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)
}

func (r *Renderer) totalsBlock(pdf *gofpdf.Fpdf, inv invoice.Invoice) {
	rows := []struct {
		label string
		value string
	}{
		{"Products", fmt.Sprintf("%d", inv.Totals.ProductCount)},
		{"Total Quantity", money(inv.Totals.TotalQuantity)},
		{"Subtotal", money(inv.Totals.Subtotal)},
		{"Discount", money(inv.Totals.DiscountAmount)},
		{"Taxable", money(inv.Totals.Taxable)},
		{"GST", money(inv.Totals.GSTAmount)},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(150, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, row.value, "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(150, 8, "Grand Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, money(inv.Totals.GrandTotal), "T", 1, "R", false, 0, "")
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return money(*v)
}
