package printing

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pharma/internal/billing"
	"github.com/noah-isme/backend-pharma/internal/invoice"
)

func fp(v float64) *float64 { return &v }

func sampleInvoice() invoice.Invoice {
	return invoice.Invoice{
		ID:            uuid.New(),
		Kind:          invoice.KindPurchase,
		DistributorID: uuid.New(),
		Number:        "INV-042",
		Date:          time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Mode:          billing.ModeExclusive,
		Lines: []invoice.Line{
			{
				ID:          uuid.New(),
				ProductName: "Paracetamol 500mg",
				Batch:       "B123",
				Quantity:    fp(10),
				Rate:        fp(100),
				Discount:    10,
				GSTPercent:  12,
				Amount:      fp(1000),
			},
			{
				ID:          uuid.New(),
				ProductName: "Unpriced row",
			},
		},
		Totals: billing.BillTotals{
			ProductCount:   2,
			TotalQuantity:  10,
			Subtotal:       1000,
			DiscountAmount: 100,
			Taxable:        900,
			GSTAmount:      108,
			GrandTotal:     1008,
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r := &Renderer{CompanyName: "City Pharma"}

	data, err := r.Render(sampleInvoice())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a pdf, starts with %q", data[:min(8, len(data))])
	}
	if len(data) < 500 {
		t.Fatalf("pdf suspiciously small: %d bytes", len(data))
	}
}

type stubStore struct {
	inv invoice.Invoice
	err error
}

func (s stubStore) Create(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	return inv, nil
}

func (s stubStore) Get(context.Context, uuid.UUID) (invoice.Invoice, error) {
	return s.inv, s.err
}

func (s stubStore) List(context.Context, int, int) ([]invoice.Invoice, int, error) {
	return nil, 0, nil
}

func (s stubStore) Update(_ context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	return inv, nil
}

func TestWorkerWritesFile(t *testing.T) {
	inv := sampleInvoice()
	dir := t.TempDir()
	w := &Worker{
		Store:     stubStore{inv: inv},
		Renderer:  &Renderer{},
		OutputDir: dir,
		Log:       zerolog.Nop(),
	}

	task := asynq.NewTask(TaskRenderInvoicePDF, []byte(`{"invoiceId":"`+inv.ID.String()+`"}`))
	if err := w.HandleRender(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, inv.ID.String()+".pdf"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestWorkerSkipsRetryForMissingInvoice(t *testing.T) {
	w := &Worker{
		Store:     stubStore{err: invoice.ErrNotFound},
		Renderer:  &Renderer{},
		OutputDir: t.TempDir(),
		Log:       zerolog.Nop(),
	}

	task := asynq.NewTask(TaskRenderInvoicePDF, []byte(`{"invoiceId":"`+uuid.NewString()+`"}`))
	err := w.HandleRender(context.Background(), task)
	if err == nil {
		t.Fatalf("expected error for missing invoice")
	}
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestWorkerSkipsRetryForBadPayload(t *testing.T) {
	w := &Worker{
		Store:     stubStore{},
		Renderer:  &Renderer{},
		OutputDir: t.TempDir(),
		Log:       zerolog.Nop(),
	}

	task := asynq.NewTask(TaskRenderInvoicePDF, []byte("{"))
	err := w.HandleRender(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
