package printing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pharma/internal/invoice"
	"github.com/noah-isme/backend-pharma/internal/obs"
)

// TaskRenderInvoicePDF is the asynq task type for background rendering.
const TaskRenderInvoicePDF = "invoice:render_pdf"

type renderPayload struct {
	InvoiceID uuid.UUID `json:"invoiceId"`
}

// Enqueuer schedules render tasks on the shared Redis queue.
type Enqueuer struct {
	Client *asynq.Client
}

// EnqueueRender queues a background PDF render for a stored invoice.
// Tasks are deduplicated per invoice so rapid edits collapse into one
// render.
func (e *Enqueuer) EnqueueRender(ctx context.Context, invoiceID uuid.UUID) error {
	payload, err := json.Marshal(renderPayload{InvoiceID: invoiceID})
	if err != nil {
		return fmt.Errorf("encode render payload: %w", err)
	}
	task := asynq.NewTask(TaskRenderInvoicePDF, payload)
	_, err = e.Client.EnqueueContext(ctx, task,
		asynq.TaskID("render:"+invoiceID.String()),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue render: %w", err)
	}
	return nil
}

// Worker consumes render tasks and writes PDFs to the output directory.
type Worker struct {
	Store     invoice.Store
	Renderer  *Renderer
	OutputDir string
	Log       zerolog.Logger
}

// HandleRender processes one render task.
func (w *Worker) HandleRender(ctx context.Context, t *asynq.Task) error {
	var payload renderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads never succeed; do not retry.
		w.observe("error")
		return fmt.Errorf("decode render payload: %v: %w", err, asynq.SkipRetry)
	}

	inv, err := w.Store.Get(ctx, payload.InvoiceID)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			w.observe("missing")
			return fmt.Errorf("invoice %s gone: %w", payload.InvoiceID, asynq.SkipRetry)
		}
		w.observe("error")
		return fmt.Errorf("load invoice: %w", err)
	}

	data, err := w.Renderer.Render(inv)
	if err != nil {
		w.observe("error")
		return err
	}

	path := w.path(inv)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		w.observe("error")
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.observe("error")
		return fmt.Errorf("write pdf: %w", err)
	}

	w.observe("ok")
	w.Log.Info().
		Str("invoice_id", inv.ID.String()).
		Str("path", path).
		Int("bytes", len(data)).
		Msg("invoice pdf rendered")
	return nil
}

func (w *Worker) path(inv invoice.Invoice) string {
	name := fmt.Sprintf("%s.pdf", inv.ID)
	return filepath.Join(w.OutputDir, name)
}

func (w *Worker) observe(result string) {
	if obs.PDFRenderTotal != nil {
		obs.PDFRenderTotal.WithLabelValues(result).Inc()
	}
}
