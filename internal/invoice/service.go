package invoice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pharma/internal/billing"
	"github.com/noah-isme/backend-pharma/internal/common"
	"github.com/noah-isme/backend-pharma/internal/obs"
)

// DistributorDirectory is the lookup the service needs from the
// distributor module.
type DistributorDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// RenderQueue schedules background PDF rendering for a stored invoice.
type RenderQueue interface {
	EnqueueRender(ctx context.Context, invoiceID uuid.UUID) error
}

// LineInput is one raw product row as entered on the billing screen.
// Quantity and Rate are pointers so a row the operator has not finished
// stays distinct from one entered as zero.
type LineInput struct {
	ProductName string   `json:"productName" validate:"required"`
	Batch       string   `json:"batch"`
	Expiry      string   `json:"expiry"`
	Quantity    *float64 `json:"quantity" validate:"omitempty,gte=0"`
	Free        float64  `json:"free" validate:"gte=0"`
	Rate        *float64 `json:"rate" validate:"omitempty,gte=0"`
	Discount    float64  `json:"discount" validate:"gte=0,lte=100"`
	SchemeQty   float64  `json:"schemeQty" validate:"gte=0"`
	SchemeFree  float64  `json:"schemeFree" validate:"gte=0"`
	GSTPercent  float64  `json:"gstPer" validate:"gte=0,lte=100"`
}

// PreviewInput computes amounts and totals without persisting anything.
// An omitted amountMode falls back to the service default.
type PreviewInput struct {
	Mode  string      `json:"amountMode" validate:"omitempty,oneof=exclusive inclusive_all inclusive_gst"`
	Items []LineInput `json:"items" validate:"dive"`
}

// PreviewOutput carries recomputed lines plus the aggregated totals.
type PreviewOutput struct {
	Items  []Line             `json:"items"`
	Totals billing.BillTotals `json:"totals"`
}

// CreateInput is the payload for storing a new invoice.
type CreateInput struct {
	Kind          string      `json:"kind" validate:"required,oneof=purchase sales"`
	DistributorID string      `json:"distributorId" validate:"required,uuid"`
	Number        string      `json:"invoiceNumber" validate:"required"`
	Date          string      `json:"invoiceDate" validate:"required"`
	Mode          string      `json:"amountMode" validate:"omitempty,oneof=exclusive inclusive_all inclusive_gst"`
	Items         []LineInput `json:"items" validate:"min=1,dive"`
}

// OverallDiscountInput carries the transient bill-wide discount. Exactly
// one of the two fields is the source of truth; the other is derived
// from the subtotal.
type OverallDiscountInput struct {
	Percent *float64 `json:"per"`
	Value   *float64 `json:"value"`
}

// Service implements invoice operations on top of the billing engine.
type Service struct {
	Store        Store
	Distributors DistributorDirectory
	Renders      RenderQueue
	Validate     *validator.Validate
	Log          zerolog.Logger

	// DefaultMode applies when a payload omits amountMode. Zero value
	// falls back to exclusive.
	DefaultMode billing.AmountMode
}

func (s *Service) parseMode(raw string) (billing.AmountMode, error) {
	if raw == "" {
		if s.DefaultMode.Valid() {
			return s.DefaultMode, nil
		}
		return billing.ModeExclusive, nil
	}
	mode, err := billing.ParseAmountMode(raw)
	if err != nil {
		return "", common.BadRequest(err.Error())
	}
	return mode, nil
}

// Preview runs the calculation engine over raw rows without touching
// storage. The billing screen calls this after every field edit.
func (s *Service) Preview(in PreviewInput) (PreviewOutput, error) {
	if err := s.validate(in); err != nil {
		return PreviewOutput{}, err
	}
	mode, err := s.parseMode(in.Mode)
	if err != nil {
		return PreviewOutput{}, err
	}
	lines, totals := recompute(linesFromInput(in.Items), mode)
	s.observeCompute("preview", mode, len(lines))
	return PreviewOutput{Items: lines, Totals: totals}, nil
}

// Create computes and stores a new invoice, then schedules its PDF.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invoice, error) {
	if err := s.validate(in); err != nil {
		return Invoice{}, err
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return Invoice{}, common.BadRequest(err.Error())
	}
	mode, err := s.parseMode(in.Mode)
	if err != nil {
		return Invoice{}, err
	}
	distributorID, err := uuid.Parse(in.DistributorID)
	if err != nil {
		return Invoice{}, common.BadRequest("invalid distributor id")
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return Invoice{}, common.BadRequest("invoiceDate must be formatted as YYYY-MM-DD")
	}

	if s.Distributors != nil {
		ok, err := s.Distributors.Exists(ctx, distributorID)
		if err != nil {
			return Invoice{}, fmt.Errorf("check distributor: %w", err)
		}
		if !ok {
			return Invoice{}, common.BadRequest("distributor does not exist")
		}
	}

	lines, totals := recompute(linesFromInput(in.Items), mode)
	inv := Invoice{
		ID:            uuid.New(),
		Kind:          kind,
		DistributorID: distributorID,
		Number:        in.Number,
		Date:          date,
		Mode:          mode,
		Lines:         lines,
		Totals:        totals,
	}

	stored, err := s.Store.Create(ctx, inv)
	if err != nil {
		if errors.Is(err, ErrDuplicateNumber) {
			return Invoice{}, common.NewAppError("DUPLICATE", "invoice number already exists", http.StatusConflict, err)
		}
		s.observeCompute(string(kind), mode, 0)
		return Invoice{}, err
	}
	s.observeCompute(string(kind), mode, len(lines))

	if s.Renders != nil {
		if err := s.Renders.EnqueueRender(ctx, stored.ID); err != nil {
			// The invoice is already committed; rendering can be retried
			// from the detail endpoint.
			s.Log.Error().Err(err).Str("invoice_id", stored.ID.String()).Msg("enqueue pdf render")
		}
	}
	return stored, nil
}

// Get loads one invoice.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Invoice{}, common.NotFound("invoice not found")
		}
		return Invoice{}, err
	}
	return inv, nil
}

// List returns a page of invoices plus the total count.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Invoice, int, error) {
	return s.Store.List(ctx, limit, offset)
}

// SetMode switches the bill-scoped amount mode and recomputes every
// line's amount. No other stored field changes.
func (s *Service) SetMode(ctx context.Context, id uuid.UUID, modeRaw string) (Invoice, error) {
	mode, err := billing.ParseAmountMode(modeRaw)
	if err != nil {
		return Invoice{}, common.BadRequest(err.Error())
	}
	inv, err := s.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	inv.Mode = mode
	inv.Lines, inv.Totals = recompute(inv.Lines, mode)
	updated, err := s.Store.Update(ctx, inv)
	if err != nil {
		return Invoice{}, err
	}
	s.observeCompute(string(inv.Kind), mode, len(inv.Lines))
	return updated, nil
}

// ApplyOverallDiscount distributes a bill-wide discount across all lines
// as an additive increment to each line's explicit discount, then
// recomputes and persists. The transient input is consumed, not stored.
func (s *Service) ApplyOverallDiscount(ctx context.Context, id uuid.UUID, in OverallDiscountInput) (Invoice, error) {
	if (in.Percent == nil) == (in.Value == nil) {
		return Invoice{}, common.BadRequest("provide exactly one of per or value")
	}

	inv, err := s.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}

	percent := 0.0
	if in.Percent != nil {
		percent = *in.Percent
		if _, err := billing.PercentToValue(percent, inv.Totals.Subtotal); err != nil {
			return Invoice{}, s.emptyBillError(err)
		}
	} else {
		percent, err = billing.ValueToPercent(*in.Value, inv.Totals.Subtotal)
		if err != nil {
			return Invoice{}, s.emptyBillError(err)
		}
	}

	items := make([]billing.LineItem, len(inv.Lines))
	for i, line := range inv.Lines {
		items[i] = line.billingItem()
	}
	applied := billing.ApplyOverallDiscount(items, percent, inv.Mode)
	for i := range inv.Lines {
		inv.Lines[i] = inv.Lines[i].withDerived(applied[i])
	}
	inv.Totals = billing.Aggregate(applied, inv.Mode)

	updated, err := s.Store.Update(ctx, inv)
	if err != nil {
		s.observeOverall("error")
		return Invoice{}, err
	}
	s.observeOverall("ok")
	return updated, nil
}

func (s *Service) emptyBillError(err error) error {
	if errors.Is(err, billing.ErrEmptyBill) {
		s.observeOverall("empty_bill")
		return common.BadRequest("add at least one product first")
	}
	return err
}

func (s *Service) validate(v any) error {
	if s.Validate == nil {
		return nil
	}
	if err := s.Validate.Struct(v); err != nil {
		return common.NewAppError("VALIDATION", err.Error(), http.StatusUnprocessableEntity, err)
	}
	return nil
}

func (s *Service) observeCompute(kind string, mode billing.AmountMode, lineCount int) {
	if obs.InvoiceComputeTotal == nil {
		return
	}
	result := "ok"
	if lineCount == 0 {
		result = "error"
	}
	obs.InvoiceComputeTotal.WithLabelValues(kind, string(mode), result).Inc()
	if lineCount > 0 && obs.InvoiceLineItems != nil {
		obs.InvoiceLineItems.Observe(float64(lineCount))
	}
}

func (s *Service) observeOverall(result string) {
	if obs.OverallDiscountTotal != nil {
		obs.OverallDiscountTotal.WithLabelValues(result).Inc()
	}
}

func linesFromInput(items []LineInput) []Line {
	lines := make([]Line, len(items))
	for i, in := range items {
		lines[i] = Line{
			ID:          uuid.New(),
			ProductName: in.ProductName,
			Batch:       in.Batch,
			Expiry:      in.Expiry,
			Quantity:    in.Quantity,
			Free:        in.Free,
			Rate:        in.Rate,
			Discount:    in.Discount,
			SchemeQty:   in.SchemeQty,
			SchemeFree:  in.SchemeFree,
			GSTPercent:  in.GSTPercent,
		}
	}
	return lines
}
