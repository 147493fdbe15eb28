package invoice

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pharma/internal/common"
)

// PDFRenderer renders one invoice to PDF bytes for the synchronous
// download endpoint.
type PDFRenderer interface {
	Render(inv Invoice) ([]byte, error)
}

// Handler exposes invoice endpoints.
type Handler struct {
	service  *Service
	renderer PDFRenderer

	defaultPerPage int
	maxPerPage     int
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service        *Service
	Renderer       PDFRenderer
	DefaultPerPage int
	MaxPerPage     int
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		service:        cfg.Service,
		renderer:       cfg.Renderer,
		defaultPerPage: cfg.DefaultPerPage,
		maxPerPage:     cfg.MaxPerPage,
	}
	if h.defaultPerPage <= 0 {
		h.defaultPerPage = 20
	}
	if h.maxPerPage <= 0 {
		h.maxPerPage = 100
	}
	return h
}

// Preview handles POST /api/v1/invoices/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in PreviewInput
	if err := decodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.service.Preview(in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, out)
}

// Create handles POST /api/v1/invoices.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := decodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	inv, err := h.service.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, inv)
}

// List handles GET /api/v1/invoices.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.defaultPerPage, h.maxPerPage)
	items, total, err := h.service.List(r.Context(), perPage, common.Offset(page, perPage))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// Get handles GET /api/v1/invoices/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, inv)
}

// SetMode handles PATCH /api/v1/invoices/{id}/mode.
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in struct {
		Mode string `json:"amountMode"`
	}
	if err := decodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	inv, err := h.service.SetMode(r.Context(), id, in.Mode)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, inv)
}

// OverallDiscount handles POST /api/v1/invoices/{id}/overall-discount.
func (h *Handler) OverallDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in OverallDiscountInput
	if err := decodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	inv, err := h.service.ApplyOverallDiscount(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, inv)
}

// PDF handles GET /api/v1/invoices/{id}/pdf.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pdf renderer not configured", nil)
		return
	}
	id, err := pathID(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	data, err := h.renderer.Render(inv)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	filename := fmt.Sprintf("invoice-%s-%s.pdf", inv.Number, inv.Date.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

// Routes mounts all invoice endpoints on a subrouter.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/preview", h.Preview)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/pdf", h.PDF)
	r.Patch("/{id}/mode", h.SetMode)
	r.Post("/{id}/overall-discount", h.OverallDiscount)
	return r
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, common.BadRequest("invalid invoice id")
	}
	return id, nil
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.BadRequest("invalid request body")
	}
	return nil
}
