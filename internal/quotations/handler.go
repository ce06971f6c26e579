package quotations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/rental"
)

// Lifecycle is the engine surface the handler drives.
type Lifecycle interface {
	Get(ctx context.Context, id string) (*rental.Quotation, error)
	List(ctx context.Context, status rental.QuotationStatus, skip, limit int) ([]rental.Quotation, error)
	Submit(ctx context.Context, id string) (*rental.Quotation, error)
	SubmitReview(ctx context.Context, id string, edits map[string]float64) (*rental.Quotation, error)
	RespondToReview(ctx context.Context, id string, accept bool) (*rental.Quotation, error)
	Cancel(ctx context.Context, id string) (*rental.Quotation, error)
}

// Handler exposes quotation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  Lifecycle
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service Lifecycle, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		rbac:     rbac,
		validate: validator.New(),
	}
}

// MountRoutes registers quotation routes. Callers are expected to have been
// authenticated upstream.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Post("/{id}/preview", h.preview)
	r.Post("/{id}/cancel", h.cancel)
	r.With(h.rbac.RequirePermission(rental.Role.CanRequest)).Post("/{id}/submit", h.submit)
	r.With(h.rbac.RequirePermission(rental.Role.CanRespond)).Post("/{id}/respond", h.respond)
	r.With(h.rbac.RequirePermission(rental.Role.CanReview)).Post("/{id}/review", h.review)
}

type quotationView struct {
	*rental.Quotation
	// LinesTotal is the pre-tax sum of line totals.
	LinesTotal float64 `json:"lines_total"`
}

func newQuotationView(q *rental.Quotation) quotationView {
	return quotationView{Quotation: q, LinesTotal: rental.ComputeTotal(q.Lines, nil)}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var status rental.QuotationStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, err := rental.ParseQuotationStatus(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
			return
		}
		status = parsed
	}
	skip, err := httpx.QueryInt(r, "skip", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", 50)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	quotes, err := h.service.List(r.Context(), status, skip, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	views := make([]quotationView, 0, len(quotes))
	for i := range quotes {
		views = append(views, newQuotationView(&quotes[i]))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuotationView(q))
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	preview, err := PreviewReview(q, req.Edits())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuotationView(preview))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	h.respondQuotation(w, r, q, err)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.service.SubmitReview(r.Context(), chi.URLParam(r, "id"), req.Edits())
	h.respondQuotation(w, r, q, err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.service.RespondToReview(r.Context(), chi.URLParam(r, "id"), req.Accept())
	h.respondQuotation(w, r, q, err)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"))
	h.respondQuotation(w, r, q, err)
}

func (h *Handler) respondQuotation(w http.ResponseWriter, r *http.Request, q *rental.Quotation, err error) {
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newQuotationView(q))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		h.respondError(w, r, err)
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		h.respondError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnknownLine), errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrUnpricedLine):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Review", err.Error())
		return
	case errors.Is(err, ErrNotYetDue):
		httpx.Problem(w, http.StatusConflict, "Not Yet Due", err.Error())
		return
	}
	h.logger.Warn("quotation request failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	httpx.RespondError(w, err)
}
