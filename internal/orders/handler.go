package orders

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/rental"
)

// OrderBackend is the pass-through surface for order reads and updates.
type OrderBackend interface {
	GetOrder(ctx context.Context, id string) (*rental.Order, error)
	ListOrders(ctx context.Context, params backend.ListOrdersParams) ([]rental.Order, error)
	UpdateOrder(ctx context.Context, id string, update backend.OrderUpdate) (*rental.Order, error)
	CancelOrder(ctx context.Context, id string) error
	GetInvoiceByOrder(ctx context.Context, orderID string) (*backend.Invoice, error)
}

// QuotationConverter converts an accepted quotation.
type QuotationConverter interface {
	Convert(ctx context.Context, quotationID string) (*ConversionResult, error)
}

// Handler exposes order endpoints and the quotation conversion endpoint.
type Handler struct {
	logger    *slog.Logger
	backend   OrderBackend
	converter QuotationConverter
	rbac      rbac.Middleware
	validate  *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, b OrderBackend, converter QuotationConverter, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		backend:   b,
		converter: converter,
		rbac:      rbac,
		validate:  validator.New(),
	}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Get("/{id}/timeline", h.timeline)
	r.Get("/{id}/invoice", h.invoice)
	r.Post("/{id}/cancel", h.cancel)
	r.With(h.rbac.RequirePermission(rental.Role.CanManageOrders)).Put("/{id}", h.update)
}

// MountConversion registers the conversion endpoint on a quotations router.
func (h *Handler) MountConversion(r chi.Router) {
	r.With(h.rbac.RequirePermission(rental.Role.CanRequest)).Post("/{id}/convert", h.convert)
}

// UpdateRequest is a vendor/admin progress update. Dates accept the backend's
// timestamp formats.
type UpdateRequest struct {
	Status        *string  `json:"status,omitempty"`
	PickupDate    *string  `json:"pickup_date,omitempty"`
	ReturnDate    *string  `json:"return_date,omitempty"`
	LateReturnFee *float64 `json:"late_return_fee,omitempty" validate:"omitempty,gte=0"`
	PaidAmount    *float64 `json:"paid_amount,omitempty" validate:"omitempty,gte=0"`
}

func (req UpdateRequest) toBackend() (backend.OrderUpdate, error) {
	update := backend.OrderUpdate{LateReturnFee: req.LateReturnFee, PaidAmount: req.PaidAmount}
	if req.Status != nil {
		status, err := rental.ParseOrderStatus(*req.Status)
		if err != nil {
			return update, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		update.Status = &status
	}
	for _, d := range []struct {
		raw  *string
		dest **string
		name string
	}{
		{req.PickupDate, &update.PickupDate, "pickup_date"},
		{req.ReturnDate, &update.ReturnDate, "return_date"},
	} {
		if d.raw == nil {
			continue
		}
		t, err := backend.ParseTime(*d.raw)
		if err != nil {
			return update, fmt.Errorf("%w: %s: %v", httpx.ErrValidation, d.name, err)
		}
		formatted := backend.FormatTime(t)
		*d.dest = &formatted
	}
	return update, nil
}

type orderView struct {
	*rental.Order
	BalanceDue float64 `json:"balance_due"`
}

func newOrderView(o *rental.Order) orderView {
	return orderView{Order: o, BalanceDue: o.BalanceDue()}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := backend.ListOrdersParams{
		PaymentStatus: strings.TrimSpace(query.Get("payment_status")),
		ReturnStatus:  strings.TrimSpace(query.Get("return_status")),
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := rental.ParseOrderStatus(raw)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
			return
		}
		params.Status = status
	}
	var err error
	if params.Skip, err = httpx.QueryInt(r, "skip", 0); err != nil {
		h.respondError(w, r, err)
		return
	}
	if params.Limit, err = httpx.QueryInt(r, "limit", 50); err != nil {
		h.respondError(w, r, err)
		return
	}
	orders, err := h.backend.ListOrders(r.Context(), params)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	order, err := h.backend.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newOrderView(order))
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	order, err := h.backend.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, BuildTimeline(order))
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.backend.GetInvoiceByOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invoice)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, r, err)
		return
	}
	update, err := req.toBackend()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	order, err := h.backend.UpdateOrder(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newOrderView(order))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.CancelOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	result, err := h.converter.Convert(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("order request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.RespondError(w, err)
}
