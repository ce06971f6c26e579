package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rentdesk/rentdesk/internal/platform/httpx"
	"github.com/rentdesk/rentdesk/internal/rbac"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

// Reader is the read surface the handler depends on.
type Reader interface {
	Stats(ctx context.Context, scope string) (*Stats, error)
	RecentOrders(ctx context.Context, scope string, limit int) ([]RecentOrder, error)
}

// Handler exposes dashboard endpoints.
type Handler struct {
	logger *slog.Logger
	reader Reader
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, reader Reader) *Handler {
	return &Handler{logger: logger, reader: reader}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stats", h.stats)
	r.Get("/recent-orders", h.recentOrders)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	user := rbac.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	stats, err := h.reader.Stats(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) recentOrders(w http.ResponseWriter, r *http.Request) {
	user := rbac.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	limit, err := httpx.QueryInt(r, "limit", defaultRecentLimit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	switch {
	case limit == 0:
		limit = defaultRecentLimit
	case limit > maxRecentLimit:
		limit = maxRecentLimit
	}
	orders, err := h.reader.RecentOrders(r.Context(), user.ID, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("dashboard request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.RespondError(w, err)
}
