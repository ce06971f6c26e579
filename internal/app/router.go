package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rentdesk/rentdesk/internal/dashboard"
	"github.com/rentdesk/rentdesk/internal/observability"
	"github.com/rentdesk/rentdesk/internal/orders"
	"github.com/rentdesk/rentdesk/internal/quotations"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	RBACMiddleware    rbac.Middleware
	QuotationsHandler *quotations.Handler
	OrdersHandler     *orders.Handler
	DashboardHandler  *dashboard.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with gateway defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		r.Use(params.RBACMiddleware.Authenticate)

		if params.QuotationsHandler != nil {
			r.Route("/quotations", func(r chi.Router) {
				params.QuotationsHandler.MountRoutes(r)
				if params.OrdersHandler != nil {
					params.OrdersHandler.MountConversion(r)
				}
			})
		}
		if params.OrdersHandler != nil {
			r.Route("/orders", params.OrdersHandler.MountRoutes)
		}
		if params.DashboardHandler != nil {
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		}
	})

	return r
}
