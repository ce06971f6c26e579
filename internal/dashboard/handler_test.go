package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/rbac"
	"github.com/rentdesk/rentdesk/internal/rental"
)

type stubReader struct {
	scope string
	limit int
	err   error
}

func (s *stubReader) Stats(ctx context.Context, scope string) (*Stats, error) {
	s.scope = scope
	if s.err != nil {
		return nil, s.err
	}
	return &Stats{DashboardStats: backend.DashboardStats{TotalOrders: 4}}, nil
}

func (s *stubReader) RecentOrders(ctx context.Context, scope string, limit int) ([]RecentOrder, error) {
	s.scope = scope
	s.limit = limit
	return []RecentOrder{}, s.err
}

func newTestRouter(reader Reader, user *rental.User) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if user != nil {
				req = req.WithContext(rbac.ContextWithUser(req.Context(), user))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/dashboard", NewHandler(discardLogger(), reader).MountRoutes)
	return r
}

func TestHandlerStatsScopedToCaller(t *testing.T) {
	reader := &stubReader{}
	router := newTestRouter(reader, &rental.User{ID: "u-7", Role: rental.RoleVendor})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-7", reader.scope)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.EqualValues(t, 4, body["total_orders"])
}

func TestHandlerRecentOrdersLimit(t *testing.T) {
	cases := []struct {
		query string
		want  int
		code  int
	}{
		{"", defaultRecentLimit, http.StatusOK},
		{"?limit=3", 3, http.StatusOK},
		{"?limit=500", maxRecentLimit, http.StatusOK},
		{"?limit=-1", 0, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		reader := &stubReader{}
		router := newTestRouter(reader, &rental.User{ID: "u-1", Role: rental.RoleAdmin})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/recent-orders"+tc.query, nil))
		assert.Equal(t, tc.code, rr.Code, tc.query)
		assert.Equal(t, tc.want, reader.limit, tc.query)
	}
}

func TestHandlerRequiresUser(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(&stubReader{}, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandlerBackendFailure(t *testing.T) {
	reader := &stubReader{err: &backend.APIError{Method: "GET", Path: "/dashboard/stats", Status: 503, Message: "down"}}
	rr := httptest.NewRecorder()
	newTestRouter(reader, &rental.User{ID: "u-1"}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
