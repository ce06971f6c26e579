// Package dashboard serves the backend's dashboard reads through a shared
// Redis cache and decorates them for display.
package dashboard

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/rentdesk/rentdesk/internal/backend"
)

// Backend exposes the dashboard reads we rely on.
type Backend interface {
	DashboardStats(ctx context.Context) (*backend.DashboardStats, error)
	RecentOrders(ctx context.Context, limit int) ([]backend.RecentOrder, error)
}

// Stats is the backend payload plus display strings.
type Stats struct {
	backend.DashboardStats
	TotalRevenueDisplay string           `json:"total_revenue_display"`
	TotalOrdersDisplay  string           `json:"total_orders_display"`
	RevenueByMonth      []MonthlyRevenue `json:"revenue_by_month"`
}

type MonthlyRevenue struct {
	backend.RevenueByMonth
	RevenueDisplay string `json:"revenue_display"`
}

type RecentOrder struct {
	backend.RecentOrder
	TotalDisplay string `json:"total_display"`
}

// Service coordinates backend reads with the cache layer.
type Service struct {
	backend Backend
	cache   *Cache
	format  *Formatter
	logger  *slog.Logger
}

// NewService wires a Backend with a Cache helper. cache may be nil.
func NewService(b Backend, cache *Cache, format *Formatter, logger *slog.Logger) *Service {
	if format == nil {
		format = DefaultFormatter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, cache: cache, format: format, logger: logger}
}

// Stats returns the dashboard stats visible to scope, normally the caller's
// user id.
func (s *Service) Stats(ctx context.Context, scope string) (*Stats, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "stats", scope)
	if err != nil {
		return nil, err
	}
	var raw backend.DashboardStats
	if err := s.cache.FetchJSON(ctx, key, &raw, func(ctx context.Context) (any, error) {
		return s.backend.DashboardStats(ctx)
	}); err != nil {
		return nil, err
	}

	stats := &Stats{
		DashboardStats:      raw,
		TotalRevenueDisplay: s.format.Amount(raw.TotalRevenue),
		TotalOrdersDisplay:  s.format.Count(raw.TotalOrders),
		RevenueByMonth:      make([]MonthlyRevenue, 0, len(raw.RevenueByMonth)),
	}
	for _, month := range raw.RevenueByMonth {
		stats.RevenueByMonth = append(stats.RevenueByMonth, MonthlyRevenue{
			RevenueByMonth: month,
			RevenueDisplay: s.format.Amount(month.Revenue),
		})
	}
	return stats, nil
}

// RecentOrders returns the newest orders visible to scope.
func (s *Service) RecentOrders(ctx context.Context, scope string, limit int) ([]RecentOrder, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "recent", scope, strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	var raw []backend.RecentOrder
	if err := s.cache.FetchJSON(ctx, key, &raw, func(ctx context.Context) (any, error) {
		return s.backend.RecentOrders(ctx, limit)
	}); err != nil {
		return nil, err
	}
	out := make([]RecentOrder, 0, len(raw))
	for _, o := range raw {
		out = append(out, RecentOrder{RecentOrder: o, TotalDisplay: s.format.Amount(o.TotalAmount)})
	}
	return out, nil
}

// Invalidate drops every cached dashboard entry.
func (s *Service) Invalidate(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump", slog.Any("error", err))
		return err
	}
	return nil
}
