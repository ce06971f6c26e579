package backend

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/dashboard/stats",
		path:   "/dashboard/stats",
		out:    &stats,
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecentOrders returns the newest orders; limit <= 0 uses the backend default.
func (c *Client) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	var orders []RecentOrder
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/dashboard/recent-orders",
		path:   "/dashboard/recent-orders",
		query:  pageQuery(url.Values{}, 0, limit),
		out:    &orders,
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetInvoiceByOrder(ctx context.Context, orderID string) (*Invoice, error) {
	var invoice Invoice
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/invoices/order/{id}",
		path:   pathID("/invoices/order", orderID),
		out:    &invoice,
	})
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
