package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rentdesk/rentdesk/internal/rental"
)

// IdempotencyHeader carries the caller-chosen key for order creation.
const IdempotencyHeader = "Idempotency-Key"

// CreateOrder creates a single-vendor order. The request is validated locally
// first so malformed payloads never reach the backend.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*rental.Order, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(IdempotencyHeader, idempotencyKey)
	}
	var payload orderPayload
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/orders",
		path:   "/orders",
		header: header,
		body:   req,
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	return payload.ToOrder()
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, id string) (*rental.Order, error) {
	var payload orderPayload
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/orders/{id}",
		path:   pathID("/orders", id),
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	return payload.ToOrder()
}

func (c *Client) ListOrders(ctx context.Context, params ListOrdersParams) ([]rental.Order, error) {
	q := url.Values{}
	if params.Status != "" {
		q.Set("status", string(params.Status))
	}
	if params.PaymentStatus != "" {
		q.Set("payment_status", params.PaymentStatus)
	}
	if params.ReturnStatus != "" {
		q.Set("return_status", params.ReturnStatus)
	}
	var payload []orderPayload
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/orders",
		path:   "/orders",
		query:  pageQuery(q, params.Skip, params.Limit),
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	out := make([]rental.Order, 0, len(payload))
	for _, p := range payload {
		order, err := p.ToOrder()
		if err != nil {
			return nil, err
		}
		out = append(out, *order)
	}
	return out, nil
}

// UpdateOrder forwards a vendor/admin progress update unchanged; the backend
// owns order transition rules.
func (c *Client) UpdateOrder(ctx context.Context, id string, update OrderUpdate) (*rental.Order, error) {
	if err := c.validate.Struct(update); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	var payload orderPayload
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/orders/{id}",
		path:   pathID("/orders", id),
		body:   update,
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	return payload.ToOrder()
}

// CancelOrder cancels an order. Orders are never deleted server-side.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/orders/{id}",
		path:   pathID("/orders", id),
	})
}
