package backend

import (
	"context"
	"net/http"

	"github.com/rentdesk/rentdesk/internal/rental"
)

// GetProduct resolves a product, chiefly for its vendor.
func (c *Client) GetProduct(ctx context.Context, id string) (*rental.Product, error) {
	var payload productPayload
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/products/{id}",
		path:   pathID("/products", id),
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	return &rental.Product{
		ID:         payload.ID,
		Name:       payload.Name,
		VendorID:   payload.VendorID,
		VendorName: payload.VendorName,
	}, nil
}

// CurrentUser returns the caller behind the active credential.
func (c *Client) CurrentUser(ctx context.Context) (*rental.User, error) {
	var payload userPayload
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/auth/me",
		path:   "/auth/me",
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	return payload.ToUser()
}
