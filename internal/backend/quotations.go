package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rentdesk/rentdesk/internal/rental"
)

// GetQuotation fetches one quotation.
func (c *Client) GetQuotation(ctx context.Context, id string) (*rental.Quotation, error) {
	var payload quotationPayload
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/quotations/{id}",
		path:   pathID("/quotations", id),
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	return payload.ToQuotation()
}

// ListQuotations lists quotations visible to the caller.
func (c *Client) ListQuotations(ctx context.Context, params ListQuotationsParams) ([]rental.Quotation, error) {
	q := url.Values{}
	if params.Status != "" {
		q.Set("status", string(params.Status))
	}
	var payload []quotationPayload
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/quotations",
		path:   "/quotations",
		query:  pageQuery(q, params.Skip, params.Limit),
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	out := make([]rental.Quotation, 0, len(payload))
	for _, p := range payload {
		quote, err := p.ToQuotation()
		if err != nil {
			return nil, err
		}
		out = append(out, *quote)
	}
	return out, nil
}

// UpdateQuotation posts a status and/or line-price change and returns the
// backend's view of the quotation afterwards.
func (c *Client) UpdateQuotation(ctx context.Context, id string, update QuotationUpdate) (*rental.Quotation, error) {
	var payload quotationPayload
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/quotations/{id}",
		path:   pathID("/quotations", id),
		body:   update,
		out:    &payload,
	})
	if err != nil {
		return nil, err
	}
	return payload.ToQuotation()
}
