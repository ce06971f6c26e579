package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/rental"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		title  string
	}{
		{"invalid state", &rental.InvalidStateError{Entity: "quotation", ID: "q1", Status: "accepted", Action: "cancel"}, http.StatusConflict, "Invalid State"},
		{"in flight", fmt.Errorf("submit: %w", rental.ErrRequestInFlight), http.StatusConflict, "Request In Flight"},
		{"expired", &rental.ExpiredError{QuotationID: "q1"}, http.StatusGone, "Expired"},
		{"empty", rental.ErrEmptyQuotation, http.StatusUnprocessableEntity, "Empty Quotation"},
		{"validation", fmt.Errorf("%w: bad body", ErrValidation), http.StatusUnprocessableEntity, "Validation Failed"},
		{"vendor resolution", &rental.VendorResolutionError{LineID: "l1", ProductID: "p1", Err: errors.New("boom")}, http.StatusBadGateway, "Vendor Resolution Failed"},
		{"backend 404", &backend.APIError{Method: "GET", Path: "/orders/x", Status: 404, Message: "Order not found"}, http.StatusNotFound, "Not Found"},
		{"backend 403", &backend.APIError{Status: 403, Message: "nope"}, http.StatusForbidden, "Forbidden"},
		{"backend 500", &backend.APIError{Status: 503, Message: "down"}, http.StatusBadGateway, "Bad Gateway"},
		{"timeout", &backend.NetworkError{Method: "GET", Path: "/x", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "Timeout"},
		{"network", &backend.NetworkError{Method: "GET", Path: "/x", Err: errors.New("connection refused")}, http.StatusBadGateway, "Backend Unavailable"},
		{"no credential", backend.ErrNoCredential, http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "Forbidden"},
		{"not found", ErrNotFound, http.StatusNotFound, "Not Found"},
		{"unknown status", fmt.Errorf("%w: shipped", rental.ErrUnknownStatus), http.StatusBadGateway, "Unexpected Backend Value"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			require.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tc.title, problem.Title)
			assert.Equal(t, tc.status, problem.Status)
		})
	}
}

func TestRespondErrorBackendMessagePassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("load: %w", &backend.APIError{Status: 400, Message: "Quotation cannot be modified"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Quotation cannot be modified", problem.Detail)
}

func TestRespondErrorPartialConversion(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, &rental.PartialConversionError{
		QuotationID:  "q1",
		Succeeded:    []string{"o1", "o2"},
		FailedVendor: "v3",
		Err:          errors.New("backend 500"),
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body PartialConversionProblem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Partial Conversion", body.Title)
	assert.Equal(t, []string{"o1", "o2"}, body.Succeeded)
	assert.Equal(t, "v3", body.FailedVendor)
	assert.Equal(t, "q1", body.QuotationID)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&skip=-1&page=x", nil)

	v, err := QueryInt(req, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	v, err = QueryInt(req, "missing", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = QueryInt(req, "skip", 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = QueryInt(req, "page", 0)
	assert.ErrorIs(t, err, ErrValidation)
}
