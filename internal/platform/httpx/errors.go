// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/rental"
)

// Sentinel errors for the gateway layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// PartialConversionProblem extends the problem body with the orders that were
// created before the failure so the caller can avoid duplicates.
type PartialConversionProblem struct {
	ProblemDetail
	QuotationID  string   `json:"quotation_id"`
	Succeeded    []string `json:"succeeded_order_ids"`
	FailedVendor string   `json:"failed_vendor_id"`
}

// RespondError maps domain and backend errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var (
		partial    *rental.PartialConversionError
		invalid    *rental.InvalidStateError
		expired    *rental.ExpiredError
		resolution *rental.VendorResolutionError
		apiErr     *backend.APIError
		netErr     *backend.NetworkError
		fieldErrs  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &partial):
		JSON(w, http.StatusConflict, PartialConversionProblem{
			ProblemDetail: ProblemDetail{
				Title:  "Partial Conversion",
				Status: http.StatusConflict,
				Detail: partial.Error(),
			},
			QuotationID:  partial.QuotationID,
			Succeeded:    partial.Succeeded,
			FailedVendor: partial.FailedVendor,
		})
	case errors.As(err, &invalid):
		Problem(w, http.StatusConflict, "Invalid State", invalid.Error())
	case errors.Is(err, rental.ErrRequestInFlight):
		Problem(w, http.StatusConflict, "Request In Flight", err.Error())
	case errors.As(err, &expired):
		Problem(w, http.StatusGone, "Expired", expired.Error())
	case errors.Is(err, rental.ErrEmptyQuotation):
		Problem(w, http.StatusUnprocessableEntity, "Empty Quotation", err.Error())
	case errors.As(err, &fieldErrs), errors.Is(err, ErrValidation):
		Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.As(err, &resolution):
		Problem(w, http.StatusBadGateway, "Vendor Resolution Failed", resolution.Error())
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		Problem(w, status, http.StatusText(status), apiErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusGatewayTimeout, "Timeout", "")
	case errors.As(err, &netErr):
		Problem(w, http.StatusBadGateway, "Backend Unavailable", netErr.Error())
	case errors.Is(err, backend.ErrNoCredential), errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, rental.ErrUnknownStatus), errors.Is(err, rental.ErrUnknownRole):
		Problem(w, http.StatusBadGateway, "Unexpected Backend Value", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
