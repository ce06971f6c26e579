package rental

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyQuotation indicates an operation that needs lines ran on a lineless quotation.
	ErrEmptyQuotation = errors.New("quotation has no lines")
	// ErrRequestInFlight indicates another mutating request for the entity is running.
	ErrRequestInFlight = errors.New("request already in flight")
	// ErrUnknownStatus indicates a status or period string outside the closed set.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrUnknownRole indicates a role string outside the closed set.
	ErrUnknownRole = errors.New("unknown role")
)

// InvalidStateError indicates an action the current status forbids.
type InvalidStateError struct {
	Entity string
	ID     string
	Status string
	Action string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s %s: cannot %s in status %s", e.Entity, e.ID, e.Action, e.Status)
}

// ExpiredError indicates acceptance past the validity deadline.
type ExpiredError struct {
	QuotationID string
	ValidUntil  time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("quotation %s expired at %s", e.QuotationID, e.ValidUntil.Format(time.RFC3339))
}

// VendorResolutionError indicates a product to vendor lookup failed during
// conversion. No order has been created when it is returned.
type VendorResolutionError struct {
	LineID    string
	ProductID string
	Err       error
}

func (e *VendorResolutionError) Error() string {
	return fmt.Sprintf("resolve vendor for product %s (line %s): %v", e.ProductID, e.LineID, e.Err)
}

func (e *VendorResolutionError) Unwrap() error {
	return e.Err
}

// PartialConversionError indicates some vendor orders were created before a
// later vendor group failed. Succeeded holds the ids of the orders that exist.
type PartialConversionError struct {
	QuotationID  string
	Succeeded    []string
	FailedVendor string
	Err          error
}

func (e *PartialConversionError) Error() string {
	return fmt.Sprintf("quotation %s partially converted: created [%s], vendor %s failed: %v",
		e.QuotationID, strings.Join(e.Succeeded, ", "), e.FailedVendor, e.Err)
}

func (e *PartialConversionError) Unwrap() error {
	return e.Err
}
