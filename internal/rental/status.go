package rental

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

func normalize(raw string) string {
	return fold.String(strings.TrimSpace(raw))
}

type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "draft"
	QuotationStatusRequested QuotationStatus = "requested"
	QuotationStatusReviewed  QuotationStatus = "reviewed"
	QuotationStatusAccepted  QuotationStatus = "accepted"
	QuotationStatusRejected  QuotationStatus = "rejected"
	QuotationStatusExpired   QuotationStatus = "expired"
	QuotationStatusCancelled QuotationStatus = "cancelled"
)

var quotationStatuses = map[string]QuotationStatus{
	"draft":     QuotationStatusDraft,
	"requested": QuotationStatusRequested,
	"reviewed":  QuotationStatusReviewed,
	"accepted":  QuotationStatusAccepted,
	"rejected":  QuotationStatusRejected,
	"expired":   QuotationStatusExpired,
	"cancelled": QuotationStatusCancelled,
	"canceled":  QuotationStatusCancelled,
}

// ParseQuotationStatus maps a backend status string, in any case, onto the
// closed status set.
func ParseQuotationStatus(raw string) (QuotationStatus, error) {
	if s, ok := quotationStatuses[normalize(raw)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: quotation status %q", ErrUnknownStatus, raw)
}

// Terminal reports whether no further transition is possible.
func (s QuotationStatus) Terminal() bool {
	switch s {
	case QuotationStatusAccepted, QuotationStatusRejected, QuotationStatusExpired, QuotationStatusCancelled:
		return true
	}
	return false
}

// Editable reports whether line prices may still change.
func (s QuotationStatus) Editable() bool {
	return s == QuotationStatusDraft || s == QuotationStatusRequested
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusReturned  OrderStatus = "returned"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderStatuses = map[string]OrderStatus{
	"pending":   OrderStatusPending,
	"confirmed": OrderStatusConfirmed,
	"picked_up": OrderStatusPickedUp,
	"picked up": OrderStatusPickedUp,
	"active":    OrderStatusActive,
	"returned":  OrderStatusReturned,
	"completed": OrderStatusCompleted,
	"cancelled": OrderStatusCancelled,
	"canceled":  OrderStatusCancelled,
}

// ParseOrderStatus maps a backend order status onto the closed set.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	if s, ok := orderStatuses[normalize(raw)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: order status %q", ErrUnknownStatus, raw)
}

// Terminal reports whether the order has left the rental lifecycle.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

var periodTypes = map[string]PeriodType{
	"hourly": PeriodHourly,
	"hour":   PeriodHourly,
	"daily":  PeriodDaily,
	"day":    PeriodDaily,
	"weekly": PeriodWeekly,
	"week":   PeriodWeekly,
	"custom": PeriodCustom,
}

// ParsePeriodType accepts both the noun ("day") and adjective ("daily") forms
// used by the backend.
func ParsePeriodType(raw string) (PeriodType, error) {
	if p, ok := periodTypes[normalize(raw)]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: rental period %q", ErrUnknownStatus, raw)
}
