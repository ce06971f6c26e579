// Package rental holds the marketplace domain shared by the lifecycle engine,
// the conversion logic and the backend client.
package rental

import (
	"time"
)

// ============================================================================
// RENTAL PERIOD
// ============================================================================

type PeriodType string

const (
	PeriodHourly PeriodType = "hourly"
	PeriodDaily  PeriodType = "daily"
	PeriodWeekly PeriodType = "weekly"
	PeriodCustom PeriodType = "custom"
)

// Wire returns the noun form the backend stores ("day", "hour", "week").
func (p PeriodType) Wire() string {
	switch p {
	case PeriodHourly:
		return "hour"
	case PeriodDaily:
		return "day"
	case PeriodWeekly:
		return "week"
	}
	return string(p)
}

// RentalPeriod is a line's billing granularity and date range. Stored keeps
// the type string exactly as the backend holds it; Start and End are zero for
// undated lines.
type RentalPeriod struct {
	Type   PeriodType `json:"type"`
	Stored string     `json:"stored_type,omitempty"`
	Start  time.Time  `json:"start_date"`
	End    time.Time  `json:"end_date"`
}

// WireType is the type string to send back to the backend.
func (p RentalPeriod) WireType() string {
	if p.Stored != "" {
		return p.Stored
	}
	return p.Type.Wire()
}

// ============================================================================
// QUOTATION
// ============================================================================

type Quotation struct {
	ID           string          `json:"id"`
	Number       string          `json:"quotation_number"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Status       QuotationStatus `json:"status"`
	Lines        []QuotationLine `json:"lines"`
	Subtotal     float64         `json:"subtotal"`
	TaxRate      float64         `json:"tax_rate"`
	TaxAmount    float64         `json:"tax_amount"`
	TotalAmount  float64         `json:"total_amount"`
	ValidUntil   *time.Time      `json:"valid_until,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type QuotationLine struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	Quantity    int          `json:"quantity"`
	Period      RentalPeriod `json:"rental_period"`
	UnitPrice   float64      `json:"unit_price"`
	TotalPrice  float64      `json:"total_price"`
}

// Expired reports whether the validity deadline has passed at now.
// Quotations without a deadline never expire.
func (q *Quotation) Expired(now time.Time) bool {
	return q.ValidUntil != nil && now.After(*q.ValidUntil)
}

// Line returns the line with the given id.
func (q *Quotation) Line(id string) (*QuotationLine, bool) {
	for i := range q.Lines {
		if q.Lines[i].ID == id {
			return &q.Lines[i], true
		}
	}
	return nil, false
}

// Recalculate derives every line total from its unit price and refreshes
// subtotal and total. Tax is left as provided by the backend.
func (q *Quotation) Recalculate() {
	for i := range q.Lines {
		q.Lines[i].TotalPrice = LineTotal(q.Lines[i].UnitPrice, q.Lines[i].Quantity)
	}
	q.Subtotal = ComputeTotal(q.Lines, nil)
	q.TotalAmount = q.Subtotal + q.TaxAmount
}

// Clone returns a deep copy so callers can preview edits without touching the
// committed quotation.
func (q *Quotation) Clone() *Quotation {
	if q == nil {
		return nil
	}
	out := *q
	out.Lines = append([]QuotationLine(nil), q.Lines...)
	return &out
}

// ============================================================================
// ORDER
// ============================================================================

type Order struct {
	ID              string      `json:"id"`
	Number          string      `json:"order_number"`
	QuotationID     *string     `json:"quotation_id,omitempty"`
	CustomerID      string      `json:"customer_id"`
	CustomerName    string      `json:"customer_name"`
	VendorID        string      `json:"vendor_id"`
	VendorName      string      `json:"vendor_name"`
	Status          OrderStatus `json:"status"`
	Lines           []OrderLine `json:"lines"`
	Subtotal        float64     `json:"subtotal"`
	TaxRate         float64     `json:"tax_rate"`
	TaxAmount       float64     `json:"tax_amount"`
	SecurityDeposit float64     `json:"security_deposit"`
	TotalAmount     float64     `json:"total_amount"`
	PaidAmount      float64     `json:"paid_amount"`
	RentalStart     *time.Time  `json:"rental_start_date,omitempty"`
	RentalEnd       *time.Time  `json:"rental_end_date,omitempty"`
	PickupDate      *time.Time  `json:"pickup_date,omitempty"`
	ReturnDate      *time.Time  `json:"return_date,omitempty"`
	LateReturnFee   float64     `json:"late_return_fee"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type OrderLine struct {
	ID              string       `json:"id"`
	QuotationLineID *string      `json:"quotation_line_id,omitempty"`
	ProductID       string       `json:"product_id"`
	ProductName     string       `json:"product_name"`
	Quantity        int          `json:"quantity"`
	Period          RentalPeriod `json:"rental_period"`
	UnitPrice       float64      `json:"unit_price"`
	TotalPrice      float64      `json:"total_price"`
}

// BalanceDue is the amount still owed on the order.
func (o *Order) BalanceDue() float64 {
	due := o.TotalAmount - o.PaidAmount
	if due < 0 {
		return 0
	}
	return due
}

// ============================================================================
// CATALOG & USERS (read-only)
// ============================================================================

type Product struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	VendorID   string `json:"vendor_id"`
	VendorName string `json:"vendor_name,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}
