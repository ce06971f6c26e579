package backend

// Mapper functions between wire payloads and the rental domain. Status, role
// and period strings are normalized here and nowhere else.

import (
	"fmt"
	"time"

	"github.com/rentdesk/rentdesk/internal/rental"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts the timestamp shapes the backend emits.
func ParseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// FormatTime renders t the way the backend accepts it. The zero time renders
// as "", matching what the backend sends for undated lines.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseOptionalTime(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := ParseTime(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseStamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, _ := ParseTime(raw)
	return t
}

func toPeriod(p quotationLinePayload) (rental.RentalPeriod, error) {
	kind, err := rental.ParsePeriodType(p.RentalPeriodType)
	if err != nil {
		return rental.RentalPeriod{}, err
	}
	period := rental.RentalPeriod{Type: kind, Stored: p.RentalPeriodType}
	if period.Start, err = parseLineDate(p.RentalStartDate); err != nil {
		return rental.RentalPeriod{}, fmt.Errorf("line %s start: %w", p.ID, err)
	}
	if period.End, err = parseLineDate(p.RentalEndDate); err != nil {
		return rental.RentalPeriod{}, fmt.Errorf("line %s end: %w", p.ID, err)
	}
	return period, nil
}

// parseLineDate maps the backend's "" for an undated line to the zero time.
func parseLineDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return ParseTime(raw)
}

// ToQuotation maps a quotation payload to the domain.
func (p quotationPayload) ToQuotation() (*rental.Quotation, error) {
	status, err := rental.ParseQuotationStatus(p.Status)
	if err != nil {
		return nil, err
	}
	validUntil, err := parseOptionalTime(p.ValidUntil)
	if err != nil {
		return nil, fmt.Errorf("quotation %s valid_until: %w", p.ID, err)
	}
	q := &rental.Quotation{
		ID:           p.ID,
		Number:       p.QuotationNumber,
		CustomerID:   p.CustomerID,
		CustomerName: p.CustomerName,
		Status:       status,
		Lines:        make([]rental.QuotationLine, 0, len(p.Lines)),
		Subtotal:     p.Subtotal,
		TaxRate:      p.TaxRate,
		TaxAmount:    p.TaxAmount,
		TotalAmount:  p.TotalAmount,
		ValidUntil:   validUntil,
		Notes:        p.Notes,
		CreatedAt:    parseStamp(p.CreatedAt),
		UpdatedAt:    parseStamp(p.UpdatedAt),
	}
	for _, lp := range p.Lines {
		period, err := toPeriod(lp)
		if err != nil {
			return nil, fmt.Errorf("quotation %s: %w", p.ID, err)
		}
		q.Lines = append(q.Lines, rental.QuotationLine{
			ID:          lp.ID,
			ProductID:   lp.ProductID,
			ProductName: lp.ProductName,
			Quantity:    lp.Quantity,
			Period:      period,
			UnitPrice:   lp.UnitPrice,
			TotalPrice:  lp.TotalPrice,
		})
	}
	return q, nil
}

// ToOrder maps an order payload to the domain.
func (p orderPayload) ToOrder() (*rental.Order, error) {
	status, err := rental.ParseOrderStatus(p.Status)
	if err != nil {
		return nil, err
	}
	o := &rental.Order{
		ID:              p.ID,
		Number:          p.OrderNumber,
		QuotationID:     p.QuotationID,
		CustomerID:      p.CustomerID,
		CustomerName:    p.CustomerName,
		VendorID:        p.VendorID,
		VendorName:      p.VendorName,
		Status:          status,
		Lines:           make([]rental.OrderLine, 0, len(p.Lines)),
		Subtotal:        p.Subtotal,
		TaxRate:         p.TaxRate,
		TaxAmount:       p.TaxAmount,
		SecurityDeposit: p.SecurityDeposit,
		TotalAmount:     p.TotalAmount,
		PaidAmount:      p.PaidAmount,
		LateReturnFee:   p.LateReturnFee,
		CreatedAt:       parseStamp(p.CreatedAt),
		UpdatedAt:       parseStamp(p.UpdatedAt),
	}
	dates := []struct {
		raw  *string
		dest **time.Time
		name string
	}{
		{p.RentalStartDate, &o.RentalStart, "rental_start_date"},
		{p.RentalEndDate, &o.RentalEnd, "rental_end_date"},
		{p.PickupDate, &o.PickupDate, "pickup_date"},
		{p.ReturnDate, &o.ReturnDate, "return_date"},
	}
	for _, d := range dates {
		t, err := parseOptionalTime(d.raw)
		if err != nil {
			return nil, fmt.Errorf("order %s %s: %w", p.ID, d.name, err)
		}
		*d.dest = t
	}
	for _, lp := range p.Lines {
		period, err := toPeriod(lp)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", p.ID, err)
		}
		o.Lines = append(o.Lines, rental.OrderLine{
			ID:              lp.ID,
			QuotationLineID: lp.QuotationLineID,
			ProductID:       lp.ProductID,
			ProductName:     lp.ProductName,
			Quantity:        lp.Quantity,
			Period:          period,
			UnitPrice:       lp.UnitPrice,
			TotalPrice:      lp.TotalPrice,
		})
	}
	return o, nil
}

// ToUser maps the current-user payload, normalizing its role.
func (p userPayload) ToUser() (*rental.User, error) {
	role, err := rental.ParseRole(p.Role)
	if err != nil {
		return nil, err
	}
	return &rental.User{
		ID:        p.ID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Role:      role,
	}, nil
}

// OrderLineFromQuotation translates a quotation line into the order-creation
// shape, rebuilding the rental period from the stored type and dates. Undated
// lines leave the dates empty and fail request validation.
func OrderLineFromQuotation(line rental.QuotationLine) OrderLineInput {
	return OrderLineInput{
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		RentalPeriod: RentalPeriodInput{
			Type:      line.Period.WireType(),
			StartDate: FormatTime(line.Period.Start),
			EndDate:   FormatTime(line.Period.End),
			Quantity:  line.Quantity,
		},
		UnitPrice:  line.UnitPrice,
		TotalPrice: line.TotalPrice,
	}
}
