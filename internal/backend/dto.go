package backend

import (
	"github.com/rentdesk/rentdesk/internal/rental"
)

// ============================================================================
// REQUESTS
// ============================================================================

// QuotationUpdate is the body of POST /quotations/{id}.
type QuotationUpdate struct {
	Status *rental.QuotationStatus `json:"status,omitempty"`
	Notes  *string                 `json:"notes,omitempty"`
	Lines  []LinePriceUpdate       `json:"lines,omitempty"`
}

type LinePriceUpdate struct {
	ID         string  `json:"id"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

type ListQuotationsParams struct {
	Status rental.QuotationStatus
	Skip   int
	Limit  int
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	QuotationID     *string          `json:"quotation_id,omitempty"`
	VendorID        string           `json:"vendor_id" validate:"required"`
	Lines           []OrderLineInput `json:"lines" validate:"required,min=1,dive"`
	SecurityDeposit *float64         `json:"security_deposit,omitempty" validate:"omitempty,gte=0"`
	Notes           *string          `json:"notes,omitempty"`
}

type OrderLineInput struct {
	ProductID    string            `json:"product_id" validate:"required"`
	Quantity     int               `json:"quantity" validate:"gt=0"`
	RentalPeriod RentalPeriodInput `json:"rental_period"`
	UnitPrice    float64           `json:"unit_price" validate:"gte=0"`
	TotalPrice   float64           `json:"total_price" validate:"gte=0"`
}

type RentalPeriodInput struct {
	Type      string `json:"type" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// OrderUpdate is the body of PUT /orders/{id}; vendor and admin progress edits.
type OrderUpdate struct {
	Status        *rental.OrderStatus `json:"status,omitempty"`
	PickupDate    *string             `json:"pickup_date,omitempty"`
	ReturnDate    *string             `json:"return_date,omitempty"`
	LateReturnFee *float64            `json:"late_return_fee,omitempty" validate:"omitempty,gte=0"`
	PaidAmount    *float64            `json:"paid_amount,omitempty" validate:"omitempty,gte=0"`
}

type ListOrdersParams struct {
	Status        rental.OrderStatus
	PaymentStatus string
	ReturnStatus  string
	Skip          int
	Limit         int
}

// ============================================================================
// RESPONSES
// ============================================================================

type quotationPayload struct {
	ID              string                 `json:"id"`
	QuotationNumber string                 `json:"quotation_number"`
	CustomerID      string                 `json:"customer_id"`
	CustomerName    string                 `json:"customer_name"`
	Status          string                 `json:"status"`
	Lines           []quotationLinePayload `json:"lines"`
	Subtotal        float64                `json:"subtotal"`
	TaxRate         float64                `json:"tax_rate"`
	TaxAmount       float64                `json:"tax_amount"`
	TotalAmount     float64                `json:"total_amount"`
	ValidUntil      *string                `json:"valid_until"`
	Notes           *string                `json:"notes"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

type quotationLinePayload struct {
	ID               string  `json:"id"`
	QuotationLineID  *string `json:"quotation_line_id"`
	ProductID        string  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	Quantity         int     `json:"quantity"`
	RentalPeriodType string  `json:"rental_period_type"`
	RentalStartDate  string  `json:"rental_start_date"`
	RentalEndDate    string  `json:"rental_end_date"`
	UnitPrice        float64 `json:"unit_price"`
	TotalPrice       float64 `json:"total_price"`
}

type orderPayload struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	QuotationID     *string                `json:"quotation_id"`
	CustomerID      string                 `json:"customer_id"`
	CustomerName    string                 `json:"customer_name"`
	VendorID        string                 `json:"vendor_id"`
	VendorName      string                 `json:"vendor_name"`
	Status          string                 `json:"status"`
	Lines           []quotationLinePayload `json:"lines"`
	Subtotal        float64                `json:"subtotal"`
	TaxRate         float64                `json:"tax_rate"`
	TaxAmount       float64                `json:"tax_amount"`
	SecurityDeposit float64                `json:"security_deposit"`
	TotalAmount     float64                `json:"total_amount"`
	PaidAmount      float64                `json:"paid_amount"`
	RentalStartDate *string                `json:"rental_start_date"`
	RentalEndDate   *string                `json:"rental_end_date"`
	PickupDate      *string                `json:"pickup_date"`
	ReturnDate      *string                `json:"return_date"`
	LateReturnFee   float64                `json:"late_return_fee"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

type productPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	VendorID   string `json:"vendor_id"`
	VendorName string `json:"vendor_name"`
}

type userPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type DashboardStats struct {
	TotalRevenue   float64          `json:"total_revenue"`
	TotalOrders    int              `json:"total_orders"`
	ActiveRentals  int              `json:"active_rentals"`
	PendingReturns int              `json:"pending_returns"`
	TotalProducts  int              `json:"total_products"`
	TopProducts    []TopProduct     `json:"top_products"`
	RevenueByMonth []RevenueByMonth `json:"revenue_by_month"`
	OrdersByStatus []OrdersByStatus `json:"orders_by_status"`
}

type TopProduct struct {
	Name    string `json:"name"`
	Rentals int    `json:"rentals"`
}

type RevenueByMonth struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

type OrdersByStatus struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type RecentOrder struct {
	ID           string  `json:"id"`
	OrderNumber  string  `json:"order_number"`
	CustomerName string  `json:"customer_name"`
	VendorName   string  `json:"vendor_name"`
	Status       string  `json:"status"`
	TotalAmount  float64 `json:"total_amount"`
	CreatedAt    string  `json:"created_at"`
}

type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	OrderID       string        `json:"order_id"`
	CustomerID    string        `json:"customer_id"`
	Status        string        `json:"status"`
	Lines         []InvoiceLine `json:"lines"`
	Subtotal      float64       `json:"subtotal"`
	TaxRate       float64       `json:"tax_rate"`
	TaxAmount     float64       `json:"tax_amount"`
	TotalAmount   float64       `json:"total_amount"`
	PaidAmount    float64       `json:"paid_amount"`
	DueDate       *string       `json:"due_date"`
	CreatedAt     string        `json:"created_at"`
}

type InvoiceLine struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}
