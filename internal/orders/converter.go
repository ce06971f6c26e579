// Package orders converts accepted quotations into per-vendor orders and
// exposes the read-only order status view.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/rental"
)

const (
	vendorLookupLimit = 4
	reconcilePageSize = 50
)

var (
	errMissingVendor = errors.New("product has no vendor")

	conversionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rentdesk:quotation-conversion"))
)

// Backend is the subset of the API client conversion depends on.
type Backend interface {
	GetQuotation(ctx context.Context, id string) (*rental.Quotation, error)
	GetProduct(ctx context.Context, id string) (*rental.Product, error)
	CreateOrder(ctx context.Context, req backend.CreateOrderRequest, idempotencyKey string) (*rental.Order, error)
	ListOrders(ctx context.Context, params backend.ListOrdersParams) ([]rental.Order, error)
}

// Notifier is told about every completed conversion.
type Notifier interface {
	ConversionCompleted(ctx context.Context, result *ConversionResult) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, result *ConversionResult) error

func (f NotifierFunc) ConversionCompleted(ctx context.Context, result *ConversionResult) error {
	return f(ctx, result)
}

// Recorder receives one outcome per conversion attempt.
type Recorder interface {
	ObserveConversion(outcome string, created int)
}

// Conversion outcomes reported to Recorder.
const (
	OutcomeConverted = "converted"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// NextAction tells the caller where to go after a conversion.
type NextAction string

const (
	NextPay  NextAction = "pay"
	NextList NextAction = "list"
)

// ConvertedOrder is one vendor group's order. Order is nil when the group was
// converted by an earlier attempt and only its id is known.
type ConvertedOrder struct {
	VendorID   string        `json:"vendor_id"`
	VendorName string        `json:"vendor_name,omitempty"`
	OrderID    string        `json:"order_id"`
	LineIDs    []string      `json:"line_ids"`
	Resumed    bool          `json:"resumed"`
	Order      *rental.Order `json:"order,omitempty"`
}

// NextStep is the navigation hint for the caller.
type NextStep struct {
	Action  NextAction `json:"action"`
	OrderID string     `json:"order_id,omitempty"`
	Path    string     `json:"path"`
}

// ConversionResult lists the orders in vendor-group order.
type ConversionResult struct {
	QuotationID string           `json:"quotation_id"`
	Orders      []ConvertedOrder `json:"orders"`
	Next        NextStep         `json:"next"`
}

// OrderIDs returns the ids of every order in the result.
func (r *ConversionResult) OrderIDs() []string {
	ids := make([]string, 0, len(r.Orders))
	for _, o := range r.Orders {
		ids = append(ids, o.OrderID)
	}
	return ids
}

// ConverterConfig collects the converter's dependencies. Ledger defaults to an
// in-memory ledger and Guard to a private guard.
type ConverterConfig struct {
	Backend   Backend
	Ledger    Ledger
	Guard     *rental.Guard
	Logger    *slog.Logger
	Notifiers []Notifier
	Recorder  Recorder
}

// Converter splits an accepted quotation into one order per vendor.
type Converter struct {
	backend   Backend
	ledger    Ledger
	guard     *rental.Guard
	logger    *slog.Logger
	notifiers []Notifier
	recorder  Recorder
}

// NewConverter constructs a Converter.
func NewConverter(cfg ConverterConfig) *Converter {
	c := &Converter{
		backend:   cfg.Backend,
		ledger:    cfg.Ledger,
		guard:     cfg.Guard,
		logger:    cfg.Logger,
		notifiers: cfg.Notifiers,
		recorder:  cfg.Recorder,
	}
	if c.ledger == nil {
		c.ledger = NewMemoryLedger()
	}
	if c.guard == nil {
		c.guard = rental.NewGuard()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// IdempotencyKey derives the order-creation key for one vendor group. The same
// quotation and vendor always map to the same key.
func IdempotencyKey(quotationID, vendorID string) string {
	return uuid.NewSHA1(conversionNamespace, []byte(quotationID+"/"+vendorID)).String()
}

// Convert loads the quotation and converts it.
func (c *Converter) Convert(ctx context.Context, quotationID string) (*ConversionResult, error) {
	release, err := c.guard.Acquire(rental.QuotationKey(quotationID))
	if err != nil {
		return nil, err
	}
	defer release()

	q, err := c.backend.GetQuotation(ctx, quotationID)
	if err != nil {
		c.record(OutcomeFailed, 0)
		return nil, fmt.Errorf("load quotation: %w", err)
	}
	return c.convert(ctx, q)
}

// ConvertQuotation converts an already loaded quotation. Preconditions are
// checked before any request is issued.
func (c *Converter) ConvertQuotation(ctx context.Context, q *rental.Quotation) (*ConversionResult, error) {
	release, err := c.guard.Acquire(rental.QuotationKey(q.ID))
	if err != nil {
		return nil, err
	}
	defer release()
	return c.convert(ctx, q)
}

func (c *Converter) convert(ctx context.Context, q *rental.Quotation) (*ConversionResult, error) {
	if len(q.Lines) == 0 {
		c.record(OutcomeRejected, 0)
		return nil, fmt.Errorf("%w: quotation %s", rental.ErrEmptyQuotation, q.ID)
	}
	if q.Status != rental.QuotationStatusAccepted {
		c.record(OutcomeRejected, 0)
		return nil, &rental.InvalidStateError{Entity: "quotation", ID: q.ID, Status: string(q.Status), Action: "convert"}
	}

	products, err := c.resolveVendors(ctx, q.Lines)
	if err != nil {
		c.record(OutcomeFailed, 0)
		return nil, err
	}
	groups := partition(q.Lines, products)

	done, err := c.ledger.Load(ctx, q.ID)
	if err != nil {
		c.record(OutcomeFailed, 0)
		return nil, fmt.Errorf("load conversion ledger: %w", err)
	}

	logger := c.logger.With(slog.String("quotation_id", q.ID))
	if done == nil {
		done = make(map[string]string)
	}
	if pending(groups, done) {
		if err := c.reconcile(ctx, q.ID, done, logger); err != nil {
			c.record(OutcomeFailed, 0)
			return nil, fmt.Errorf("reconcile existing orders: %w", err)
		}
	}
	result := &ConversionResult{QuotationID: q.ID}
	created := 0
	for _, group := range groups {
		if orderID, ok := done[group.vendorID]; ok {
			result.Orders = append(result.Orders, group.converted(orderID, nil))
			continue
		}

		order, err := c.backend.CreateOrder(ctx, group.request(q.ID), IdempotencyKey(q.ID, group.vendorID))
		if err != nil {
			logger.Error("create vendor order", slog.String("vendor_id", group.vendorID), slog.Any("error", err))
			if len(result.Orders) == 0 {
				c.record(OutcomeFailed, 0)
				return nil, fmt.Errorf("create order for vendor %s: %w", group.vendorID, err)
			}
			c.record(OutcomePartial, created)
			return nil, &rental.PartialConversionError{
				QuotationID:  q.ID,
				Succeeded:    result.OrderIDs(),
				FailedVendor: group.vendorID,
				Err:          err,
			}
		}
		created++
		if err := c.ledger.Record(ctx, q.ID, group.vendorID, order.ID); err != nil {
			// The idempotency key still protects a retry at the backend.
			logger.Warn("record conversion ledger", slog.String("vendor_id", group.vendorID), slog.Any("error", err))
		}
		result.Orders = append(result.Orders, group.converted(order.ID, order))
	}

	result.Next = nextStep(result.Orders)
	c.record(OutcomeConverted, created)
	logger.Info("quotation converted", slog.Int("orders", len(result.Orders)), slog.Int("created", created))

	for _, n := range c.notifiers {
		if err := n.ConversionCompleted(ctx, result); err != nil {
			logger.Warn("conversion notification", slog.Any("error", err))
		}
	}
	return result, nil
}

// reconcile adds to done every vendor that already has an order for the
// quotation at the backend.
func (c *Converter) reconcile(ctx context.Context, quotationID string, done map[string]string, logger *slog.Logger) error {
	for skip := 0; ; skip += reconcilePageSize {
		page, err := c.backend.ListOrders(ctx, backend.ListOrdersParams{Skip: skip, Limit: reconcilePageSize})
		if err != nil {
			return err
		}
		for _, o := range page {
			if o.QuotationID == nil || *o.QuotationID != quotationID {
				continue
			}
			if _, ok := done[o.VendorID]; ok {
				continue
			}
			done[o.VendorID] = o.ID
			logger.Info("found existing vendor order", slog.String("vendor_id", o.VendorID), slog.String("order_id", o.ID))
			if err := c.ledger.Record(ctx, quotationID, o.VendorID, o.ID); err != nil {
				logger.Warn("record conversion ledger", slog.String("vendor_id", o.VendorID), slog.Any("error", err))
			}
		}
		if len(page) < reconcilePageSize {
			return nil
		}
	}
}

func pending(groups []vendorGroup, done map[string]string) bool {
	for _, g := range groups {
		if _, ok := done[g.vendorID]; !ok {
			return true
		}
	}
	return false
}

// resolveVendors looks up every line's product with bounded concurrency. The
// result is index-aligned with lines.
func (c *Converter) resolveVendors(ctx context.Context, lines []rental.QuotationLine) ([]rental.Product, error) {
	products := make([]rental.Product, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(vendorLookupLimit)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			product, err := c.backend.GetProduct(gctx, line.ProductID)
			if err == nil && product.VendorID == "" {
				err = errMissingVendor
			}
			if err != nil {
				return &rental.VendorResolutionError{LineID: line.ID, ProductID: line.ProductID, Err: err}
			}
			products[i] = *product
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

type vendorGroup struct {
	vendorID   string
	vendorName string
	lines      []rental.QuotationLine
}

// partition groups lines by vendor. Groups are ordered by first appearance and
// lines keep their quotation order.
func partition(lines []rental.QuotationLine, products []rental.Product) []vendorGroup {
	var groups []vendorGroup
	index := make(map[string]int)
	for i, line := range lines {
		vendorID := products[i].VendorID
		pos, ok := index[vendorID]
		if !ok {
			pos = len(groups)
			index[vendorID] = pos
			groups = append(groups, vendorGroup{vendorID: vendorID, vendorName: products[i].VendorName})
		}
		groups[pos].lines = append(groups[pos].lines, line)
	}
	return groups
}

func (g vendorGroup) request(quotationID string) backend.CreateOrderRequest {
	deposit := 0.0
	req := backend.CreateOrderRequest{
		QuotationID:     &quotationID,
		VendorID:        g.vendorID,
		Lines:           make([]backend.OrderLineInput, 0, len(g.lines)),
		SecurityDeposit: &deposit,
	}
	for _, line := range g.lines {
		req.Lines = append(req.Lines, backend.OrderLineFromQuotation(line))
	}
	return req
}

func (g vendorGroup) converted(orderID string, order *rental.Order) ConvertedOrder {
	lineIDs := make([]string, 0, len(g.lines))
	for _, line := range g.lines {
		lineIDs = append(lineIDs, line.ID)
	}
	return ConvertedOrder{
		VendorID:   g.vendorID,
		VendorName: g.vendorName,
		OrderID:    orderID,
		LineIDs:    lineIDs,
		Resumed:    order == nil,
		Order:      order,
	}
}

func nextStep(orders []ConvertedOrder) NextStep {
	if len(orders) == 1 {
		id := orders[0].OrderID
		return NextStep{Action: NextPay, OrderID: id, Path: "/orders/" + id + "/pay"}
	}
	return NextStep{Action: NextList, Path: "/orders"}
}

func (c *Converter) record(outcome string, created int) {
	if c.recorder != nil {
		c.recorder.ObserveConversion(outcome, created)
	}
}
