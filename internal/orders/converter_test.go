package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/quotations"
	"github.com/rentdesk/rentdesk/internal/rental"
)

// ============================================================================
// FAKE BACKEND
// ============================================================================

type createCall struct {
	req backend.CreateOrderRequest
	key string
}

type fakeBackend struct {
	mu           sync.Mutex
	quotes       map[string]*rental.Quotation
	products     map[string]rental.Product
	productErr   map[string]error
	createErr    map[string]error
	byKey        map[string]*rental.Order
	orders       []*rental.Order
	creates      []createCall
	productCalls int
	listCalls    int
	listErr      error
	ignoreKeys   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		quotes: make(map[string]*rental.Quotation),
		products: map[string]rental.Product{
			"P1": {ID: "P1", Name: "Camera", VendorID: "vendorA", VendorName: "Vendor A"},
			"P2": {ID: "P2", Name: "Tripod", VendorID: "vendorB", VendorName: "Vendor B"},
			"P3": {ID: "P3", Name: "Lens", VendorID: "vendorA", VendorName: "Vendor A"},
		},
		productErr: make(map[string]error),
		createErr:  make(map[string]error),
		byKey:      make(map[string]*rental.Order),
	}
}

func (f *fakeBackend) GetQuotation(ctx context.Context, id string) (*rental.Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quotes[id]
	if !ok {
		return nil, &backend.APIError{Method: "GET", Path: "/quotations/" + id, Status: 404, Message: "not found"}
	}
	return q.Clone(), nil
}

func (f *fakeBackend) ListQuotations(ctx context.Context, params backend.ListQuotationsParams) ([]rental.Quotation, error) {
	return nil, nil
}

func (f *fakeBackend) UpdateQuotation(ctx context.Context, id string, update backend.QuotationUpdate) (*rental.Quotation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.quotes[id]
	if update.Status != nil {
		q.Status = *update.Status
	}
	for _, edit := range update.Lines {
		if line, ok := q.Line(edit.ID); ok {
			line.UnitPrice = edit.UnitPrice
		}
	}
	q.Recalculate()
	return q.Clone(), nil
}

func (f *fakeBackend) GetProduct(ctx context.Context, id string) (*rental.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++
	if err := f.productErr[id]; err != nil {
		return nil, err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, &backend.APIError{Method: "GET", Path: "/products/" + id, Status: 404, Message: "Product not found"}
	}
	return &p, nil
}

// CreateOrder honors the idempotency key unless ignoreKeys is set.
func (f *fakeBackend) CreateOrder(ctx context.Context, req backend.CreateOrderRequest, key string) (*rental.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{req: req, key: key})
	if err := f.createErr[req.VendorID]; err != nil {
		return nil, err
	}
	if existing, ok := f.byKey[key]; ok && !f.ignoreKeys {
		return existing, nil
	}
	order := &rental.Order{
		ID:          fmt.Sprintf("o-%d", len(f.orders)+1),
		QuotationID: req.QuotationID,
		VendorID:    req.VendorID,
		Status:      rental.OrderStatusPending,
	}
	for _, line := range req.Lines {
		order.Lines = append(order.Lines, rental.OrderLine{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
		})
		order.Subtotal += line.TotalPrice
	}
	order.TotalAmount = order.Subtotal
	f.byKey[key] = order
	f.orders = append(f.orders, order)
	return order, nil
}

func (f *fakeBackend) ListOrders(ctx context.Context, params backend.ListOrdersParams) ([]rental.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []rental.Order{}
	for i := params.Skip; i < len(f.orders) && len(out) < params.Limit; i++ {
		out = append(out, *f.orders[i])
	}
	return out, nil
}

func (f *fakeBackend) distinctOrders() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeBackend) vendorCreates(vendorID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.creates {
		if call.req.VendorID == vendorID {
			n++
		}
	}
	return n
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) ObserveConversion(outcome string, created int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

// ============================================================================
// FIXTURES
// ============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func period() rental.RentalPeriod {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return rental.RentalPeriod{Type: rental.PeriodDaily, Start: start, End: start.Add(48 * time.Hour)}
}

func acceptedQuote(id string, lines ...rental.QuotationLine) *rental.Quotation {
	q := &rental.Quotation{ID: id, Status: rental.QuotationStatusAccepted, Lines: lines}
	q.Recalculate()
	return q
}

func line(id, product string, qty int, price float64) rental.QuotationLine {
	return rental.QuotationLine{ID: id, ProductID: product, Quantity: qty, Period: period(), UnitPrice: price}
}

func newTestConverter(b Backend, ledger Ledger) *Converter {
	return NewConverter(ConverterConfig{Backend: b, Ledger: ledger, Logger: discardLogger()})
}

// ============================================================================
// TESTS
// ============================================================================

func TestReviewAcceptConvertTwoVendors(t *testing.T) {
	fb := newFakeBackend()
	q := &rental.Quotation{ID: "Q-1", Status: rental.QuotationStatusRequested, Lines: []rental.QuotationLine{
		line("l-1", "P1", 2, 100),
		line("l-2", "P2", 1, 50),
	}}
	q.Recalculate()
	fb.quotes["Q-1"] = q

	guard := rental.NewGuard()
	engine := quotations.NewService(fb, guard, discardLogger())
	converter := NewConverter(ConverterConfig{Backend: fb, Guard: guard, Logger: discardLogger()})
	ctx := context.Background()

	preview, err := quotations.PreviewReview(q, map[string]float64{"l-1": 120})
	require.NoError(t, err)
	assert.Equal(t, 290.0, rental.ComputeTotal(q.Lines, map[string]float64{"l-1": 120}))
	assert.Equal(t, 290.0, preview.Subtotal)

	_, err = engine.SubmitReview(ctx, "Q-1", map[string]float64{"l-1": 120})
	require.NoError(t, err)
	_, err = engine.RespondToReview(ctx, "Q-1", true)
	require.NoError(t, err)

	result, err := converter.Convert(ctx, "Q-1")
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, NextList, result.Next.Action)

	vendorA, vendorB := result.Orders[0], result.Orders[1]
	assert.Equal(t, "vendorA", vendorA.VendorID)
	assert.Equal(t, "vendorB", vendorB.VendorID)
	require.Len(t, vendorA.Order.Lines, 1)
	assert.Equal(t, "P1", vendorA.Order.Lines[0].ProductID)
	assert.Equal(t, 2, vendorA.Order.Lines[0].Quantity)
	assert.Equal(t, 240.0, vendorA.Order.Lines[0].TotalPrice)
	require.Len(t, vendorB.Order.Lines, 1)
	assert.Equal(t, "P2", vendorB.Order.Lines[0].ProductID)
	assert.Equal(t, 50.0, vendorB.Order.Lines[0].TotalPrice)

	quantities := 0
	for _, o := range result.Orders {
		for _, l := range o.Order.Lines {
			assert.Equal(t, fb.products[l.ProductID].VendorID, o.VendorID)
			quantities += l.Quantity
		}
	}
	assert.Equal(t, 3, quantities)

	for _, call := range fb.creates {
		require.NotNil(t, call.req.QuotationID)
		assert.Equal(t, "Q-1", *call.req.QuotationID)
		require.NotNil(t, call.req.SecurityDeposit)
		assert.Zero(t, *call.req.SecurityDeposit)
	}
}

func TestConvertEmptyQuotationIssuesNoRequests(t *testing.T) {
	fb := newFakeBackend()
	converter := newTestConverter(fb, nil)

	_, err := converter.ConvertQuotation(context.Background(), &rental.Quotation{ID: "q-1", Status: rental.QuotationStatusAccepted})
	require.ErrorIs(t, err, rental.ErrEmptyQuotation)
	assert.Zero(t, fb.productCalls)
	assert.Empty(t, fb.creates)
}

func TestConvertRequiresAccepted(t *testing.T) {
	fb := newFakeBackend()
	q := acceptedQuote("q-1", line("l-1", "P1", 1, 10))
	q.Status = rental.QuotationStatusReviewed
	converter := newTestConverter(fb, nil)

	_, err := converter.ConvertQuotation(context.Background(), q)
	var invalid *rental.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "convert", invalid.Action)
	assert.Zero(t, fb.productCalls)
}

func TestConvertVendorResolutionFailsFast(t *testing.T) {
	fb := newFakeBackend()
	fb.productErr["P2"] = &backend.NetworkError{Method: "GET", Path: "/products/P2", Err: errors.New("timeout")}
	converter := newTestConverter(fb, nil)

	q := acceptedQuote("q-1", line("l-1", "P1", 1, 10), line("l-2", "P2", 1, 10), line("l-3", "P3", 1, 10))
	_, err := converter.ConvertQuotation(context.Background(), q)

	var resolution *rental.VendorResolutionError
	require.ErrorAs(t, err, &resolution)
	assert.Equal(t, "P2", resolution.ProductID)
	assert.Equal(t, "l-2", resolution.LineID)
	assert.Empty(t, fb.creates)
}

func TestConvertProductWithoutVendor(t *testing.T) {
	fb := newFakeBackend()
	fb.products["P9"] = rental.Product{ID: "P9"}
	converter := newTestConverter(fb, nil)

	_, err := converter.ConvertQuotation(context.Background(), acceptedQuote("q-1", line("l-1", "P9", 1, 10)))
	var resolution *rental.VendorResolutionError
	require.ErrorAs(t, err, &resolution)
	assert.ErrorIs(t, err, errMissingVendor)
}

func TestConvertPartialFailureAndRetry(t *testing.T) {
	fb := newFakeBackend()
	fb.createErr["vendorB"] = &backend.APIError{Method: "POST", Path: "/orders", Status: 400, Message: "Product unavailable"}
	recorder := &outcomeRecorder{}
	converter := NewConverter(ConverterConfig{Backend: fb, Logger: discardLogger(), Recorder: recorder})
	q := acceptedQuote("q-1", line("l-1", "P1", 2, 100), line("l-2", "P2", 1, 50))

	_, err := converter.ConvertQuotation(context.Background(), q)
	var partial *rental.PartialConversionError
	require.ErrorAs(t, err, &partial)
	require.Len(t, partial.Succeeded, 1)
	assert.Equal(t, "vendorB", partial.FailedVendor)
	var apiErr *backend.APIError
	assert.ErrorAs(t, err, &apiErr)
	firstOrder := partial.Succeeded[0]

	delete(fb.createErr, "vendorB")
	result, err := converter.ConvertQuotation(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, firstOrder, result.Orders[0].OrderID)
	assert.True(t, result.Orders[0].Resumed)
	assert.False(t, result.Orders[1].Resumed)

	assert.Equal(t, 1, fb.vendorCreates("vendorA"))
	assert.Equal(t, 2, fb.distinctOrders())
	assert.Equal(t, []string{OutcomePartial, OutcomeConverted}, recorder.outcomes)
}

func TestConvertRetryAfterRestartSkipsCreatedVendors(t *testing.T) {
	fb := newFakeBackend()
	fb.ignoreKeys = true
	fb.createErr["vendorB"] = &backend.NetworkError{Method: "POST", Path: "/orders", Err: errors.New("connection reset")}
	q := acceptedQuote("q-1", line("l-1", "P1", 2, 100), line("l-2", "P2", 1, 50))

	_, err := newTestConverter(fb, NewMemoryLedger()).ConvertQuotation(context.Background(), q)
	var partial *rental.PartialConversionError
	require.ErrorAs(t, err, &partial)
	firstOrder := partial.Succeeded[0]

	delete(fb.createErr, "vendorB")
	ledger := NewMemoryLedger()
	result, err := newTestConverter(fb, ledger).ConvertQuotation(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, firstOrder, result.Orders[0].OrderID)
	assert.True(t, result.Orders[0].Resumed)
	assert.Equal(t, 1, fb.vendorCreates("vendorA"))
	assert.Equal(t, 2, fb.distinctOrders())

	done, err := ledger.Load(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vendorA": firstOrder, "vendorB": result.Orders[1].OrderID}, done)
}

func TestConvertReconcileIgnoresOtherQuotations(t *testing.T) {
	fb := newFakeBackend()
	fb.ignoreKeys = true
	other := "q-other"
	for i := 0; i < reconcilePageSize; i++ {
		fb.orders = append(fb.orders, &rental.Order{ID: fmt.Sprintf("x-%d", i), QuotationID: &other, VendorID: "vendorA"})
	}
	fb.orders = append(fb.orders, &rental.Order{ID: "x-direct", VendorID: "vendorA"})

	result, err := newTestConverter(fb, nil).ConvertQuotation(context.Background(), acceptedQuote("q-1", line("l-1", "P1", 1, 10)))
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.False(t, result.Orders[0].Resumed)
	assert.Equal(t, 1, fb.vendorCreates("vendorA"))
	assert.Equal(t, 2, fb.listCalls)
}

func TestConvertReconcileFailureCreatesNothing(t *testing.T) {
	fb := newFakeBackend()
	fb.listErr = &backend.APIError{Method: "GET", Path: "/orders", Status: 503, Message: "unavailable"}
	recorder := &outcomeRecorder{}
	converter := NewConverter(ConverterConfig{Backend: fb, Logger: discardLogger(), Recorder: recorder})

	_, err := converter.ConvertQuotation(context.Background(), acceptedQuote("q-1", line("l-1", "P1", 1, 10)))
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, fb.creates)
	assert.Equal(t, []string{OutcomeFailed}, recorder.outcomes)
}

func TestConvertFullyRecordedSkipsReconcile(t *testing.T) {
	fb := newFakeBackend()
	ledger := NewMemoryLedger()
	require.NoError(t, ledger.Record(context.Background(), "q-1", "vendorA", "o-77"))

	result, err := newTestConverter(fb, ledger).ConvertQuotation(context.Background(), acceptedQuote("q-1", line("l-1", "P1", 1, 10)))
	require.NoError(t, err)
	assert.Equal(t, "o-77", result.Orders[0].OrderID)
	assert.Zero(t, fb.listCalls)
	assert.Empty(t, fb.creates)
}

func TestConvertFirstGroupFailureReturnsUnderlying(t *testing.T) {
	fb := newFakeBackend()
	cause := &backend.APIError{Method: "POST", Path: "/orders", Status: 422, Message: "invalid"}
	fb.createErr["vendorA"] = cause
	converter := newTestConverter(fb, nil)

	_, err := converter.ConvertQuotation(context.Background(), acceptedQuote("q-1", line("l-1", "P1", 1, 10), line("l-2", "P2", 1, 10)))
	require.Error(t, err)
	var partial *rental.PartialConversionError
	assert.False(t, errors.As(err, &partial))
	assert.ErrorIs(t, err, cause)
	assert.Len(t, fb.creates, 1)
}

func TestConvertGroupsByFirstAppearance(t *testing.T) {
	fb := newFakeBackend()
	converter := newTestConverter(fb, nil)
	q := acceptedQuote("q-1",
		line("l-1", "P1", 1, 10),
		line("l-2", "P2", 1, 20),
		line("l-3", "P3", 4, 30),
	)

	result, err := converter.ConvertQuotation(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, []string{"l-1", "l-3"}, result.Orders[0].LineIDs)
	assert.Equal(t, []string{"l-2"}, result.Orders[1].LineIDs)

	require.Len(t, fb.creates, 2)
	assert.Equal(t, "vendorA", fb.creates[0].req.VendorID)
	assert.Equal(t, "P1", fb.creates[0].req.Lines[0].ProductID)
	assert.Equal(t, "P3", fb.creates[0].req.Lines[1].ProductID)
	assert.Equal(t, 4, fb.creates[0].req.Lines[1].RentalPeriod.Quantity)
	assert.Equal(t, "day", fb.creates[0].req.Lines[1].RentalPeriod.Type)
	assert.Equal(t, IdempotencyKey("q-1", "vendorA"), fb.creates[0].key)
}

func TestConvertSingleVendorGoesToPayment(t *testing.T) {
	fb := newFakeBackend()
	converter := newTestConverter(fb, nil)

	result, err := converter.ConvertQuotation(context.Background(), acceptedQuote("q-1", line("l-1", "P1", 1, 10), line("l-2", "P3", 1, 10)))
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, NextPay, result.Next.Action)
	assert.Equal(t, result.Orders[0].OrderID, result.Next.OrderID)
	assert.Equal(t, "/orders/"+result.Orders[0].OrderID+"/pay", result.Next.Path)
}

func TestConvertNotifiesAndIgnoresNotifierErrors(t *testing.T) {
	fb := newFakeBackend()
	var seen []*ConversionResult
	converter := NewConverter(ConverterConfig{
		Backend: fb,
		Logger:  discardLogger(),
		Notifiers: []Notifier{
			NotifierFunc(func(ctx context.Context, result *ConversionResult) error {
				seen = append(seen, result)
				return nil
			}),
			NotifierFunc(func(ctx context.Context, result *ConversionResult) error {
				return errors.New("queue down")
			}),
		},
	})

	result, err := converter.ConvertQuotation(context.Background(), acceptedQuote("q-1", line("l-1", "P1", 1, 10)))
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Same(t, result, seen[0])
}

func TestConvertRejectedWhileInFlight(t *testing.T) {
	fb := newFakeBackend()
	fb.quotes["q-1"] = acceptedQuote("q-1", line("l-1", "P1", 1, 10))
	guard := rental.NewGuard()
	converter := NewConverter(ConverterConfig{Backend: fb, Guard: guard, Logger: discardLogger()})

	release, err := guard.Acquire(rental.QuotationKey("q-1"))
	require.NoError(t, err)
	defer release()

	_, err = converter.Convert(context.Background(), "q-1")
	require.ErrorIs(t, err, rental.ErrRequestInFlight)
	assert.Zero(t, fb.productCalls)
}

func TestIdempotencyKeyDeterministic(t *testing.T) {
	assert.Equal(t, IdempotencyKey("q-1", "vendorA"), IdempotencyKey("q-1", "vendorA"))
	assert.NotEqual(t, IdempotencyKey("q-1", "vendorA"), IdempotencyKey("q-1", "vendorB"))
	assert.NotEqual(t, IdempotencyKey("q-1", "vendorA"), IdempotencyKey("q-2", "vendorA"))
	assert.Len(t, IdempotencyKey("q", "v"), 36)
}
