package rental

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLines() []QuotationLine {
	return []QuotationLine{
		{ID: "L1", ProductID: "P1", Quantity: 2, UnitPrice: 100},
		{ID: "L2", ProductID: "P2", Quantity: 1, UnitPrice: 50},
		{ID: "L3", ProductID: "P3", Quantity: 4, UnitPrice: 12.5},
	}
}

func TestComputeTotal(t *testing.T) {
	lines := sampleLines()

	assert.Equal(t, 300.0, ComputeTotal(lines, nil))
	assert.Equal(t, 340.0, ComputeTotal(lines, map[string]float64{"L1": 120}))
	assert.Equal(t, 300.0, ComputeTotal(lines, map[string]float64{"unknown": 999}))
	assert.Equal(t, 0.0, ComputeTotal(nil, nil))
}

func TestComputeTotal_OrderInvariant(t *testing.T) {
	lines := sampleLines()
	overrides := map[string]float64{"L2": 75}
	expected := ComputeTotal(lines, overrides)

	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range permutations {
		reordered := make([]QuotationLine, 0, len(lines))
		for _, idx := range perm {
			reordered = append(reordered, lines[idx])
		}
		assert.Equal(t, expected, ComputeTotal(reordered, overrides), "permutation %v", perm)
	}
}

func TestComputeTotal_ReviewScenario(t *testing.T) {
	lines := []QuotationLine{
		{ID: "P1", ProductID: "P1", Quantity: 2, UnitPrice: 100},
		{ID: "P2", ProductID: "P2", Quantity: 1, UnitPrice: 50},
	}
	assert.Equal(t, 290.0, ComputeTotal(lines, map[string]float64{"P1": 120}))
}

func TestQuotationRecalculate(t *testing.T) {
	q := &Quotation{Lines: sampleLines(), TaxAmount: 18}
	q.Lines[0].UnitPrice = 120
	q.Recalculate()

	assert.Equal(t, 240.0, q.Lines[0].TotalPrice)
	assert.Equal(t, 340.0, q.Subtotal)
	assert.Equal(t, 358.0, q.TotalAmount)
}

func TestQuotationClone(t *testing.T) {
	q := &Quotation{ID: "Q-1", Lines: sampleLines()}
	clone := q.Clone()
	clone.Lines[0].UnitPrice = 1

	assert.Equal(t, 100.0, q.Lines[0].UnitPrice)
	assert.Nil(t, (*Quotation)(nil).Clone())
}

func TestQuotationExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Quotation{ValidUntil: &past}).Expired(now))
	assert.False(t, (&Quotation{ValidUntil: &future}).Expired(now))
	assert.False(t, (&Quotation{}).Expired(now))
}

func TestOrderBalanceDue(t *testing.T) {
	assert.Equal(t, 40.0, (&Order{TotalAmount: 100, PaidAmount: 60}).BalanceDue())
	assert.Equal(t, 0.0, (&Order{TotalAmount: 100, PaidAmount: 160}).BalanceDue())
}

func TestParseQuotationStatus(t *testing.T) {
	tests := map[string]QuotationStatus{
		"draft":     QuotationStatusDraft,
		"REQUESTED": QuotationStatusRequested,
		" Reviewed": QuotationStatusReviewed,
		"ACCEPTED":  QuotationStatusAccepted,
		"canceled":  QuotationStatusCancelled,
	}
	for raw, want := range tests {
		got, err := ParseQuotationStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseQuotationStatus("sent")
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}

func TestQuotationStatusPredicates(t *testing.T) {
	assert.True(t, QuotationStatusDraft.Editable())
	assert.True(t, QuotationStatusRequested.Editable())
	assert.False(t, QuotationStatusReviewed.Editable())

	assert.False(t, QuotationStatusReviewed.Terminal())
	assert.True(t, QuotationStatusExpired.Terminal())
	assert.True(t, QuotationStatusAccepted.Terminal())
}

func TestParseOrderStatusAndPeriod(t *testing.T) {
	s, err := ParseOrderStatus("PICKED_UP")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPickedUp, s)

	_, err = ParseOrderStatus("lost")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	p, err := ParsePeriodType("day")
	require.NoError(t, err)
	assert.Equal(t, PeriodDaily, p)

	p, err = ParsePeriodType("Weekly")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)
}

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"vendor", "VENDOR", "Vendor "} {
		r, err := ParseRole(raw)
		require.NoError(t, err)
		assert.Equal(t, RoleVendor, r)
	}

	_, err := ParseRole("superuser")
	assert.ErrorIs(t, err, ErrUnknownRole)

	assert.True(t, RoleVendor.Is(RoleAdmin, RoleVendor))
}

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role                                 Role
		request, review, respond, manageOrds bool
	}{
		{RoleCustomer, true, false, true, false},
		{RoleVendor, false, true, false, true},
		{RoleAdmin, false, true, false, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.request, tc.role.CanRequest())
			assert.Equal(t, tc.review, tc.role.CanReview())
			assert.Equal(t, tc.respond, tc.role.CanRespond())
			assert.Equal(t, tc.manageOrds, tc.role.CanManageOrders())
		})
	}
}

func TestGuard(t *testing.T) {
	g := NewGuard()

	release, err := g.Acquire(QuotationKey("Q-1"))
	require.NoError(t, err)
	assert.True(t, g.Busy("quotation:Q-1"))

	_, err = g.Acquire(QuotationKey("Q-1"))
	assert.ErrorIs(t, err, ErrRequestInFlight)

	other, err := g.Acquire(QuotationKey("Q-2"))
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, g.Busy("quotation:Q-1"))

	again, err := g.Acquire(QuotationKey("Q-1"))
	require.NoError(t, err)
	again()
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("boom")

	partial := &PartialConversionError{QuotationID: "Q-1", Succeeded: []string{"O-1"}, FailedVendor: "vendorB", Err: cause}
	assert.ErrorIs(t, partial, cause)
	assert.Contains(t, partial.Error(), "O-1")
	assert.Contains(t, partial.Error(), "vendorB")

	resolution := &VendorResolutionError{LineID: "L1", ProductID: "P1", Err: cause}
	assert.ErrorIs(t, resolution, cause)

	var invalid *InvalidStateError
	err := error(&InvalidStateError{Entity: "quotation", ID: "Q-1", Status: "draft", Action: "respond"})
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "quotation Q-1: cannot respond in status draft", err.Error())
}

func TestRentalPeriodWireType(t *testing.T) {
	cases := []struct {
		period RentalPeriod
		want   string
	}{
		{RentalPeriod{Type: PeriodDaily, Stored: "day"}, "day"},
		{RentalPeriod{Type: PeriodDaily, Stored: "Daily"}, "Daily"},
		{RentalPeriod{Type: PeriodHourly}, "hour"},
		{RentalPeriod{Type: PeriodWeekly}, "week"},
		{RentalPeriod{Type: PeriodCustom}, "custom"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.period.WireType())
	}
}
