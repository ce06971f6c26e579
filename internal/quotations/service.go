// Package quotations implements the quotation lifecycle engine.
package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rentdesk/rentdesk/internal/backend"
	"github.com/rentdesk/rentdesk/internal/rental"
)

const sweepPageSize = 100

// Backend is the subset of the API client the engine depends on.
type Backend interface {
	GetQuotation(ctx context.Context, id string) (*rental.Quotation, error)
	ListQuotations(ctx context.Context, params backend.ListQuotationsParams) ([]rental.Quotation, error)
	UpdateQuotation(ctx context.Context, id string, update backend.QuotationUpdate) (*rental.Quotation, error)
}

// Service drives quotation transitions. Preconditions are checked against the
// backend's current view before any mutating request, and the returned
// quotation is always the backend's view after the change.
type Service struct {
	backend Backend
	guard   *rental.Guard
	logger  *slog.Logger
	clock   func() time.Time
}

// NewService constructs the engine. guard may be shared with the converter so
// a conversion and a transition never overlap for one quotation.
func NewService(b Backend, guard *rental.Guard, logger *slog.Logger) *Service {
	if guard == nil {
		guard = rental.NewGuard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend: b,
		guard:   guard,
		logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock overrides the time source; intended for tests and the CLI.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// ============================================================================
// READS
// ============================================================================

// Get returns the backend's current view of a quotation.
func (s *Service) Get(ctx context.Context, id string) (*rental.Quotation, error) {
	return s.backend.GetQuotation(ctx, id)
}

// List returns quotations, optionally filtered by status.
func (s *Service) List(ctx context.Context, status rental.QuotationStatus, skip, limit int) ([]rental.Quotation, error) {
	return s.backend.ListQuotations(ctx, backend.ListQuotationsParams{Status: status, Skip: skip, Limit: limit})
}

// ============================================================================
// TRANSITIONS
// ============================================================================

// Submit moves a draft quotation to requested.
func (s *Service) Submit(ctx context.Context, id string) (*rental.Quotation, error) {
	return s.mutate(ctx, id, func(q *rental.Quotation) (backend.QuotationUpdate, error) {
		if q.Status != rental.QuotationStatusDraft {
			return backend.QuotationUpdate{}, invalidState(q, "submit")
		}
		if len(q.Lines) == 0 {
			return backend.QuotationUpdate{}, fmt.Errorf("%w: quotation %s", rental.ErrEmptyQuotation, q.ID)
		}
		return statusUpdate(rental.QuotationStatusRequested), nil
	})
}

// SubmitReview applies vendor price edits and moves the quotation to reviewed.
// edits maps line id to the new unit price; lines without an edit keep their
// stored price, which must already be positive.
func (s *Service) SubmitReview(ctx context.Context, id string, edits map[string]float64) (*rental.Quotation, error) {
	return s.mutate(ctx, id, func(q *rental.Quotation) (backend.QuotationUpdate, error) {
		if !q.Status.Editable() {
			return backend.QuotationUpdate{}, invalidState(q, "review")
		}
		if len(q.Lines) == 0 {
			return backend.QuotationUpdate{}, fmt.Errorf("%w: quotation %s", rental.ErrEmptyQuotation, q.ID)
		}
		reviewed, err := PreviewReview(q, edits)
		if err != nil {
			return backend.QuotationUpdate{}, err
		}
		update := statusUpdate(rental.QuotationStatusReviewed)
		update.Lines = make([]backend.LinePriceUpdate, 0, len(reviewed.Lines))
		for _, line := range reviewed.Lines {
			if line.UnitPrice <= 0 {
				return backend.QuotationUpdate{}, fmt.Errorf("%w: line %s", ErrUnpricedLine, line.ID)
			}
			update.Lines = append(update.Lines, backend.LinePriceUpdate{
				ID:         line.ID,
				UnitPrice:  line.UnitPrice,
				TotalPrice: line.TotalPrice,
			})
		}
		return update, nil
	})
}

// RespondToReview records the customer's acceptance or rejection of a reviewed
// quotation. Acceptance past the deadline fails locally; the backend remains
// authoritative.
func (s *Service) RespondToReview(ctx context.Context, id string, accept bool) (*rental.Quotation, error) {
	return s.mutate(ctx, id, func(q *rental.Quotation) (backend.QuotationUpdate, error) {
		action := "reject"
		target := rental.QuotationStatusRejected
		if accept {
			action = "accept"
			target = rental.QuotationStatusAccepted
		}
		if q.Status != rental.QuotationStatusReviewed {
			return backend.QuotationUpdate{}, invalidState(q, action)
		}
		if accept && q.Expired(s.clock()) {
			return backend.QuotationUpdate{}, &rental.ExpiredError{QuotationID: q.ID, ValidUntil: *q.ValidUntil}
		}
		return statusUpdate(target), nil
	})
}

// Cancel moves any non-terminal quotation to cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (*rental.Quotation, error) {
	return s.mutate(ctx, id, func(q *rental.Quotation) (backend.QuotationUpdate, error) {
		if q.Status.Terminal() {
			return backend.QuotationUpdate{}, invalidState(q, "cancel")
		}
		return statusUpdate(rental.QuotationStatusCancelled), nil
	})
}

// Expire moves a non-terminal quotation past its deadline to expired.
func (s *Service) Expire(ctx context.Context, id string) (*rental.Quotation, error) {
	return s.mutate(ctx, id, func(q *rental.Quotation) (backend.QuotationUpdate, error) {
		if q.Status.Terminal() {
			return backend.QuotationUpdate{}, invalidState(q, "expire")
		}
		if !q.Expired(s.clock()) {
			return backend.QuotationUpdate{}, fmt.Errorf("%w: quotation %s", ErrNotYetDue, q.ID)
		}
		return statusUpdate(rental.QuotationStatusExpired), nil
	})
}

// ExpireDue scans every non-terminal quotation and expires the overdue ones.
// Per-quotation failures are collected so one bad record does not stop the
// sweep.
func (s *Service) ExpireDue(ctx context.Context) ([]string, error) {
	now := s.clock()
	var due []string
	for skip := 0; ; skip += sweepPageSize {
		page, err := s.backend.ListQuotations(ctx, backend.ListQuotationsParams{Skip: skip, Limit: sweepPageSize})
		if err != nil {
			return nil, fmt.Errorf("list quotations: %w", err)
		}
		for i := range page {
			if !page[i].Status.Terminal() && page[i].Expired(now) {
				due = append(due, page[i].ID)
			}
		}
		if len(page) < sweepPageSize {
			break
		}
	}

	expired := make([]string, 0, len(due))
	var errs []error
	for _, id := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.Expire(ctx, id); err != nil {
			s.logger.Warn("expire quotation", slog.String("quotation_id", id), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("expire %s: %w", id, err))
			continue
		}
		expired = append(expired, id)
	}
	if len(expired) > 0 {
		s.logger.Info("expired overdue quotations", slog.Int("count", len(expired)))
	}
	return expired, errors.Join(errs...)
}

// PreviewReview returns a copy of q with the edits applied and every line and
// quotation total recomputed. q is not modified.
func PreviewReview(q *rental.Quotation, edits map[string]float64) (*rental.Quotation, error) {
	preview := q.Clone()
	for lineID, price := range edits {
		line, ok := preview.Line(lineID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLine, lineID)
		}
		if price < 0 {
			return nil, fmt.Errorf("%w: line %s", ErrInvalidPrice, lineID)
		}
		line.UnitPrice = price
	}
	preview.Recalculate()
	return preview, nil
}

// mutate serializes a transition per quotation: take the guard, load the
// current state, check preconditions, then send the change.
func (s *Service) mutate(ctx context.Context, id string, plan func(*rental.Quotation) (backend.QuotationUpdate, error)) (*rental.Quotation, error) {
	release, err := s.guard.Acquire(rental.QuotationKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.backend.GetQuotation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load quotation: %w", err)
	}
	update, err := plan(current)
	if err != nil {
		return nil, err
	}
	updated, err := s.backend.UpdateQuotation(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update quotation: %w", err)
	}
	s.logger.Info("quotation transitioned",
		slog.String("quotation_id", id),
		slog.String("from", string(current.Status)),
		slog.String("to", string(updated.Status)),
	)
	return updated, nil
}

func statusUpdate(status rental.QuotationStatus) backend.QuotationUpdate {
	return backend.QuotationUpdate{Status: &status}
}

func invalidState(q *rental.Quotation, action string) error {
	return &rental.InvalidStateError{
		Entity: "quotation",
		ID:     q.ID,
		Status: string(q.Status),
		Action: action,
	}
}
