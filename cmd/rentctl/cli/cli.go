// Package cli implements the rentctl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rentdesk/rentdesk/internal/orders"
	"github.com/rentdesk/rentdesk/internal/rental"
)

// Exit codes returned by the command methods.
const (
	ExitOK      = 0
	ExitFailed  = 1
	ExitUsage   = 2
	ExitPartial = 10
)

// Lifecycle is the quotation workflow driven by the operator commands.
type Lifecycle interface {
	Get(ctx context.Context, id string) (*rental.Quotation, error)
	Submit(ctx context.Context, id string) (*rental.Quotation, error)
	SubmitReview(ctx context.Context, id string, edits map[string]float64) (*rental.Quotation, error)
	RespondToReview(ctx context.Context, id string, accept bool) (*rental.Quotation, error)
	Cancel(ctx context.Context, id string) (*rental.Quotation, error)
	ExpireDue(ctx context.Context) ([]string, error)
}

// Converter turns an accepted quotation into vendor orders.
type Converter interface {
	Convert(ctx context.Context, quotationID string) (*orders.ConversionResult, error)
}

// OrderReader loads a single order.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*rental.Order, error)
}

// SweepEnqueuer hands the expiry sweep to the worker instead of running it inline.
type SweepEnqueuer interface {
	EnqueueExpireDue(ctx context.Context) (string, error)
}

// OpsCLI groups the operator commands around their collaborators.
type OpsCLI struct {
	lifecycle Lifecycle
	converter Converter
	orders    OrderReader
	sweeps    SweepEnqueuer
}

// NewOpsCLI validates the collaborators. sweeps may be nil when no queue is configured.
func NewOpsCLI(lifecycle Lifecycle, converter Converter, orderReader OrderReader, sweeps SweepEnqueuer) (*OpsCLI, error) {
	if lifecycle == nil {
		return nil, errors.New("rentctl: quotation lifecycle required")
	}
	if converter == nil {
		return nil, errors.New("rentctl: converter required")
	}
	if orderReader == nil {
		return nil, errors.New("rentctl: order reader required")
	}
	return &OpsCLI{lifecycle: lifecycle, converter: converter, orders: orderReader, sweeps: sweeps}, nil
}

// Output carries the shared output flags of every command.
type Output struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o *Output) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

func (o Output) fail(cmd string, err error) int {
	_, _ = fmt.Fprintf(o.Stderr, "%s: %v\n", cmd, err)
	return ExitFailed
}

func (o Output) usage(cmd, msg string) int {
	_, _ = fmt.Fprintf(o.Stderr, "%s: %s\n", cmd, msg)
	return ExitUsage
}

func (o Output) encode(cmd string, v any) int {
	enc := json.NewEncoder(o.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(o.Stderr, "%s: encode json: %v\n", cmd, err)
		return ExitFailed
	}
	return ExitOK
}

// ============================================================================
// QUOTATIONS
// ============================================================================

// QuoteOptions identifies the quotation a command acts on.
type QuoteOptions struct {
	Output
	QuotationID string
}

// ReviewOptions carries line price edits as line=price pairs.
type ReviewOptions struct {
	QuoteOptions
	Prices []string
}

// RespondOptions carries the customer decision.
type RespondOptions struct {
	QuoteOptions
	Accept bool
	Reject bool
}

// GetCommand prints one quotation.
func (c *OpsCLI) GetCommand(ctx context.Context, opts QuoteOptions) int {
	return c.quoteCommand(ctx, "quote get", opts, c.lifecycle.Get)
}

// SubmitCommand sends a draft quotation for vendor review.
func (c *OpsCLI) SubmitCommand(ctx context.Context, opts QuoteOptions) int {
	return c.quoteCommand(ctx, "quote submit", opts, c.lifecycle.Submit)
}

// CancelCommand cancels an editable quotation.
func (c *OpsCLI) CancelCommand(ctx context.Context, opts QuoteOptions) int {
	return c.quoteCommand(ctx, "quote cancel", opts, c.lifecycle.Cancel)
}

// ReviewCommand prices a requested quotation on the vendor's behalf.
func (c *OpsCLI) ReviewCommand(ctx context.Context, opts ReviewOptions) int {
	edits, err := ParsePriceEdits(opts.Prices)
	if err != nil {
		opts.defaults()
		return opts.usage("quote review", err.Error())
	}
	return c.quoteCommand(ctx, "quote review", opts.QuoteOptions, func(ctx context.Context, id string) (*rental.Quotation, error) {
		return c.lifecycle.SubmitReview(ctx, id, edits)
	})
}

// RespondCommand records the customer's accept or reject decision.
func (c *OpsCLI) RespondCommand(ctx context.Context, opts RespondOptions) int {
	if opts.Accept == opts.Reject {
		opts.defaults()
		return opts.usage("quote respond", "exactly one of --accept or --reject is required")
	}
	return c.quoteCommand(ctx, "quote respond", opts.QuoteOptions, func(ctx context.Context, id string) (*rental.Quotation, error) {
		return c.lifecycle.RespondToReview(ctx, id, opts.Accept)
	})
}

func (c *OpsCLI) quoteCommand(ctx context.Context, name string, opts QuoteOptions, fn func(context.Context, string) (*rental.Quotation, error)) int {
	opts.defaults()
	id := strings.TrimSpace(opts.QuotationID)
	if id == "" {
		return opts.usage(name, "quotation id is required")
	}
	q, err := fn(ctx, id)
	if err != nil {
		return opts.fail(name, err)
	}
	if opts.JSONOutput {
		return opts.encode(name, q)
	}
	renderQuotation(opts.Stdout, q)
	return ExitOK
}

// ParsePriceEdits turns line=price pairs into review edits.
func ParsePriceEdits(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, errors.New("at least one --price line=amount is required")
	}
	edits := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		lineID, raw, ok := strings.Cut(pair, "=")
		lineID = strings.TrimSpace(lineID)
		if !ok || lineID == "" {
			return nil, fmt.Errorf("invalid price %q (expected line=amount)", pair)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", pair, err)
		}
		edits[lineID] = price
	}
	return edits, nil
}

func renderQuotation(w io.Writer, q *rental.Quotation) {
	_, _ = fmt.Fprintf(w, "Quotation %s (%s)\n", q.Number, q.ID)
	_, _ = fmt.Fprintf(w, "Customer: %s\nStatus:   %s\n", q.CustomerName, q.Status)
	if q.ValidUntil != nil {
		_, _ = fmt.Fprintf(w, "Valid until: %s\n", q.ValidUntil.UTC().Format("2006-01-02 15:04"))
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "LINE\tPRODUCT\tQTY\tPERIOD\tUNIT\tTOTAL")
	for _, line := range q.Lines {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\t%.2f\n",
			line.ID, line.ProductName, line.Quantity, line.Period.Type, line.UnitPrice, line.TotalPrice)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "Subtotal %.2f  Tax %.2f  Total %.2f\n", q.Subtotal, q.TaxAmount, q.TotalAmount)
}

// ============================================================================
// SWEEP AND CONVERSION
// ============================================================================

// ExpireDueOptions controls the expiry sweep.
type ExpireDueOptions struct {
	Output
	Enqueue bool
}

type expireSummary struct {
	Expired []string `json:"expired,omitempty"`
	TaskID  string   `json:"task_id,omitempty"`
	Errors  string   `json:"errors,omitempty"`
}

// ExpireDueCommand runs the sweep inline, or enqueues it for the worker.
func (c *OpsCLI) ExpireDueCommand(ctx context.Context, opts ExpireDueOptions) int {
	opts.defaults()
	const name = "quote expire-due"
	if opts.Enqueue {
		if c.sweeps == nil {
			return opts.usage(name, "--enqueue requires a reachable REDIS_ADDR")
		}
		taskID, err := c.sweeps.EnqueueExpireDue(ctx)
		if err != nil {
			return opts.fail(name, err)
		}
		if opts.JSONOutput {
			return opts.encode(name, expireSummary{TaskID: taskID})
		}
		_, _ = fmt.Fprintf(opts.Stdout, "enqueued expiry sweep %s\n", taskID)
		return ExitOK
	}

	expired, sweepErr := c.lifecycle.ExpireDue(ctx)
	summary := expireSummary{Expired: expired}
	if sweepErr != nil {
		summary.Errors = sweepErr.Error()
	}
	if opts.JSONOutput {
		if code := opts.encode(name, summary); code != ExitOK {
			return code
		}
	} else {
		_, _ = fmt.Fprintf(opts.Stdout, "expired %d quotation(s)\n", len(expired))
		for _, id := range expired {
			_, _ = fmt.Fprintf(opts.Stdout, "  %s\n", id)
		}
	}
	if sweepErr != nil {
		return opts.fail(name, sweepErr)
	}
	return ExitOK
}

type partialSummary struct {
	QuotationID       string   `json:"quotation_id"`
	SucceededOrderIDs []string `json:"succeeded_order_ids"`
	FailedVendorID    string   `json:"failed_vendor_id"`
	Error             string   `json:"error"`
}

// ConvertCommand converts an accepted quotation. A partial failure exits with
// ExitPartial so scripts can retry; a retry resumes the remaining vendors.
func (c *OpsCLI) ConvertCommand(ctx context.Context, opts QuoteOptions) int {
	opts.defaults()
	const name = "quote convert"
	id := strings.TrimSpace(opts.QuotationID)
	if id == "" {
		return opts.usage(name, "quotation id is required")
	}
	result, err := c.converter.Convert(ctx, id)
	var partial *rental.PartialConversionError
	if errors.As(err, &partial) {
		if opts.JSONOutput {
			_ = opts.encode(name, partialSummary{
				QuotationID:       partial.QuotationID,
				SucceededOrderIDs: partial.Succeeded,
				FailedVendorID:    partial.FailedVendor,
				Error:             partial.Err.Error(),
			})
		}
		_, _ = fmt.Fprintf(opts.Stderr, "%s: %v\n", name, err)
		return ExitPartial
	}
	if err != nil {
		return opts.fail(name, err)
	}
	if opts.JSONOutput {
		return opts.encode(name, result)
	}
	tw := tabwriter.NewWriter(opts.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "VENDOR\tORDER\tLINES\tRESUMED")
	for _, o := range result.Orders {
		vendor := o.VendorName
		if vendor == "" {
			vendor = o.VendorID
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", vendor, o.OrderID, len(o.LineIDs), o.Resumed)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(opts.Stdout, "next: %s %s\n", result.Next.Action, result.Next.Path)
	return ExitOK
}

// ============================================================================
// ORDERS
// ============================================================================

// OrderOptions identifies the order a command acts on.
type OrderOptions struct {
	Output
	OrderID string
}

// TimelineCommand prints the progress timeline of an order.
func (c *OpsCLI) TimelineCommand(ctx context.Context, opts OrderOptions) int {
	opts.defaults()
	const name = "order timeline"
	id := strings.TrimSpace(opts.OrderID)
	if id == "" {
		return opts.usage(name, "order id is required")
	}
	order, err := c.orders.GetOrder(ctx, id)
	if err != nil {
		return opts.fail(name, err)
	}
	tl := orders.BuildTimeline(order)
	if opts.JSONOutput {
		return opts.encode(name, tl)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Order %s (%s)\n", order.Number, order.ID)
	if tl.Cancelled {
		_, _ = fmt.Fprintln(opts.Stdout, "cancelled")
		return ExitOK
	}
	for _, step := range tl.Steps {
		mark := "[ ]"
		switch {
		case step.Current:
			mark = "[>]"
		case step.Reached:
			mark = "[x]"
		}
		_, _ = fmt.Fprintf(opts.Stdout, "%s %s\n", mark, step.Label)
	}
	return ExitOK
}
