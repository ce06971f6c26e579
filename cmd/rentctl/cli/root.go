package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Factory builds the OpsCLI on first use so help and usage errors never dial
// the backend. The returned func releases what the factory opened.
type Factory func(ctx context.Context) (*OpsCLI, func(), error)

// Execute runs rentctl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, factory Factory) int {
	code := ExitOK
	var jsonOutput bool

	run := func(fn func(*OpsCLI, Output) int) func(*cobra.Command, []string) {
		return func(cmd *cobra.Command, _ []string) {
			ops, release, err := factory(cmd.Context())
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "rentctl: %v\n", err)
				code = ExitFailed
				return
			}
			defer release()
			code = fn(ops, Output{JSONOutput: jsonOutput, Stdout: stdout, Stderr: stderr})
		}
	}

	root := &cobra.Command{
		Use:           "rentctl",
		Short:         "Operator tooling for the rental gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")

	quote := &cobra.Command{Use: "quote", Short: "Quotation lifecycle"}
	quote.AddCommand(
		&cobra.Command{
			Use:   "get QUOTATION_ID",
			Short: "Show a quotation",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				run(func(ops *OpsCLI, out Output) int {
					return ops.GetCommand(cmd.Context(), QuoteOptions{Output: out, QuotationID: args[0]})
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "submit QUOTATION_ID",
			Short: "Submit a draft for vendor review",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				run(func(ops *OpsCLI, out Output) int {
					return ops.SubmitCommand(cmd.Context(), QuoteOptions{Output: out, QuotationID: args[0]})
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "cancel QUOTATION_ID",
			Short: "Cancel an editable quotation",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				run(func(ops *OpsCLI, out Output) int {
					return ops.CancelCommand(cmd.Context(), QuoteOptions{Output: out, QuotationID: args[0]})
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "convert QUOTATION_ID",
			Short: "Convert an accepted quotation into vendor orders",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				run(func(ops *OpsCLI, out Output) int {
					return ops.ConvertCommand(cmd.Context(), QuoteOptions{Output: out, QuotationID: args[0]})
				})(cmd, args)
			},
		},
		reviewCommand(run),
		respondCommand(run),
		expireCommand(run),
	)

	order := &cobra.Command{Use: "order", Short: "Rental orders"}
	order.AddCommand(&cobra.Command{
		Use:   "timeline ORDER_ID",
		Short: "Show the progress timeline of an order",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			run(func(ops *OpsCLI, out Output) int {
				return ops.TimelineCommand(cmd.Context(), OrderOptions{Output: out, OrderID: args[0]})
			})(cmd, args)
		},
	})

	root.AddCommand(quote, order)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "rentctl: %v\n", err)
		return ExitUsage
	}
	return code
}

type runner func(fn func(*OpsCLI, Output) int) func(*cobra.Command, []string)

func reviewCommand(run runner) *cobra.Command {
	var prices []string
	cmd := &cobra.Command{
		Use:   "review QUOTATION_ID --price LINE=AMOUNT...",
		Short: "Price a requested quotation",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Run = func(cmd *cobra.Command, args []string) {
		run(func(ops *OpsCLI, out Output) int {
			return ops.ReviewCommand(cmd.Context(), ReviewOptions{
				QuoteOptions: QuoteOptions{Output: out, QuotationID: args[0]},
				Prices:       prices,
			})
		})(cmd, args)
	}
	cmd.Flags().StringArrayVar(&prices, "price", nil, "line unit price as LINE=AMOUNT (repeatable)")
	return cmd
}

func respondCommand(run runner) *cobra.Command {
	var accept, reject bool
	cmd := &cobra.Command{
		Use:   "respond QUOTATION_ID (--accept | --reject)",
		Short: "Record the customer decision on a reviewed quotation",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Run = func(cmd *cobra.Command, args []string) {
		run(func(ops *OpsCLI, out Output) int {
			return ops.RespondCommand(cmd.Context(), RespondOptions{
				QuoteOptions: QuoteOptions{Output: out, QuotationID: args[0]},
				Accept:       accept,
				Reject:       reject,
			})
		})(cmd, args)
	}
	cmd.Flags().BoolVar(&accept, "accept", false, "accept the reviewed prices")
	cmd.Flags().BoolVar(&reject, "reject", false, "reject the reviewed prices")
	cmd.MarkFlagsMutuallyExclusive("accept", "reject")
	return cmd
}

func expireCommand(run runner) *cobra.Command {
	var enqueue bool
	cmd := &cobra.Command{
		Use:   "expire-due",
		Short: "Expire every quotation past its validity deadline",
		Args:  cobra.NoArgs,
	}
	cmd.Run = func(cmd *cobra.Command, args []string) {
		run(func(ops *OpsCLI, out Output) int {
			return ops.ExpireDueCommand(cmd.Context(), ExpireDueOptions{Output: out, Enqueue: enqueue})
		})(cmd, args)
	}
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "hand the sweep to the worker queue")
	return cmd
}
