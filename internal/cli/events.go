package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmkelly/issuebot/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewEventsCommand creates the events command, which dumps the
// delivery log for inspection.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Dump the webhook delivery log",
		Long: `Dump received webhook deliveries in seq order.

Example:
  issuebot events --db ./issuebot.db
  issuebot events --db ./issuebot.db --limit 20 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "max deliveries to show (0 = all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runEvents(cmd *cobra.Command, opts *EventsOptions) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return outputEventsError(out, ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	deliveries, err := st.ReadDeliveries(cmd.Context(), opts.Limit)
	if err != nil {
		return outputEventsError(out, ExitFailure, "failed to read deliveries", err)
	}

	if opts.Format == "json" {
		return out.Success(deliveries)
	}

	if len(deliveries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "delivery log is empty")
		return nil
	}
	for _, d := range deliveries {
		fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s  %-12s issue=%d  %s\n",
			d.Seq, d.ReceivedAt.UTC().Format(time.RFC3339), d.Action, d.IssueID, d.DeliveryID)
	}
	return nil
}

// outputEventsError reports a command failure through the formatter
// (so JSON consumers get a structured error) and wraps it with the
// exit code for the caller.
func outputEventsError(out *OutputFormatter, code int, message string, err error) error {
	_ = out.Error("PERSISTENCE", fmt.Sprintf("%s: %v", message, err))
	return WrapExitError(code, message, err)
}
