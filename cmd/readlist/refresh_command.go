package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"readlist/internal/ingest"
	"readlist/internal/refresh"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var opts refresh.Options
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Ingest every source and update summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}
			report, err := runner.Run(cmd.Context(), opts)
			if report != nil {
				if asJSON {
					if jsonErr := writeJSON(cmd, report); jsonErr != nil {
						return jsonErr
					}
				} else {
					printReport(cmd.OutOrStdout(), report)
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.SkipSummaries, "skip-summaries", false, "Ingest only; do not generate summaries")
	cmd.Flags().BoolVar(&opts.ForceSummaries, "force-summaries", false, "Regenerate summaries even when cached")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run report as JSON")
	return cmd
}

func printReport(w io.Writer, report *ingest.Report) {
	c := report.Counts
	fmt.Fprintf(w, "Run %s: %s\n", report.RunID, report.Status())
	fmt.Fprintf(w, "  Blog articles: %d\n", c.BlogItems)
	fmt.Fprintf(w, "  Videos:        %d\n", c.VideoItems)
	fmt.Fprintf(w, "  Raw written:   %d (reused %d)\n", c.RawWritten, c.RawReused)
	if c.Deduplicated > 0 {
		fmt.Fprintf(w, "  Deduplicated:  %d\n", c.Deduplicated)
	}
	fmt.Fprintf(w, "  Summaries:     %d new, %d cached, %d skipped\n", c.Summarized, c.SummariesCached, c.SummariesSkipped)
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(w, "  Elapsed:       %s\n", report.FinishedAt.Sub(report.StartedAt).Round(10*time.Millisecond))
	}

	if report.SummaryError != "" {
		fmt.Fprintf(w, "\nSummaries skipped: %s\n", report.SummaryError)
	}
	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(report.Warnings))
		for _, warning := range report.Warnings {
			item := warning.Source
			if warning.Item != "" {
				item = warning.Item
			}
			fmt.Fprintf(w, "  - [%s] %s: %s\n", warning.Stage, item, warning.Reason)
		}
	}
	if len(report.SummaryFailures) > 0 {
		fmt.Fprintf(w, "\nSummary failures (%d):\n", len(report.SummaryFailures))
		for _, failure := range report.SummaryFailures {
			fmt.Fprintf(w, "  - %s %s: %s\n", failure.ContentID, failure.Title, failure.Reason)
		}
	}
}
