package main

import (
	"github.com/spf13/cobra"
)

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize [content_id...]",
		Short: "Generate summaries for indexed content",
		Long: "Generate summaries for the given content ids (full ids or unique prefixes).\n" +
			"Without ids every indexed item is visited and cached summaries are reused.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]string, 0, len(args))
			if len(args) > 0 {
				index := ctx.openIndex()
				for _, arg := range args {
					record, err := resolveID(index, arg)
					if err != nil {
						return err
					}
					ids = append(ids, record.ContentID)
				}
			}

			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}
			report, err := runner.Summarize(cmd.Context(), ids, force)
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

	cmd.Flags().BoolVar(&force, "force", false, "Regenerate even when a valid summary is cached")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
