package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached raw payloads and summaries",
	}
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove cached payloads no longer referenced by the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}
			result, err := runner.Prune(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d raw payloads and %d summaries\n", result.RawRemoved, result.SummaryRemoved)
			return err
		},
	}
}
