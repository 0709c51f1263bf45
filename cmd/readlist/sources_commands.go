package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"readlist/internal/sourcelist"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	sourcesCmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect and edit the source list",
	}
	sourcesCmd.AddCommand(newSourcesListCommand(ctx))
	sourcesCmd.AddCommand(newSourcesAddCommand(ctx))
	return sourcesCmd
}

func newSourcesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List parsed source entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := sourcelist.Parse(cfg.Paths.SourceList)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No sources in %s\n", cfg.Paths.SourceList)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					string(e.Kind),
					e.Category,
					truncate(e.Title, 32),
					e.URL,
					strings.Join(e.Tags, ", "),
				})
			}
			writeTable(cmd.OutOrStdout(), []string{"Kind", "Category", "Title", "URL", "Tags"}, rows, nil)
			return nil
		},
	}
}

func newSourcesAddCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Register a new source in the source list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			kind, err := sourcelist.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			if err := sourcelist.Append(cfg.Paths.SourceList, args[0], kind); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s as %s to %s\n", strings.TrimSpace(args[0]), kind, cfg.Paths.SourceList)
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "blog", "Source kind: blog, video, or channel")
	return cmd
}
