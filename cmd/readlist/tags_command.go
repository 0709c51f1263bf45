package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"readlist/internal/summary"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage personal tags merged into summary prompts",
	}
	cmd.AddCommand(newTagsSetCommand(ctx))
	cmd.AddCommand(newTagsListCommand(ctx))
	return cmd
}

func newTagsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <content_id> [tags...]",
		Short: "Replace the personal tags of one item (no tags clears them)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := resolveID(ctx.openIndex(), args[0])
			if err != nil {
				return err
			}
			path := ctx.config.UserTagsPath()
			tags, err := summary.LoadUserTags(path)
			if err != nil {
				return err
			}
			tags.Set(record.ContentID, splitTags(args[1:]))
			if err := tags.Save(path); err != nil {
				return err
			}
			current := tags[record.ContentID]
			if len(current) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared tags for %s\n", shortID(record.ContentID))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tags for %s: %s\n", shortID(record.ContentID), strings.Join(current, ", "))
			return nil
		},
	}
}

func newTagsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List items with personal tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := summary.LoadUserTags(ctx.config.UserTagsPath())
			if err != nil {
				return err
			}
			index := ctx.openIndex()
			ids := tags.IDs()
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No personal tags set")
				return nil
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				title := "(not indexed)"
				if record, ok := index.Get(id); ok {
					title = truncate(record.Title, 60)
				}
				rows = append(rows, []string{shortID(id), title, strings.Join(tags[id], ", ")})
			}
			writeTable(cmd.OutOrStdout(), []string{"ID", "Title", "Tags"}, rows, nil)
			return nil
		},
	}
}

// splitTags accepts both separate arguments and comma-separated lists.
func splitTags(args []string) []string {
	var out []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
