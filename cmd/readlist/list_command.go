package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"readlist/internal/contentindex"
	"readlist/internal/services"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var category string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed content, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceType, err := parseSourceType(typeFlag)
			if err != nil {
				return err
			}
			records := filterRecords(ctx.openIndex().All(), sourceType, category)
			sortNewestFirst(records)
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			if asJSON {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No content indexed yet; run `readlist refresh`")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					shortID(r.ContentID),
					typeLabel(r.SourceType),
					publishedDate(r),
					truncate(r.Title, 60),
					truncate(r.Author, 24),
					yesNo(r.SummaryPath != ""),
				})
			}
			writeTable(cmd.OutOrStdout(), []string{"ID", "Type", "Published", "Title", "Author", "Summary"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "Filter by type: blog or video")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category (case-insensitive)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}

func parseSourceType(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return "", nil
	case "blog", contentindex.SourceTypeBlog:
		return contentindex.SourceTypeBlog, nil
	case "video", contentindex.SourceTypeVideo:
		return contentindex.SourceTypeVideo, nil
	default:
		return "", fmt.Errorf("unknown type %q (use blog or video)", value)
	}
}

func filterRecords(records []contentindex.Record, sourceType, category string) []contentindex.Record {
	out := records[:0]
	for _, r := range records {
		if sourceType != "" && r.SourceType != sourceType {
			continue
		}
		if category != "" && !hasCategory(r, category) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func hasCategory(r contentindex.Record, category string) bool {
	for _, c := range r.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

func sortNewestFirst(records []contentindex.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := records[i].Published()
		tj, okJ := records[j].Published()
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI != okJ:
			return okI
		default:
			return records[i].ContentID < records[j].ContentID
		}
	})
}

func publishedDate(r contentindex.Record) string {
	if t, ok := r.Published(); ok {
		return t.UTC().Format("2006-01-02")
	}
	return "-"
}

func typeLabel(sourceType string) string {
	switch sourceType {
	case contentindex.SourceTypeBlog:
		return "blog"
	case contentindex.SourceTypeVideo:
		return "video"
	default:
		return sourceType
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// resolveID matches id exactly or as a unique prefix of an indexed id.
func resolveID(index *contentindex.Index, id string) (contentindex.Record, error) {
	id = strings.TrimSpace(id)
	if r, ok := index.Get(id); ok {
		return r, nil
	}
	var matches []contentindex.Record
	if id != "" {
		for _, r := range index.All() {
			if strings.HasPrefix(r.ContentID, id) {
				matches = append(matches, r)
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return contentindex.Record{}, services.Wrap(services.ErrNotFound, "index", "lookup", fmt.Sprintf("no content with id %q", id), nil)
	default:
		return contentindex.Record{}, services.Wrap(services.ErrValidation, "index", "lookup", fmt.Sprintf("id prefix %q matches %d items", id, len(matches)), nil)
	}
}
