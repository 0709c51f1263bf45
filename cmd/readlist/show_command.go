package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"readlist/internal/contentcache"
	"readlist/internal/contentindex"
	"readlist/internal/summary"
)

type showView struct {
	Record              contentindex.Record          `json:"record"`
	RawAvailable        bool                         `json:"raw_available"`
	TranscriptAvailable *bool                        `json:"transcript_available,omitempty"`
	TranscriptError     string                       `json:"transcript_error,omitempty"`
	Language            string                       `json:"language,omitempty"`
	UserTags            []string                     `json:"user_tags,omitempty"`
	Summary             *contentcache.SummaryPayload `json:"summary,omitempty"`
	SummaryCurrent      bool                         `json:"summary_current"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <content_id>",
		Short: "Show one item with its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := resolveID(ctx.openIndex(), args[0])
			if err != nil {
				return err
			}
			view := buildShowView(ctx, record)
			if asJSON {
				return writeJSON(cmd, view)
			}
			printShowView(cmd, view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func buildShowView(ctx *commandContext, record contentindex.Record) showView {
	cache := ctx.openCache()
	view := showView{Record: record}

	var rawHash string
	switch record.SourceType {
	case contentindex.SourceTypeVideo:
		if raw, ok := cache.LoadRawVideo(record.ContentID); ok {
			view.RawAvailable = true
			available := raw.TranscriptAvailable
			view.TranscriptAvailable = &available
			view.TranscriptError = raw.TranscriptError
			view.Language = raw.Language
			rawHash = raw.ContentHash
		}
	default:
		if raw, ok := cache.LoadRawBlog(record.ContentID); ok {
			view.RawAvailable = true
			view.Language = raw.Language
			rawHash = raw.ContentHash
		}
	}

	if tags, err := summary.LoadUserTags(ctx.config.UserTagsPath()); err == nil {
		view.UserTags = tags[record.ContentID]
	}
	if payload, ok := cache.LoadSummary(record.ContentID); ok {
		view.Summary = &payload
		view.SummaryCurrent = payload.ContentHash == rawHash && promptVersionMatches(ctx, record, payload.PromptVersion)
	}
	return view
}

func promptVersionMatches(ctx *commandContext, record contentindex.Record, version int) bool {
	key, err := summary.KeyFor(record.SourceType)
	if err != nil {
		return false
	}
	prompts, err := ctx.loadPrompts()
	if err != nil {
		return true
	}
	tmpl, ok := prompts[key]
	return !ok || tmpl.Version() == version
}

func printShowView(cmd *cobra.Command, v showView) {
	out := cmd.OutOrStdout()
	r := v.Record
	fmt.Fprintf(out, "%s\n", r.Title)
	fmt.Fprintf(out, "  ID:         %s\n", r.ContentID)
	fmt.Fprintf(out, "  Type:       %s (%s)\n", typeLabel(r.SourceType), r.Origin)
	fmt.Fprintf(out, "  URL:        %s\n", r.OriginalURL)
	if r.Author != "" {
		fmt.Fprintf(out, "  Author:     %s\n", r.Author)
	}
	fmt.Fprintf(out, "  Published:  %s\n", publishedDate(r))
	fmt.Fprintf(out, "  Categories: %s\n", strings.Join(r.Categories, ", "))
	if len(r.Tags) > 0 || len(v.UserTags) > 0 {
		fmt.Fprintf(out, "  Tags:       %s\n", summary.MergeTags(r.Tags, v.UserTags))
	}
	if v.Language != "" {
		fmt.Fprintf(out, "  Language:   %s\n", v.Language)
	}
	fmt.Fprintf(out, "  Raw cached: %s\n", yesNo(v.RawAvailable))
	if v.TranscriptAvailable != nil {
		fmt.Fprintf(out, "  Transcript: %s\n", yesNo(*v.TranscriptAvailable))
		if v.TranscriptError != "" {
			fmt.Fprintf(out, "              %s\n", v.TranscriptError)
		}
	}
	fmt.Fprintf(out, "  Updated:    %s\n", r.LastUpdated.Format("2006-01-02 15:04:05Z07:00"))

	if v.Summary == nil {
		fmt.Fprintln(out, "\nNo summary yet; run `readlist summarize "+shortID(r.ContentID)+"`")
		return
	}
	state := "current"
	if !v.SummaryCurrent {
		state = "stale"
	}
	fmt.Fprintf(out, "\nSummary (%s, prompt v%d, %s):\n\n", v.Summary.Model, v.Summary.PromptVersion, state)
	fmt.Fprintln(out, v.Summary.Summary)
}
