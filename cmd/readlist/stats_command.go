package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"readlist/internal/contentindex"
	"readlist/internal/language"
	"readlist/internal/ledger"
)

type countRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type statsView struct {
	Total          int                  `json:"total"`
	Blogs          int                  `json:"blogs"`
	Videos         int                  `json:"videos"`
	Summarized     int                  `json:"summarized"`
	ByCategory     []countRow           `json:"by_category"`
	ByOrigin       []countRow           `json:"by_origin"`
	Latest         *contentindex.Record `json:"latest,omitempty"`
	TrackedVideos  int                  `json:"tracked_videos"`
	TrackedChans   int                  `json:"tracked_channels"`
	TrackedChars   int                  `json:"tracked_chars"`
	TrackedSeconds float64              `json:"tracked_seconds"`
	TrackedLangs   []countRow           `json:"tracked_languages"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show totals over indexed content and tracked transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			view := buildStatsView(ctx.openIndex().All())
			ts := ctx.openTracker().Stats()
			view.TrackedVideos = ts.TotalVideos
			view.TrackedChans = ts.TotalChannels
			view.TrackedChars = ts.TotalTextLength
			view.TrackedSeconds = ts.TotalDuration
			view.TrackedLangs = sortedCounts(ts.Languages)
			if asJSON {
				return writeJSON(cmd, view)
			}
			printStatsView(cmd, view)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print statistics as JSON")
	return cmd
}

func buildStatsView(records []contentindex.Record) statsView {
	view := statsView{Total: len(records)}
	categories := make(map[string]int)
	origins := make(map[string]int)
	var latestAt time.Time
	for i := range records {
		r := records[i]
		switch r.SourceType {
		case contentindex.SourceTypeBlog:
			view.Blogs++
		case contentindex.SourceTypeVideo:
			view.Videos++
		}
		if r.SummaryPath != "" {
			view.Summarized++
		}
		if len(r.Categories) == 0 {
			categories["Uncategorized"]++
		}
		for _, c := range r.Categories {
			categories[c]++
		}
		origin := r.Origin
		if origin == "" {
			origin = "unknown"
		}
		origins[origin]++
		if published, ok := r.Published(); ok && published.After(latestAt) {
			latestAt = published
			view.Latest = &records[i]
		}
	}
	view.ByCategory = sortedCounts(categories)
	view.ByOrigin = sortedCounts(origins)
	return view
}

// sortedCounts orders by count descending, then name.
func sortedCounts(values map[string]int) []countRow {
	rows := make([]countRow, 0, len(values))
	for name, count := range values {
		rows = append(rows, countRow{Name: name, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func countTable(rows []countRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{row.Name, strconv.Itoa(row.Count)})
	}
	return out
}

func printStatsView(cmd *cobra.Command, v statsView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Items: %d (%d blog articles, %d videos), %d summarized\n", v.Total, v.Blogs, v.Videos, v.Summarized)
	if v.Latest != nil {
		fmt.Fprintf(out, "Latest: %s (%s)\n", v.Latest.Title, publishedDate(*v.Latest))
	}
	if len(v.ByCategory) > 0 {
		fmt.Fprintln(out)
		writeTable(out, []string{"Category", "Items"}, countTable(v.ByCategory), []columnAlignment{alignLeft, alignRight})
	}
	if len(v.ByOrigin) > 0 {
		fmt.Fprintln(out)
		writeTable(out, []string{"Origin", "Items"}, countTable(v.ByOrigin), []columnAlignment{alignLeft, alignRight})
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Tracked transcripts: %d videos from %d channels, %d chars, %s\n",
		v.TrackedVideos, v.TrackedChans, v.TrackedChars, (time.Duration(v.TrackedSeconds) * time.Second).String())
	if len(v.TrackedLangs) > 0 {
		rows := countTable(v.TrackedLangs)
		for i := range rows {
			rows[i][0] = fmt.Sprintf("%s (%s)", rows[i][0], language.DisplayName(rows[i][0]))
		}
		writeTable(out, []string{"Language", "Videos"}, rows, []columnAlignment{alignLeft, alignRight})
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent refresh runs and LLM usage totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ctx.openLedger()
			if err != nil {
				return err
			}
			runs, err := l.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			totals, err := l.Totals(cmd.Context())
			if err != nil {
				return err
			}
			byModel, err := l.TotalsByModel(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, struct {
					Runs    []ledger.Run         `json:"runs"`
					Totals  ledger.UsageTotals   `json:"totals"`
					ByModel []ledger.UsageTotals `json:"by_model"`
				}{runs, totals, byModel})
			}
			printStatus(cmd, runs, totals, byModel)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of recent runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	return cmd
}

func printStatus(cmd *cobra.Command, runs []ledger.Run, totals ledger.UsageTotals, byModel []ledger.UsageTotals) {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No refresh runs recorded")
	} else {
		rows := make([][]string, 0, len(runs))
		for _, run := range runs {
			duration := "-"
			if d := run.Duration(); d > 0 {
				duration = d.Round(time.Second).String()
			}
			c := run.Counts
			rows = append(rows, []string{
				shortID(run.ID),
				run.StartedAt.Local().Format("2006-01-02 15:04"),
				duration,
				run.Status,
				strconv.Itoa(c.BlogItems + c.VideoItems),
				fmt.Sprintf("%d/%d", c.RawWritten, c.RawReused),
				fmt.Sprintf("%d/%d/%d", c.Summarized, c.SummariesCached, c.SummariesSkipped),
				strconv.Itoa(run.Warnings),
			})
		}
		writeTable(out,
			[]string{"Run", "Started", "Duration", "Status", "Items", "Written/Reused", "Summ/Cached/Skip", "Warnings"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight})
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "LLM usage: %d calls, %d tokens (%d prompt, %d completion)\n",
		totals.Calls, totals.TotalTokens, totals.PromptTokens, totals.CompletionTokens)
	if len(byModel) > 0 {
		rows := make([][]string, 0, len(byModel))
		for _, m := range byModel {
			rows = append(rows, []string{m.Model, strconv.Itoa(m.Calls), strconv.Itoa(m.TotalTokens)})
		}
		writeTable(out, []string{"Model", "Calls", "Tokens"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
	}
}
