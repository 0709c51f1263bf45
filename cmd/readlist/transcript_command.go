package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"readlist/internal/refresh"
	"readlist/internal/services/httpfetch"
	"readlist/internal/tracker"
	"readlist/internal/youtube"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Manage tracked video transcripts",
	}
	cmd.AddCommand(newTranscriptImportCommand(ctx))
	return cmd
}

func newTranscriptImportCommand(ctx *commandContext) *cobra.Command {
	var file string
	var language string
	var noRefresh bool
	var offline bool

	cmd := &cobra.Command{
		Use:   "import <video_url_or_id>",
		Short: "Register a transcript file for a video, then refresh without summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(file)
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			cfg := ctx.config
			store := ctx.openTracker()

			var lookup tracker.MetadataLookup
			if !offline {
				fetcher := httpfetch.New(cfg.Ingest.UserAgent, cfg.RequestTimeout())
				lookup = youtube.NewClient(fetcher, ctx.log())
			}
			video, err := store.Import(cmd.Context(), args[0], tracker.FileSource{Path: path, Language: language}, lookup, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported transcript for %s (%s, %d chars)\n", video.VideoID, video.Title, video.TextLength)
			if noRefresh {
				return nil
			}

			runner, err := ctx.newRunner()
			if err != nil {
				return err
			}
			report, err := runner.Run(cmd.Context(), refresh.Options{SkipSummaries: true})
			if report != nil {
				printReport(out, report)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the transcript text file")
	cmd.Flags().StringVar(&language, "language", "", "Transcript language code")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Skip the refresh after importing")
	cmd.Flags().BoolVar(&offline, "offline", false, "Do not look up the video title online")
	return cmd
}
