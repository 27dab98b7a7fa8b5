package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"stylus/internal/api"
	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/queue"
)

func newGetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get \"Artist - Title\"",
		Short: "Acquire a track in the foreground without the daemon",
		Long: "Runs the full pipeline for one track in the calling process: metadata " +
			"resolution, tiered search, download, spectral verification, and library " +
			"organization. The request is recorded in the shared queue, so a running " +
			"daemon must be stopped first to avoid double processing.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			result, err := api.AddTrack(cmd.Context(), api.AddTrackRequest{
				Config:         cfg,
				Store:          store,
				Logger:         logger,
				Query:          args[0],
				Requester:      "cli",
				AllowDuplicate: true,
			})
			if err != nil {
				return err
			}
			item := result.Item

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Acquiring %s (item #%d)\n", item.DisplayTitle(), item.ID)

			stopProgress := watchProgress(cmd, store, item.ID)
			finalItem := item
			runErr := func() error {
				defer stopProgress()
				final, err := api.RunTrack(cmd.Context(), api.RunTrackRequest{
					Config:   cfg,
					Store:    store,
					Logger:   logger,
					Notifier: notifications.NewService(cfg),
					Item:     item,
				})
				if final != nil {
					finalItem = final
				}
				return err
			}()

			assessment := api.AssessMatch(finalItem)
			printAssessment(cmd, assessment)
			if ctx.JSONMode() {
				if err := writeJSON(cmd, assessment); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	return cmd
}

// watchProgress renders a progress bar from the item's persisted stage
// progress until the returned stop function is called.
func watchProgress(cmd *cobra.Command, store *queue.Store, itemID int64) func() {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Starting"),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(300 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				item, err := store.GetByID(cmd.Context(), itemID)
				if err != nil || item == nil {
					continue
				}
				label := strings.TrimSpace(item.ProgressStage)
				if message := strings.TrimSpace(item.ProgressMessage); message != "" {
					label = label + ": " + message
				}
				if label != "" {
					bar.Describe(label)
				}
				_ = bar.Set(int(item.ProgressPercent))
			}
		}
	}()

	return func() {
		close(done)
		<-finished
		_ = bar.Finish()
	}
}

func printAssessment(cmd *cobra.Command, a api.MatchAssessment) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Track:      %s\n", a.Track)
	if a.Filename != "" {
		fmt.Fprintf(out, "Match:      %s\n", a.Filename)
	}
	if a.CandidateCount > 0 {
		tier := a.SearchTier
		if tier == "" {
			tier = "unknown"
		}
		fmt.Fprintf(out, "Candidates: %d (%s tier)\n", a.CandidateCount, tier)
	}
	if a.Verdict != "" {
		fmt.Fprintf(out, "Spectral:   %s\n", a.Verdict)
	}
	if a.FinalFile != "" {
		fmt.Fprintf(out, "Library:    %s\n", a.FinalFile)
	}
	if a.ReviewReason != "" {
		fmt.Fprintf(out, "Review:     %s\n", a.ReviewReason)
	}
	fmt.Fprintln(out, a.OutcomeMessage)
}
