package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stylus/internal/logging"
	"stylus/internal/search"
	"stylus/internal/slskd"
	"stylus/internal/trackinfo"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search \"Artist - Title\"",
		Short: "Search Soulseek and rank candidates without downloading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			track := trackinfo.FromQuery(args[0])
			if track.Artist == "" {
				return fmt.Errorf("give me the track as \"Artist - Title\"")
			}

			client, err := slskd.New(
				cfg.Slskd.URL,
				cfg.Slskd.APIKey,
				slskd.WithTimeout(time.Duration(cfg.Slskd.RequestTimeout)*time.Second),
			)
			if err != nil {
				return fmt.Errorf("connect to slskd: %w", err)
			}
			pipeline := search.NewPipeline(client, cfg, logging.NewNop())

			matches, outcome, err := pipeline.FindBestMatches(cmd.Context(), track)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"track":      track,
					"candidates": matches,
					"outcome":    outcome,
				})
			}

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintf(out, "No candidates found for %s - %s (%d tiers, %d queries)\n",
					track.Artist, track.Title, len(outcome.TiersTried), outcome.QueriesTried)
				return nil
			}

			rows := make([][]string, 0, len(matches))
			for _, scored := range matches {
				rows = append(rows, []string{
					fmt.Sprintf("%d", scored.Rank),
					scored.BaseName(),
					scored.DurationDisplay(),
					scored.QualityDisplay(),
					scored.SizeDisplay(),
					fmt.Sprintf("%.2f", scored.Total),
				})
			}
			table := renderTable(
				[]string{"#", "File", "Duration", "Quality", "Size", "Score"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignRight},
			)
			fmt.Fprintln(out, table)
			fmt.Fprintf(out, "Winning tier: %s (%d raw, %d after filtering, %s elapsed)\n",
				outcome.WinningTier, outcome.RawCount, outcome.FilteredCount, outcome.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
}
