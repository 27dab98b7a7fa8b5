package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stylus/internal/api"
	"stylus/internal/logging"
	"stylus/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var allowDuplicate bool

	cmd := &cobra.Command{
		Use:   "add \"Artist - Title\"",
		Short: "Queue a track request for the daemon to process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			result, err := api.AddTrack(cmd.Context(), api.AddTrackRequest{
				Config:         cfg,
				Store:          store,
				Logger:         logging.NewNop(),
				Query:          args[0],
				Requester:      "cli",
				AllowDuplicate: allowDuplicate,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Duplicate != nil {
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"duplicate": true,
						"id":        result.Duplicate.ID,
						"status":    string(result.Duplicate.Status),
					})
				}
				fmt.Fprintf(out, "%s is already queued as item #%d (%s); use --allow-duplicate to queue anyway\n",
					result.Duplicate.DisplayTitle(), result.Duplicate.ID, result.Duplicate.Status)
				return nil
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"id": result.Item.ID, "query": result.Item.Query})
			}
			fmt.Fprintf(out, "Queued %s as item #%d\n", result.Item.DisplayTitle(), result.Item.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&allowDuplicate, "allow-duplicate", false, "Queue even when an active item matches the same track")
	return cmd
}
