package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"stylus/internal/logging"
	"stylus/internal/queue"
	"stylus/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage staged download files",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staged files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			if stagingDir == "" {
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"staging_dir":      "",
						"files":            []any{},
						"total_size_bytes": 0,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Staging directory not configured")
				return nil
			}

			files, err := staging.ListFiles(stagingDir)
			if err != nil {
				return fmt.Errorf("list staged files: %w", err)
			}

			var totalSize int64
			for _, file := range files {
				totalSize += file.Size
			}

			if ctx.JSONMode() {
				if files == nil {
					files = []staging.FileInfo{}
				}
				return writeJSON(cmd, map[string]any{
					"staging_dir":      stagingDir,
					"files":            files,
					"total_size_bytes": totalSize,
				})
			}

			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No staged files found")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)

			rows := make([][]string, 0, len(files))
			for _, file := range files {
				itemID := "-"
				if file.ItemID > 0 {
					itemID = fmt.Sprintf("%d", file.ItemID)
				}
				rows = append(rows, []string{
					file.Name,
					itemID,
					humanize.Bytes(uint64(file.Size)),
					file.ModTime.UTC().Format("2006-01-02 15:04"),
				})
			}
			table := renderTable(
				[]string{"File", "Item", "Size", "Modified"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			)
			fmt.Fprintln(out, table)
			fmt.Fprintf(out, "Total: %s across %d files\n", humanize.Bytes(uint64(totalSize)), len(files))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAgeHours int
	var orphaned bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale or orphaned staged files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			if stagingDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Staging directory not configured")
				return nil
			}

			logger := logging.NewNop()
			var result staging.CleanResult
			if orphaned {
				active, err := activeItemIDs(ctx, cmd)
				if err != nil {
					return err
				}
				result = staging.CleanOrphaned(cmd.Context(), stagingDir, active, logger)
			} else {
				maxAge := time.Duration(maxAgeHours) * time.Hour
				result = staging.CleanStale(cmd.Context(), stagingDir, maxAge, logger)
			}

			out := cmd.OutOrStdout()
			for _, removed := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", removed)
			}
			for _, cleanErr := range result.Errors {
				fmt.Fprintf(out, "Failed to remove %s: %v\n", cleanErr.Path, cleanErr.Error)
			}
			if len(result.Removed) == 0 && len(result.Errors) == 0 {
				fmt.Fprintln(out, "Nothing to clean")
				return nil
			}
			fmt.Fprintf(out, "Removed %d staged entries\n", len(result.Removed))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeHours, "max-age", 24, "Remove staged files older than this many hours")
	cmd.Flags().BoolVar(&orphaned, "orphaned", false, "Remove staged files whose queue items no longer exist or are terminal")
	return cmd
}

// activeItemIDs collects ids of queue items that may still need their staged files.
func activeItemIDs(ctx *commandContext, cmd *cobra.Command) (map[int64]struct{}, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	items, err := store.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	active := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.IsTerminal() && item.Status != queue.StatusReview {
			continue
		}
		active[item.ID] = struct{}{}
	}
	return active, nil
}
