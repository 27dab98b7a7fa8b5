package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stylus/internal/api"
)

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// outcomeRow is the JSON shape for per-item results of remove and retry.
type outcomeRow struct {
	ID      int64  `json:"id"`
	Outcome string `json:"outcome"`
}

func writeOutcomeRowsJSON(cmd *cobra.Command, rows []outcomeRow) error {
	return writeJSON(cmd, map[string]any{"items": rows})
}

func writeQueueRemoveResultJSON(cmd *cobra.Command, result api.RemoveItemsResult) error {
	rows := make([]outcomeRow, 0, len(result.Items))
	for _, item := range result.Items {
		rows = append(rows, outcomeRow{ID: item.ID, Outcome: string(item.Outcome)})
	}
	return writeOutcomeRowsJSON(cmd, rows)
}

func printQueueRemoveResult(out io.Writer, result api.RemoveItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.RemoveItemNotFound:
			fmt.Fprintf(out, "Item %d not found\n", item.ID)
		case api.RemoveItemRemoved:
			fmt.Fprintf(out, "Item %d removed\n", item.ID)
		}
	}
}

func writeQueueRetryResultJSON(cmd *cobra.Command, result api.RetryItemsResult) error {
	rows := make([]outcomeRow, 0, len(result.Items))
	for _, item := range result.Items {
		rows = append(rows, outcomeRow{ID: item.ID, Outcome: string(item.Outcome)})
	}
	return writeOutcomeRowsJSON(cmd, rows)
}

func printQueueRetryResult(out io.Writer, result api.RetryItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.RetryItemNotFound:
			fmt.Fprintf(out, "Item %d not found\n", item.ID)
		case api.RetryItemNotRetryable:
			fmt.Fprintf(out, "Item %d is not in a retryable state (only failed or review items can be retried)\n", item.ID)
		case api.RetryItemUpdated:
			fmt.Fprintf(out, "Item %d reset for retry\n", item.ID)
		}
	}
}

// Stop results carry extra fields so scripts can tell whether the item was
// mid-stage when the stop landed.
func writeQueueStopResultJSON(cmd *cobra.Command, result api.StopItemsResult) error {
	type stopRow struct {
		ID            int64  `json:"id"`
		Outcome       string `json:"outcome"`
		PriorStatus   string `json:"prior_status,omitempty"`
		WasProcessing bool   `json:"was_processing,omitempty"`
	}
	rows := make([]stopRow, 0, len(result.Items))
	for _, item := range result.Items {
		rows = append(rows, stopRow{
			ID:            item.ID,
			Outcome:       string(item.Outcome),
			PriorStatus:   item.PriorStatus,
			WasProcessing: item.WasProcessing,
		})
	}
	return writeJSON(cmd, map[string]any{"items": rows})
}

func printQueueStopResult(out io.Writer, result api.StopItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.StopItemNotFound:
			fmt.Fprintf(out, "Item %d not found\n", item.ID)
		case api.StopItemAlreadyCompleted:
			fmt.Fprintf(out, "Item %d is already completed\n", item.ID)
		case api.StopItemAlreadyFailed:
			fmt.Fprintf(out, "Item %d is already failed\n", item.ID)
		case api.StopItemInReview:
			fmt.Fprintf(out, "Item %d is already parked for review\n", item.ID)
		case api.StopItemUpdated:
			message := fmt.Sprintf("Item %d stop requested", item.ID)
			if item.WasProcessing {
				statusLabel := formatStatusLabel(item.PriorStatus)
				message = fmt.Sprintf("Item %d stop requested (currently %s; will halt after current stage)", item.ID, statusLabel)
			}
			fmt.Fprintln(out, message)
		}
	}
}
