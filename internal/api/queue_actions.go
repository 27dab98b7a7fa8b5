package api

import (
	"context"

	"stylus/internal/queue"
)

// QueueActionService is the queue surface the per-item retry and stop flows
// need. Both the IPC client and direct store access satisfy it.
type QueueActionService interface {
	Describe(ctx context.Context, id int64) (*QueueItem, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	Stop(ctx context.Context, ids []int64) (int64, error)
}

type RetryItemOutcome string

const (
	RetryItemUpdated      RetryItemOutcome = "retried"
	RetryItemNotFound     RetryItemOutcome = "not_found"
	RetryItemNotRetryable RetryItemOutcome = "not_retryable"
)

type RetryItemResult struct {
	ID        int64            `json:"id"`
	Outcome   RetryItemOutcome `json:"outcome"`
	NewStatus string           `json:"new_status,omitempty"`
}

type RetryItemsResult struct {
	UpdatedCount int64             `json:"updatedCount"`
	Items        []RetryItemResult `json:"items"`
}

type StopItemOutcome string

const (
	StopItemUpdated          StopItemOutcome = "stopped"
	StopItemNotFound         StopItemOutcome = "not_found"
	StopItemAlreadyCompleted StopItemOutcome = "already_completed"
	StopItemAlreadyFailed    StopItemOutcome = "already_failed"
	StopItemInReview         StopItemOutcome = "in_review"
)

type StopItemResult struct {
	ID            int64           `json:"id"`
	Outcome       StopItemOutcome `json:"outcome"`
	PriorStatus   string          `json:"prior_status,omitempty"`
	WasProcessing bool            `json:"was_processing,omitempty"`
}

type StopItemsResult struct {
	UpdatedCount int64            `json:"updatedCount"`
	Items        []StopItemResult `json:"items"`
}

// RetryFailedItemsByID resets the named items back to pending, reporting a
// per-item outcome. Only failed and review-parked items qualify.
func RetryFailedItemsByID(ctx context.Context, service QueueActionService, ids []int64) (RetryItemsResult, error) {
	result := RetryItemsResult{Items: make([]RetryItemResult, 0, len(ids))}
	for _, id := range ids {
		item, err := service.Describe(ctx, id)
		if err != nil {
			return RetryItemsResult{}, err
		}
		entry, updated, err := retryOne(ctx, service, id, item)
		if err != nil {
			return RetryItemsResult{}, err
		}
		result.UpdatedCount += updated
		result.Items = append(result.Items, entry)
	}
	return result, nil
}

func retryOne(ctx context.Context, service QueueActionService, id int64, item *QueueItem) (RetryItemResult, int64, error) {
	if item == nil {
		return RetryItemResult{ID: id, Outcome: RetryItemNotFound}, 0, nil
	}
	status, ok := queue.ParseStatus(item.Status)
	if !ok || (status != queue.StatusFailed && status != queue.StatusReview) {
		return RetryItemResult{ID: id, Outcome: RetryItemNotRetryable}, 0, nil
	}
	updated, err := service.Retry(ctx, []int64{id})
	if err != nil {
		return RetryItemResult{}, 0, err
	}
	if updated == 0 {
		// The item changed state between Describe and Retry.
		return RetryItemResult{ID: id, Outcome: RetryItemNotRetryable}, 0, nil
	}
	return RetryItemResult{ID: id, Outcome: RetryItemUpdated, NewStatus: string(queue.StatusPending)}, updated, nil
}

// StopItemsByID halts the named items, reporting a per-item outcome. Items
// already in a terminal or review state are left alone.
func StopItemsByID(ctx context.Context, service QueueActionService, ids []int64) (StopItemsResult, error) {
	result := StopItemsResult{Items: make([]StopItemResult, 0, len(ids))}
	for _, id := range ids {
		item, err := service.Describe(ctx, id)
		if err != nil {
			return StopItemsResult{}, err
		}
		entry, updated, err := stopOne(ctx, service, id, item)
		if err != nil {
			return StopItemsResult{}, err
		}
		result.UpdatedCount += updated
		result.Items = append(result.Items, entry)
	}
	return result, nil
}

func stopOne(ctx context.Context, service QueueActionService, id int64, item *QueueItem) (StopItemResult, int64, error) {
	if item == nil {
		return StopItemResult{ID: id, Outcome: StopItemNotFound}, 0, nil
	}
	status := item.Status
	parsed, ok := queue.ParseStatus(status)
	if ok {
		switch parsed {
		case queue.StatusCompleted:
			return StopItemResult{ID: id, Outcome: StopItemAlreadyCompleted, PriorStatus: status}, 0, nil
		case queue.StatusFailed:
			return StopItemResult{ID: id, Outcome: StopItemAlreadyFailed, PriorStatus: status}, 0, nil
		case queue.StatusReview:
			return StopItemResult{ID: id, Outcome: StopItemInReview, PriorStatus: status}, 0, nil
		}
	}
	wasProcessing := ok && queue.IsProcessingStatus(parsed)

	updated, err := service.Stop(ctx, []int64{id})
	if err != nil {
		return StopItemResult{}, 0, err
	}
	if updated == 0 {
		return StopItemResult{ID: id, Outcome: StopItemAlreadyFailed, PriorStatus: status}, 0, nil
	}
	return StopItemResult{ID: id, Outcome: StopItemUpdated, PriorStatus: status, WasProcessing: wasProcessing}, updated, nil
}
