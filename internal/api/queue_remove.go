package api

import "context"

// QueueRemoveService is the slice of the queue surface that removal needs.
type QueueRemoveService interface {
	Remove(ctx context.Context, ids []int64) (int64, error)
}

// RemoveItemOutcome reports what happened to a single requested ID.
type RemoveItemOutcome string

const (
	RemoveItemRemoved  RemoveItemOutcome = "removed"
	RemoveItemNotFound RemoveItemOutcome = "not_found"
)

type RemoveItemResult struct {
	ID      int64             `json:"id"`
	Outcome RemoveItemOutcome `json:"outcome"`
}

type RemoveItemsResult struct {
	RemovedCount int64              `json:"removedCount"`
	Items        []RemoveItemResult `json:"items"`
}

// RemoveItemsByID deletes each requested item individually. Batch removal
// only reports a total count; removing one at a time lets the caller tell
// the user which IDs were never in the queue.
func RemoveItemsByID(ctx context.Context, service QueueRemoveService, ids []int64) (RemoveItemsResult, error) {
	result := RemoveItemsResult{Items: make([]RemoveItemResult, 0, len(ids))}
	for _, id := range ids {
		removed, err := service.Remove(ctx, []int64{id})
		if err != nil {
			return RemoveItemsResult{}, err
		}
		outcome := RemoveItemNotFound
		if removed > 0 {
			outcome = RemoveItemRemoved
			result.RemovedCount += removed
		}
		result.Items = append(result.Items, RemoveItemResult{ID: id, Outcome: outcome})
	}
	return result, nil
}
