package api

import (
	"context"
	"errors"
	"testing"
)

type queueActionStub struct {
	items map[int64]*QueueItem
}

func (s *queueActionStub) Describe(_ context.Context, id int64) (*QueueItem, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, nil
}

func (s *queueActionStub) Retry(_ context.Context, ids []int64) (int64, error) {
	if len(ids) != 1 {
		return 0, errors.New("expected one id")
	}
	return 1, nil
}

func (s *queueActionStub) Stop(_ context.Context, ids []int64) (int64, error) {
	if len(ids) != 1 {
		return 0, errors.New("expected one id")
	}
	return 1, nil
}

func TestRetryFailedItemsByIDCoversReview(t *testing.T) {
	stub := &queueActionStub{
		items: map[int64]*QueueItem{
			1: {ID: 1, Status: "failed"},
			2: {ID: 2, Status: "review"},
			3: {ID: 3, Status: "pending"},
		},
	}

	result, err := RetryFailedItemsByID(context.Background(), stub, []int64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("RetryFailedItemsByID: %v", err)
	}
	if result.UpdatedCount != 2 {
		t.Fatalf("UpdatedCount = %d, want 2", result.UpdatedCount)
	}
	if len(result.Items) != 4 {
		t.Fatalf("len(Items) = %d, want 4", len(result.Items))
	}
	if result.Items[0].Outcome != RetryItemUpdated || result.Items[1].Outcome != RetryItemUpdated {
		t.Fatalf("terminal items should retry: %+v", result.Items[:2])
	}
	if result.Items[2].Outcome != RetryItemNotRetryable {
		t.Fatalf("pending item outcome = %s, want %s", result.Items[2].Outcome, RetryItemNotRetryable)
	}
	if result.Items[3].Outcome != RetryItemNotFound {
		t.Fatalf("missing item outcome = %s, want %s", result.Items[3].Outcome, RetryItemNotFound)
	}
}

func TestStopItemsByIDSetsWasProcessing(t *testing.T) {
	stub := &queueActionStub{
		items: map[int64]*QueueItem{
			1: {ID: 1, Status: "downloading"},
			2: {ID: 2, Status: "pending"},
		},
	}

	result, err := StopItemsByID(context.Background(), stub, []int64{1, 2})
	if err != nil {
		t.Fatalf("StopItemsByID: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(result.Items))
	}

	if result.Items[0].Outcome != StopItemUpdated {
		t.Fatalf("item 1 outcome = %s, want %s", result.Items[0].Outcome, StopItemUpdated)
	}
	if !result.Items[0].WasProcessing {
		t.Fatalf("item 1 WasProcessing = false, want true")
	}

	if result.Items[1].Outcome != StopItemUpdated {
		t.Fatalf("item 2 outcome = %s, want %s", result.Items[1].Outcome, StopItemUpdated)
	}
	if result.Items[1].WasProcessing {
		t.Fatalf("item 2 WasProcessing = true, want false")
	}
}

func TestStopItemsByIDSkipsTerminalItems(t *testing.T) {
	stub := &queueActionStub{
		items: map[int64]*QueueItem{
			1: {ID: 1, Status: "completed"},
			2: {ID: 2, Status: "failed"},
			3: {ID: 3, Status: "review"},
		},
	}

	result, err := StopItemsByID(context.Background(), stub, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("StopItemsByID: %v", err)
	}
	if result.UpdatedCount != 0 {
		t.Fatalf("UpdatedCount = %d, want 0", result.UpdatedCount)
	}
	want := []StopItemOutcome{StopItemAlreadyCompleted, StopItemAlreadyFailed, StopItemInReview}
	for i, outcome := range want {
		if result.Items[i].Outcome != outcome {
			t.Fatalf("item %d outcome = %s, want %s", i+1, result.Items[i].Outcome, outcome)
		}
	}
}
