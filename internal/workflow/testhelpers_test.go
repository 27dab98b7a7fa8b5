package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"stylus/internal/notifications"
	"stylus/internal/queue"
	"stylus/internal/stage"
)

// stubHandler is a scriptable stage for exercising the manager without any
// real dependencies.
type stubHandler struct {
	name        string
	prepareHook func(*queue.Item)
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
	health      stage.Health
}

func newStubHandler(name string) *stubHandler {
	return &stubHandler{name: name, health: stage.Healthy(name)}
}

func (s *stubHandler) Prepare(_ context.Context, item *queue.Item) error {
	if s.prepareHook != nil {
		s.prepareHook(item)
	}
	return s.prepareErr
}

func (s *stubHandler) Execute(_ context.Context, item *queue.Item) error {
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubHandler) HealthCheck(context.Context) stage.Health {
	return s.health
}

// recordingNotifier captures published events. Lanes publish from their own
// goroutines, so access is serialized.
type recordingNotifier struct {
	mu       sync.Mutex
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingNotifier) count(event notifications.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, seen := range r.events {
		if seen == event {
			total++
		}
	}
	return total
}

func (r *recordingNotifier) payloadFor(event notifications.Event) (notifications.Payload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, seen := range r.events {
		if seen == event {
			return r.payloads[i], true
		}
	}
	return nil, false
}

// waitForStatus polls the store until the item reaches the wanted status and
// returns the final row. Failed and review are terminal, so reaching either
// while waiting for something else fails fast instead of timing out.
func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for item %d to reach %s", id, want)
		default:
		}
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if item.Status == want {
			return item
		}
		if queue.IsTerminalStatus(item.Status) && item.Status != want {
			t.Fatalf("item %d reached %s (%s) while waiting for %s", id, item.Status, item.ErrorMessage, want)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

// waitForCondition polls until check passes or the deadline expires.
func waitForCondition(t *testing.T, what string, check func() bool) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for !check() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
