package testsupport

import (
	"context"
	"testing"

	"stylus/internal/config"
	"stylus/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRequest creates a pending track request for tests using the provided store.
func NewRequest(t testing.TB, store *queue.Store, query, requester string) *queue.Item {
	t.Helper()

	item, err := store.NewRequest(context.Background(), query, requester)
	if err != nil {
		t.Fatalf("store.NewRequest: %v", err)
	}
	return item
}

// NewResolved creates a resolved track item for tests using the provided store.
func NewResolved(t testing.TB, store *queue.Store, artist, title string) *queue.Item {
	t.Helper()

	item, err := store.NewResolved(context.Background(), &queue.Item{
		Artist:    artist,
		Title:     title,
		Requester: "test",
	})
	if err != nil {
		t.Fatalf("store.NewResolved: %v", err)
	}
	return item
}
