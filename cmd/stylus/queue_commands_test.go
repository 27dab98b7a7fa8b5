package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"stylus/internal/queue"
	"stylus/internal/testsupport"
)

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.NewRequest(ctx, "Prince - Purple Rain", "cli"); err != nil {
		t.Fatalf("first request: %v", err)
	}

	beta, err := env.store.NewRequest(ctx, "Portishead - Glory Box", "cli")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	beta.SetFailed("peer went offline")
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Pending")
	requireContains(t, out, "Failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Prince - Purple Rain")
	requireContains(t, out, "Portishead - Glory Box")
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "list", "--status", "melting"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewRequest(ctx, "Prince - Purple Rain", "cli")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	item.SetFailed("no candidates passed filtering")
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed items")

	updated, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("lookup item: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending after retry, got %s", updated.Status)
	}

	updated.SetFailed("no candidates passed filtering")
	if err := env.store.Update(ctx, updated); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "clear", "--failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear failed: %v", err)
	}
	requireContains(t, out, "Cleared 1 failed items")

	out, _, err = runCLI(t, []string{"queue", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueRetrySpecificID(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewRequest(ctx, "Prince - Purple Rain", "cli")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	item.SetFailed("download timed out")
	if err := env.store.Update(ctx, item); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry specific: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d reset for retry", item.ID))
}

func TestQueueStopAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewRequest(ctx, "Prince - Purple Rain", "cli")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "stop", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue stop: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d stop requested", item.ID))

	stopped, err := env.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("lookup item: %v", err)
	}
	if stopped.Status != queue.StatusReview {
		t.Fatalf("expected review after stop, got %s", stopped.Status)
	}

	out, _, err = runCLI(t, []string{"queue", "remove", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Item %d removed", item.ID))

	out, _, err = runCLI(t, []string{"queue", "remove", "9999"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove missing: %v", err)
	}
	requireContains(t, out, "Item 9999 not found")
}

func TestQueueShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	item, err := env.store.NewRequest(ctx, "Prince - Purple Rain", "cli")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "show", fmt.Sprintf("%d", item.ID)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue show: %v", err)
	}
	requireContains(t, out, "Prince - Purple Rain")
	requireContains(t, out, "Pending")
	requireContains(t, out, "Requester: cli")

	if _, _, err := runCLI(t, []string{"queue", "show", "9999"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error for missing item")
	}
}

func TestQueueHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, out, "Database path:")
	requireContains(t, out, "queue_items table present:")

	out, _, err = runCLI(t, []string{"queue", "health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	requireContains(t, out, "Total:")
}

// Queue commands must keep working without a daemon by falling back to the
// database directly.
func TestQueueStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	if _, err := env.store.NewRequest(ctx, "Prince - Purple Rain", "cli"); err != nil {
		t.Fatalf("request: %v", err)
	}

	missingSocket := filepath.Join(testsupport.BaseDir(env.cfg), "missing.sock")
	out, _, err := runCLI(t, []string{"queue", "status"}, missingSocket, env.configPath)
	if err != nil {
		t.Fatalf("queue status without daemon: %v", err)
	}
	requireContains(t, out, "Pending")
}
