package queueaccess

import (
	"context"

	"stylus/internal/api"
	"stylus/internal/ipc"
	"stylus/internal/queue"
)

// Access is the queue surface CLI commands program against. The same
// interface is satisfied over daemon IPC and by direct database access, so
// commands work identically whether or not a daemon is running.
type Access interface {
	Stats(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, statuses []string) ([]api.QueueItem, error)
	Describe(ctx context.Context, id int64) (*api.QueueItem, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearCompleted(ctx context.Context) (int64, error)
	ClearFailed(ctx context.Context) (int64, error)
	Remove(ctx context.Context, ids []int64) (int64, error)
	ResetStuck(ctx context.Context) (int64, error)
	RetryAll(ctx context.Context) (int64, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	Stop(ctx context.Context, ids []int64) (int64, error)
}

// NewIPCAccess wraps a connected daemon client.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewStoreAccess operates on the database directly, for when no daemon is
// listening.
func NewStoreAccess(store *queue.Store) Access {
	return &storeAccess{store: store, service: api.NewQueueService(store)}
}

type ipcAccess struct {
	client *ipc.Client
}

// removedCount and updatedCount unwrap the two count-bearing IPC response
// shapes so each method body stays a one-liner.
func removedCount(resp *ipc.QueueClearResponse, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

func updatedCount(resp *ipc.QueueResetResponse, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

func (a *ipcAccess) Stats(_ context.Context) (map[string]int, error) {
	resp, err := a.client.Status()
	if err != nil {
		return nil, err
	}
	return resp.QueueStats, nil
}

func (a *ipcAccess) List(_ context.Context, statuses []string) ([]api.QueueItem, error) {
	resp, err := a.client.QueueList(statuses)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *ipcAccess) Describe(_ context.Context, id int64) (*api.QueueItem, error) {
	resp, err := a.client.QueueDescribe(id)
	if err != nil {
		return nil, err
	}
	if resp == nil || !resp.Found {
		return nil, nil
	}
	return &resp.Item, nil
}

func (a *ipcAccess) ClearAll(_ context.Context) (int64, error) {
	return removedCount(a.client.QueueClear())
}

func (a *ipcAccess) ClearCompleted(_ context.Context) (int64, error) {
	return removedCount(a.client.QueueClearCompleted())
}

func (a *ipcAccess) ClearFailed(_ context.Context) (int64, error) {
	return removedCount(a.client.QueueClearFailed())
}

func (a *ipcAccess) Remove(_ context.Context, ids []int64) (int64, error) {
	return removedCount(a.client.QueueRemove(ids))
}

func (a *ipcAccess) ResetStuck(_ context.Context) (int64, error) {
	return updatedCount(a.client.QueueReset())
}

func (a *ipcAccess) RetryAll(_ context.Context) (int64, error) {
	return updatedCount(a.client.QueueRetry(nil))
}

func (a *ipcAccess) Retry(_ context.Context, ids []int64) (int64, error) {
	return updatedCount(a.client.QueueRetry(ids))
}

func (a *ipcAccess) Stop(_ context.Context, ids []int64) (int64, error) {
	return updatedCount(a.client.QueueStop(ids))
}

type storeAccess struct {
	store   *queue.Store
	service *api.QueueService
}

func (a *storeAccess) Stats(ctx context.Context) (map[string]int, error) {
	return a.service.Stats(ctx)
}

func (a *storeAccess) List(ctx context.Context, statuses []string) ([]api.QueueItem, error) {
	var filters []queue.Status
	for _, s := range statuses {
		if parsed, ok := queue.ParseStatus(s); ok {
			filters = append(filters, parsed)
		}
	}
	return a.service.List(ctx, filters...)
}

func (a *storeAccess) Describe(ctx context.Context, id int64) (*api.QueueItem, error) {
	return a.service.Describe(ctx, id)
}

func (a *storeAccess) ClearAll(ctx context.Context) (int64, error) {
	return a.store.Clear(ctx)
}

func (a *storeAccess) ClearCompleted(ctx context.Context) (int64, error) {
	return a.store.ClearCompleted(ctx)
}

func (a *storeAccess) ClearFailed(ctx context.Context) (int64, error) {
	return a.store.ClearFailed(ctx)
}

// Remove deletes one ID at a time so the count reflects items that actually
// existed.
func (a *storeAccess) Remove(ctx context.Context, ids []int64) (int64, error) {
	var count int64
	for _, id := range ids {
		removed, err := a.store.Remove(ctx, id)
		if err != nil {
			return count, err
		}
		if removed {
			count++
		}
	}
	return count, nil
}

func (a *storeAccess) ResetStuck(ctx context.Context) (int64, error) {
	return a.store.ResetStuckProcessing(ctx)
}

func (a *storeAccess) RetryAll(ctx context.Context) (int64, error) {
	return a.store.RetryFailed(ctx)
}

func (a *storeAccess) Retry(ctx context.Context, ids []int64) (int64, error) {
	return a.store.RetryFailed(ctx, ids...)
}

func (a *storeAccess) Stop(ctx context.Context, ids []int64) (int64, error) {
	return a.store.StopItems(ctx, ids...)
}
