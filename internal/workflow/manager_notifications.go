package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/queue"
)

// publishQuiet sends an event and logs delivery problems at debug level.
// Notification failures never affect item processing.
func (m *Manager) publishQuiet(ctx context.Context, label string, event notifications.Event, payload notifications.Payload) {
	err := m.notifier.Publish(ctx, event, payload)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		m.logger.Debug(fmt.Sprintf("daemon shutting down, could not send %s notification", label))
		return
	}
	m.logger.Debug(fmt.Sprintf("%s notification failed", label), logging.Error(err))
}

func (m *Manager) notifyStageError(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	if m.notifier == nil || stageErr == nil {
		return
	}
	m.publishQuiet(ctx, "stage error", notifications.EventError, notifications.Payload{
		"error":   stageErr,
		"context": fmt.Sprintf("%s (item #%d)", stageName, item.ID),
	})
}

// onItemStarted latches the queue-active flag on the first claimed item and
// announces the run. Later claims while the queue is already active are
// silent.
func (m *Manager) onItemStarted(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, ok := m.statsForNotification(ctx, "start")
	if !ok {
		return
	}

	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = time.Now()
	m.mu.Unlock()

	m.publishQuiet(ctx, "queue start", notifications.EventQueueStarted, notifications.Payload{
		"count": countActiveItems(stats),
	})
}

// checkQueueCompletion announces the end of a run once no active items
// remain, reporting processed and failed totals plus elapsed time.
func (m *Manager) checkQueueCompletion(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	stats, ok := m.statsForNotification(ctx, "completion")
	if !ok {
		return
	}
	if countActiveItems(stats) > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	start := m.queueStart
	m.queueActive = false
	m.queueStart = time.Time{}
	m.mu.Unlock()

	duration := time.Duration(0)
	if !start.IsZero() {
		duration = time.Since(start)
	}
	m.publishQuiet(ctx, "queue completion", notifications.EventQueueCompleted, notifications.Payload{
		"processed": stats[queue.StatusCompleted],
		"failed":    stats[queue.StatusFailed],
		"duration":  duration,
	})
}

// statsForNotification reads queue stats, logging and reporting false when
// they are unavailable so the caller skips its notification.
func (m *Manager) statsForNotification(ctx context.Context, label string) (map[queue.Status]int, bool) {
	stats, err := m.store.Stats(ctx)
	if err == nil {
		return stats, true
	}
	if errors.Is(err, context.Canceled) {
		m.logger.Debug(fmt.Sprintf("daemon shutting down, could not get queue stats for %s notification", label))
		return nil, false
	}
	m.logger.Warn(fmt.Sprintf("queue stats unavailable for %s notification; notification skipped", label),
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_stats_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
		logging.String(logging.FieldImpact, fmt.Sprintf("%s notification will not be sent", label)),
	)
	return nil, false
}

// countActiveItems tallies queue entries that still have processing ahead of
// them. Review items need a human first, so they do not keep the queue open.
func countActiveItems(stats map[queue.Status]int) int {
	total := 0
	for status, count := range stats {
		if queue.IsTerminalStatus(status) {
			continue
		}
		total += count
	}
	return total
}
