package workflow

import (
	"context"

	"stylus/internal/logging"
	"stylus/internal/queue"
	"stylus/internal/stage"
)

// StatusSummary is the manager's contribution to daemon status: whether the
// lanes run, the most recent item and error, per-status queue counts, and a
// health probe for each configured stage.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastItem    *queue.Item
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastItem := m.lastItem
	stageSet := make([]pipelineStage, 0)
	for _, kind := range m.laneOrder {
		lane := m.lanes[kind]
		if lane == nil {
			continue
		}
		stageSet = append(stageSet, lane.stages...)
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(stageSet))
	for _, stg := range stageSet {
		handler := stg.handler
		if handler == nil {
			continue
		}
		health[stg.name] = handler.HealthCheck(ctx)
	}

	summary := StatusSummary{
		Running:     running,
		QueueStats:  stats,
		StageHealth: health,
		LastItem:    cloneItem(lastItem),
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}

// cloneItem copies an item so status readers never share memory with the
// lanes.
func cloneItem(item *queue.Item) *queue.Item {
	if item == nil {
		return nil
	}
	dup := *item
	return &dup
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	m.lastItem = cloneItem(item)
	m.mu.Unlock()
}
