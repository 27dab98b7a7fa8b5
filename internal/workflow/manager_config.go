package workflow

import "stylus/internal/queue"

// ConfigureStages registers the concrete stage handlers the workflow will run.
// The foreground lane resolves and searches; the background lane downloads,
// verifies, and organizes. Omitted handlers collapse the chain so the next
// configured stage picks up where the previous one would have finished.
func (m *Manager) ConfigureStages(set StageSet) {
	foreground := &laneState{kind: laneForeground, name: "foreground", notificationsEnabled: true}
	background := &laneState{kind: laneBackground, name: "background", notificationsEnabled: false}

	searcherStart := queue.StatusPending
	if set.Resolver != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "resolver",
			handler:          set.Resolver,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusResolving,
			doneStatus:       queue.StatusResolved,
		})
		searcherStart = queue.StatusResolved
	}
	if set.Searcher != nil {
		foreground.stages = append(foreground.stages, pipelineStage{
			name:             "searcher",
			handler:          set.Searcher,
			startStatus:      searcherStart,
			processingStatus: queue.StatusSearching,
			doneStatus:       queue.StatusFound,
		})
	}
	if set.Downloader != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "downloader",
			handler:          set.Downloader,
			startStatus:      queue.StatusFound,
			processingStatus: queue.StatusDownloading,
			doneStatus:       queue.StatusDownloaded,
		})
	}
	organizerStart := queue.StatusDownloaded
	if set.Verifier != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "verifier",
			handler:          set.Verifier,
			startStatus:      queue.StatusDownloaded,
			processingStatus: queue.StatusVerifying,
			doneStatus:       queue.StatusVerified,
		})
		organizerStart = queue.StatusVerified
	}
	if set.Organizer != nil {
		background.stages = append(background.stages, pipelineStage{
			name:             "organizer",
			handler:          set.Organizer,
			startStatus:      organizerStart,
			processingStatus: queue.StatusOrganizing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	lanes := make(map[laneKind]*laneState)
	order := make([]laneKind, 0, 2)

	if len(foreground.stages) > 0 {
		foreground.finalize()
		lanes[foreground.kind] = foreground
		order = append(order, foreground.kind)
	}
	if len(background.stages) > 0 {
		background.finalize()
		lanes[background.kind] = background
		order = append(order, background.kind)
	}

	for _, lane := range lanes {
		if lane == nil {
			continue
		}
		lane.runReclaimer = len(lane.processingStatuses) > 0
	}

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
