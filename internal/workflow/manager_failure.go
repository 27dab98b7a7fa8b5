package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"stylus/internal/logging"
	"stylus/internal/organizer"
	"stylus/internal/queue"
	"stylus/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	logger := m.stageLoggerForLane(ctx, nil, base, item).With(logging.String(logging.FieldComponent, "workflow-manager"))

	resolved := services.FailureStatus(stageErr)
	message := failureMessage(stageName, stageErr)

	if resolved == queue.StatusReview {
		m.parkForReview(logger, item, message)
	} else {
		item.SetFailed(message)
	}

	logger.Error("stage failed",
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", message),
		logging.Alert("stage_failure"),
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not update stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastItem(item)
	// Review-bound stages announce themselves; a second notification here
	// would duplicate the review alert.
	if resolved != queue.StatusReview {
		m.notifyStageError(ctx, stageName, item, stageErr)
	}
	m.checkQueueCompletion(ctx)
}

// parkForReview records the review reason and moves any staged audio into the
// review directory so the file survives for a human decision.
func (m *Manager) parkForReview(logger *slog.Logger, item *queue.Item, reason string) {
	item.SetReview(reason)
	if strings.TrimSpace(item.StagedFile) == "" {
		return
	}
	if _, err := organizer.RouteToReview(m.cfg, logger, item, reason); err != nil {
		logger.Warn("failed to move staged file to review",
			logging.Error(err),
			logging.String("staged_file", item.StagedFile),
		)
	}
}

func failureMessage(stageName string, stageErr error) string {
	if stageErr == nil {
		if stageName != "" {
			return stageName + " failed without error detail"
		}
		return "workflow failed without error detail"
	}
	if message := strings.TrimSpace(services.UserMessage(stageErr)); message != "" {
		return message
	}
	return strings.TrimSpace(stageErr.Error())
}
