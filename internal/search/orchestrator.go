package search

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/slskd"
)

// collectGrace bounds the stop/collect/delete tail of a session beyond the
// polling deadline, and keeps cleanup alive after caller cancellation.
const collectGrace = 10 * time.Second

// SearchClient is the slskd surface the orchestrator needs.
type SearchClient interface {
	Searches(ctx context.Context) ([]slskd.SearchState, error)
	StartSearch(ctx context.Context, text string, timeout time.Duration) (*slskd.SearchState, error)
	GetSearch(ctx context.Context, id string, includeResponses bool) (*slskd.SearchState, error)
	StopSearch(ctx context.Context, id string) error
	DeleteSearch(ctx context.Context, id string) error
}

var _ SearchClient = (*slskd.Client)(nil)

// Orchestrator runs one server-side search per query: submit, poll until
// complete or deadline, stop on timeout, collect responses, and always
// delete the server-side record afterwards.
type Orchestrator struct {
	client       SearchClient
	logger       *slog.Logger
	timeout      time.Duration
	pollInterval time.Duration
	stableWindow time.Duration
}

// NewOrchestrator constructs an orchestrator from search configuration.
func NewOrchestrator(client SearchClient, cfg config.Search, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		client:       client,
		logger:       logging.NewComponentLogger(logger, "search-orchestrator"),
		timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
		pollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		stableWindow: time.Duration(cfg.StableWindowSeconds) * time.Second,
	}
}

// Search runs the full session lifecycle for one query and returns whatever
// candidates the peers offered, including partial results on timeout. The
// returned session exposes the lifecycle for logging and tests.
func (o *Orchestrator) Search(ctx context.Context, query string, tier Tier) ([]Candidate, *Session, error) {
	session := NewSession(query, tier)
	logger := logging.WithContext(ctx, o.logger).With(
		logging.String(logging.FieldSessionToken, session.Token),
		logging.String(logging.FieldSearchTier, string(tier)),
	)

	// Hard safety net around the whole lifecycle, stop and collect included.
	runCtx, cancel := context.WithTimeout(ctx, o.timeout+collectGrace)
	defer cancel()

	o.cleanupStale(runCtx, logger)

	state, err := o.client.StartSearch(runCtx, query, o.timeout)
	if err != nil {
		return nil, session, fmt.Errorf("submit search %q: %w", query, err)
	}
	session.SearchID = state.ID
	if err := session.Transition(StateSubmitted); err != nil {
		return nil, session, err
	}
	logger.Info("search submitted",
		logging.String("search_id", session.SearchID),
		logging.String("query", query),
	)

	// The server-side record is deleted on every exit path from here on,
	// even after a stop or collect failure; slskd keeps finished searches
	// in memory and stale ones corrupt includeResponses for later runs.
	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.WithoutCancel(ctx), collectGrace)
		defer cleanupCancel()
		if err := o.client.DeleteSearch(cleanupCtx, session.SearchID); err != nil {
			logger.Warn("delete search failed", logging.Error(err))
		}
		_ = session.Transition(StateCleanedUp)
	}()

	if err := session.Transition(StatePolling); err != nil {
		return nil, session, err
	}

	timedOut := o.poll(runCtx, session, logger)

	if timedOut {
		if err := session.Transition(StateTimedOut); err != nil {
			return nil, session, err
		}
		stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), collectGrace)
		if err := o.client.StopSearch(stopCtx, session.SearchID); err != nil {
			logger.Warn("stop search failed", logging.Error(err))
		}
		stopCancel()
		if err := session.Transition(StateStopped); err != nil {
			return nil, session, err
		}
		logger.Info("search stopped after timeout", logging.Int("file_count", session.FileCount))
	} else if err := session.Transition(StateCompleted); err != nil {
		return nil, session, err
	}

	// Responses ride on the state document; the dedicated responses
	// endpoint intermittently returns empty arrays.
	collectCtx, collectCancel := context.WithTimeout(context.WithoutCancel(ctx), collectGrace)
	defer collectCancel()
	final, err := o.client.GetSearch(collectCtx, session.SearchID, true)
	if err != nil {
		logger.Warn("collect results failed", logging.Error(err))
		return nil, session, nil
	}
	if err := session.Transition(StateCollected); err != nil {
		return nil, session, err
	}
	session.FileCount = final.FileCount
	session.ResponseCount = final.ResponseCount

	candidates := CandidatesFromResponses(final.Responses)
	logger.Info("search collected",
		logging.Int("responses", session.ResponseCount),
		logging.Int("candidates", len(candidates)),
		logging.Bool("timed_out", timedOut),
	)
	return candidates, session, nil
}

// poll watches the search until completion, a stable result count, the tier
// deadline, or context cancellation. Reports whether the search must be
// stopped server-side.
func (o *Orchestrator) poll(ctx context.Context, session *Session, logger *slog.Logger) bool {
	deadline := time.Now().Add(o.timeout)
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	lastCount := 0
	var stableSince time.Time

	for {
		if time.Now().After(deadline) {
			logger.Info("search polling deadline reached, grabbing partial results")
			return true
		}
		select {
		case <-ctx.Done():
			return true
		case <-ticker.C:
		}

		state, err := o.client.GetSearch(ctx, session.SearchID, false)
		if err != nil {
			// Transient poll failures retry on the next tick; the
			// deadline bounds how long that can go on.
			logger.Warn("search poll failed", logging.Error(err))
			continue
		}
		session.FileCount = state.FileCount
		session.ResponseCount = state.ResponseCount

		if state.FileCount != lastCount {
			lastCount = state.FileCount
			stableSince = time.Now()
			logger.Debug("search progress", logging.Int("file_count", lastCount))
		} else if !stableSince.IsZero() && time.Since(stableSince) > o.stableWindow {
			// The file count stopped moving after growing; further
			// waiting rarely adds anything.
			logger.Info("search stabilized", logging.Int("file_count", lastCount))
			return false
		}

		if state.IsComplete {
			logger.Info("search completed", logging.Int("file_count", state.FileCount))
			return false
		}
	}
}

// cleanupStale deletes finished or abandoned server-side searches before a
// new submission. Live searches younger than twice the tier timeout are
// left alone so concurrent sessions survive.
func (o *Orchestrator) cleanupStale(ctx context.Context, logger *slog.Logger) {
	existing, err := o.client.Searches(ctx)
	if err != nil {
		logger.Debug("list stale searches failed", logging.Error(err))
		return
	}
	staleAge := 2 * o.timeout
	removed := 0
	for _, state := range existing {
		stale := state.IsComplete ||
			(!state.StartedAt.IsZero() && time.Since(state.StartedAt) > staleAge)
		if !stale {
			continue
		}
		if err := o.client.DeleteSearch(ctx, state.ID); err != nil {
			logger.Debug("delete stale search failed",
				logging.String("search_id", state.ID),
				logging.Error(err),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Debug("cleaned stale searches", logging.Int("count", removed))
	}
}
