package api

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"stylus/internal/catalog"
	"stylus/internal/config"
	"stylus/internal/download"
	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/organizer"
	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/spectral"
	"stylus/internal/stageexec"
)

// AddTrackRequest carries the inputs for enqueueing a track request.
type AddTrackRequest struct {
	Config         *config.Config
	Store          *queue.Store
	Logger         *slog.Logger
	Query          string
	Requester      string
	AllowDuplicate bool
}

// AddTrackResult reports the created item, or the active item that blocked
// creation when duplicate suppression applies. Exactly one of the two fields
// is set on success.
type AddTrackResult struct {
	Item      *queue.Item
	Duplicate *queue.Item
}

// AddTrack enqueues a track request. Requests whose normalized artist/title
// key matches an item still moving through the pipeline are reported as
// duplicates instead of being inserted, unless the caller allows them.
func AddTrack(ctx context.Context, req AddTrackRequest) (AddTrackResult, error) {
	if req.Config == nil && req.Store == nil {
		return AddTrackResult{}, fmt.Errorf("configuration is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return AddTrackResult{}, fmt.Errorf("request query is required")
	}

	store := req.Store
	if store == nil {
		opened, err := queue.Open(req.Config)
		if err != nil {
			return AddTrackResult{}, fmt.Errorf("open queue store: %w", err)
		}
		defer opened.Close()
		store = opened
	}

	if !req.AllowDuplicate {
		artist, title := queue.ParseQuery(query)
		if key := queue.RequestKey(artist, title); key != "" {
			existing, err := store.FindActiveByRequestKey(ctx, key)
			if err != nil {
				return AddTrackResult{}, fmt.Errorf("check existing queue item: %w", err)
			}
			if existing != nil {
				logger.Info("request already queued",
					logging.Int64("existing_item_id", existing.ID),
					logging.String("status", string(existing.Status)),
					logging.String("track", existing.DisplayTitle()),
				)
				return AddTrackResult{Duplicate: existing}, nil
			}
		}
	}

	item, err := store.NewRequest(ctx, query, req.Requester)
	if err != nil {
		return AddTrackResult{}, fmt.Errorf("create queue item: %w", err)
	}
	logger.Info("request queued",
		logging.Int64("item_id", item.ID),
		logging.String("track", item.DisplayTitle()),
		logging.String("requester", item.Requester),
	)
	return AddTrackResult{Item: item}, nil
}

// RunTrackRequest carries the dependencies for a one-shot pipeline run.
type RunTrackRequest struct {
	Config   *config.Config
	Store    *queue.Store
	Logger   *slog.Logger
	Notifier notifications.Service
	Item     *queue.Item
}

// RunTrack drives one queue item through resolution, search, download,
// verification, and organization in the calling process, without a running
// daemon. Failures park the item exactly as the daemon's workflow manager
// would; manual-selection requests stop at found until a candidate is
// committed. The item is returned in its final persisted state so callers
// can assess the outcome even when an error is reported.
func RunTrack(ctx context.Context, req RunTrackRequest) (*queue.Item, error) {
	cfg := req.Config
	if cfg == nil {
		return req.Item, fmt.Errorf("configuration is required")
	}
	item := req.Item
	if item == nil {
		return nil, fmt.Errorf("queue item is required")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	store := req.Store
	if store == nil {
		opened, err := queue.Open(cfg)
		if err != nil {
			return item, fmt.Errorf("open queue store: %w", err)
		}
		defer opened.Close()
		store = opened
	}
	notifier := req.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	steps := []struct {
		label      string
		name       string
		handler    stageexec.Handler
		processing queue.Status
		done       queue.Status
	}{
		{"resolution", "resolver", catalog.NewResolver(cfg, store, logger), queue.StatusResolving, queue.StatusResolved},
		{"search", "searcher", search.NewSearcher(cfg, store, logger, notifier), queue.StatusSearching, queue.StatusFound},
		{"download", "downloader", download.NewDownloader(cfg, store, logger, notifier), queue.StatusDownloading, queue.StatusDownloaded},
		{"verification", "verifier", spectral.NewVerifier(cfg, store, logger, notifier), queue.StatusVerifying, queue.StatusVerified},
		{"organization", "organizer", organizer.NewOrganizer(cfg, store, logger, notifier), queue.StatusOrganizing, queue.StatusCompleted},
	}

	for _, step := range steps {
		if err := stageexec.Run(ctx, stageexec.Options{
			Logger:     logger,
			Config:     cfg,
			Store:      store,
			Notifier:   notifier,
			Handler:    step.handler,
			StageName:  step.name,
			Processing: step.processing,
			Done:       step.done,
			Item:       item,
		}); err != nil {
			return item, err
		}
		if item.Status == queue.StatusReview {
			return item, fmt.Errorf("%s requires review: %s", step.label, strings.TrimSpace(item.ReviewReason))
		}
		if item.Status == queue.StatusFailed {
			return item, fmt.Errorf("%s failed: %s", step.label, strings.TrimSpace(item.ErrorMessage))
		}
		if step.done == queue.StatusFound && strings.TrimSpace(item.CandidateJSON) == "" {
			// Manual selection holds the item at found; the download lane
			// only claims items with a committed candidate.
			return item, nil
		}
	}

	return item, nil
}

// MatchAssessment summarizes the end state of a one-shot pipeline run for
// CLI-facing output.
type MatchAssessment struct {
	Track          string
	Filename       string
	FinalFile      string
	Verdict        string
	CandidateCount int
	SearchTier     string
	ReviewRequired bool
	ReviewReason   string
	Outcome        string
	OutcomeMessage string
}

// AssessMatch derives CLI-facing acquisition outcomes from queue state.
func AssessMatch(item *queue.Item) MatchAssessment {
	if item == nil {
		return MatchAssessment{
			Track:          "Unknown Track",
			Outcome:        "failed",
			OutcomeMessage: "❌ Acquisition failed. Check the logs above for details.",
		}
	}

	assessment := MatchAssessment{
		Track:          item.DisplayTitle(),
		FinalFile:      strings.TrimSpace(item.FinalFile),
		ReviewRequired: item.NeedsReview || item.Status == queue.StatusReview,
		ReviewReason:   strings.TrimSpace(item.ReviewReason),
	}
	if strings.TrimSpace(item.CandidateJSON) != "" {
		if scored, err := search.DecodeScored(item.CandidateJSON); err == nil {
			assessment.Filename = scored.BaseName()
		}
	}
	if strings.TrimSpace(item.VerdictJSON) != "" {
		if report, err := spectral.DecodeReport(item.VerdictJSON); err == nil {
			assessment.Verdict = report.Summary()
		}
	}
	assessment.CandidateCount, assessment.SearchTier = deriveSearchSummary(item)

	switch {
	case item.Status == queue.StatusCompleted && !assessment.ReviewRequired:
		assessment.Outcome = "success"
		assessment.OutcomeMessage = "🎵 Track acquired and organized into the library."
	case assessment.ReviewRequired:
		assessment.Outcome = "review"
		assessment.OutcomeMessage = "⚠️  Acquisition requires manual review. Check the logs above for details."
	case item.Status == queue.StatusFound && strings.TrimSpace(item.CandidateJSON) == "":
		assessment.Outcome = "awaiting_selection"
		assessment.OutcomeMessage = fmt.Sprintf("🎯 Found %d candidates; pick one to start the download.", assessment.CandidateCount)
	case item.Status == queue.StatusFailed:
		assessment.Outcome = "failed"
		assessment.OutcomeMessage = "❌ Acquisition failed. Check the logs above for details."
	default:
		assessment.Outcome = "incomplete"
		assessment.OutcomeMessage = fmt.Sprintf("⏳ Processing stopped at %s.", statusLabel(item.Status))
	}

	return assessment
}
