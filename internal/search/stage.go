package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/queue"
	"stylus/internal/services"
	"stylus/internal/slskd"
	"stylus/internal/stage"
	"stylus/internal/trackinfo"
)

// Searcher is the workflow stage that finds the best-matching files for a
// resolved track. It persists the ranked result set on the item and, when
// manual selection does not apply, commits the top candidate.
type Searcher struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	pipeline *Pipeline
}

// NewSearcher constructs the search handler using default dependencies.
func NewSearcher(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Searcher {
	var pipeline *Pipeline
	client, err := slskd.New(
		cfg.Slskd.URL,
		cfg.Slskd.APIKey,
		slskd.WithTimeout(time.Duration(cfg.Slskd.RequestTimeout)*time.Second),
	)
	if err != nil {
		logger.Warn("slskd client unavailable", logging.Error(err))
	} else {
		pipeline = NewPipeline(client, cfg, logger)
	}
	return NewSearcherWithPipeline(cfg, store, logger, notifier, pipeline)
}

// NewSearcherWithPipeline allows injecting the match pipeline (used in tests).
func NewSearcherWithPipeline(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, pipeline *Pipeline) *Searcher {
	return &Searcher{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "searcher"),
		notifier: notifier,
		pipeline: pipeline,
	}
}

func (s *Searcher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Searching"
	}
	item.ProgressMessage = "Searching Soulseek peers"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info("starting search",
		logging.String("artist", item.Artist),
		logging.String("title", item.Title),
	)
	return nil
}

// Execute runs the tiered match pipeline and persists the outcome.
func (s *Searcher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)

	if s.pipeline == nil {
		return services.Wrap(
			services.ErrConfiguration, "searcher", "initialize slskd client",
			"slskd connection not configured; set slskd.url and slskd.api_key", nil)
	}

	track, err := s.reference(item)
	if err != nil {
		return err
	}

	ranked, outcome, err := s.pipeline.FindBestMatches(ctx, track)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool, "searcher", "search soulseek",
			"Soulseek search failed; check slskd connectivity", err)
	}
	if len(ranked) == 0 {
		logger.Info("no candidates found",
			logging.Int("queries_tried", outcome.QueriesTried),
			logging.Duration("elapsed", outcome.Elapsed),
		)
		return services.Wrap(
			services.ErrNotFound, "searcher", "match candidates",
			"No matching files found on Soulseek; refine the request or try again later", nil)
	}

	results := &ResultSet{
		Query:      outcome.WinningQuery,
		Tier:       outcome.WinningTier,
		Fallback:   outcome.Fallback,
		Candidates: ranked,
		Outcome:    outcome,
		SearchedAt: time.Now().UTC(),
	}
	encoded, err := results.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "searcher", "encode results", "Failed to encode search results", err)
	}
	item.ResultsJSON = encoded

	best := ranked[0]
	if s.autoSelect(item) {
		selected, err := best.Encode()
		if err != nil {
			return services.Wrap(services.ErrTransient, "searcher", "encode selection", "Failed to encode candidate selection", err)
		}
		item.CandidateJSON = selected
		item.ProgressMessage = fmt.Sprintf("Found %d candidates; selected %s", len(ranked), best.BaseName())
	} else {
		// Manual mode holds the item in found until the requester picks;
		// the download lane only claims items with a committed candidate.
		item.CandidateJSON = ""
		item.ProgressMessage = fmt.Sprintf("Found %d candidates; awaiting selection", len(ranked))
	}
	item.ProgressStage = "Found"
	item.ProgressPercent = 100

	logger.Info("search finished",
		logging.String(logging.FieldSearchTier, string(outcome.WinningTier)),
		logging.String("query", outcome.WinningQuery),
		logging.Int("candidates", len(ranked)),
		logging.Float64("best_score", best.Total),
		logging.Bool("fallback_formats", outcome.Fallback),
	)

	if s.notifier != nil {
		payload := notifications.Payload{
			"track":    track.BaseName(),
			"filename": best.BaseName(),
			"score":    fmt.Sprintf("%.1f", best.Total),
		}
		if err := s.notifier.Publish(ctx, notifications.EventMatchFound, payload); err != nil {
			logger.Warn("match notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies search dependencies required for successful execution.
func (s *Searcher) HealthCheck(ctx context.Context) stage.Health {
	const name = "searcher"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(s.cfg.Slskd.URL) == "" || strings.TrimSpace(s.cfg.Slskd.APIKey) == "" {
		return stage.Unhealthy(name, "slskd connection not configured")
	}
	if s.pipeline == nil {
		return stage.Unhealthy(name, "slskd client unavailable")
	}
	return stage.Healthy(name)
}

// reference rebuilds the track reference the pipeline scores against. Items
// normally carry resolver output; hand-edited or imported items fall back to
// their raw fields so a search is still possible.
func (s *Searcher) reference(item *queue.Item) (trackinfo.Track, error) {
	track, err := stage.ParseTrack(item.MetadataJSON)
	if err != nil {
		return trackinfo.Track{}, err
	}
	if strings.TrimSpace(track.Artist) == "" && strings.TrimSpace(track.Title) == "" {
		track = trackinfo.Track{
			Artist:          strings.TrimSpace(item.Artist),
			Title:           strings.TrimSpace(item.Title),
			Album:           strings.TrimSpace(item.Album),
			Year:            strings.TrimSpace(item.Year),
			DurationSeconds: item.DurationSeconds,
			Source:          trackinfo.SourceQuery,
		}
	}
	if track.Artist == "" && track.Title == "" {
		track = trackinfo.FromQuery(item.Query)
	}
	if track.Artist == "" && track.Title == "" {
		return trackinfo.Track{}, services.Wrap(
			services.ErrValidation, "searcher", "derive search queries",
			"Request has no artist or title to search for; rerun resolution", nil)
	}
	return track, nil
}

// autoSelect reports whether the top candidate should be committed without
// requester confirmation. Telegram chats in manual mode pick their own
// candidate; every other requester takes the ranked winner.
func (s *Searcher) autoSelect(item *queue.Item) bool {
	if s.cfg == nil || !s.cfg.Telegram.Enabled || s.cfg.Telegram.AutoMode {
		return true
	}
	return !strings.HasPrefix(item.Requester, queue.RequesterTelegramPrefix)
}
