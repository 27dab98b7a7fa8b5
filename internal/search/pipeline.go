package search

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/metrics"
	"stylus/internal/trackinfo"
)

// Pipeline sequences orchestrator, filter, and scorer across query tiers.
// It holds no per-request state; one pipeline serves all requests.
type Pipeline struct {
	orchestrator *Orchestrator
	filter       *Filter
	scorer       *Scorer
	maxResults   int
	logger       *slog.Logger
}

// NewPipeline wires the pipeline from configuration.
func NewPipeline(client SearchClient, cfg *config.Config, logger *slog.Logger) *Pipeline {
	return NewPipelineWithParts(
		NewOrchestrator(client, cfg.Search, logger),
		NewFilter(cfg.Search, cfg.Matching),
		NewScorer(cfg.Matching),
		cfg.Search.MaxResults,
		logger,
	)
}

// NewPipelineWithParts allows injecting the stages (used in tests).
func NewPipelineWithParts(orchestrator *Orchestrator, filter *Filter, scorer *Scorer, maxResults int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		orchestrator: orchestrator,
		filter:       filter,
		scorer:       scorer,
		maxResults:   maxResults,
		logger:       logging.NewComponentLogger(logger, "match-pipeline"),
	}
}

// FindBestMatches walks the tier plan until one query yields candidates
// that survive filtering, then ranks that set. An exhausted plan returns an
// empty slice with a nil error: not finding a match is data, not a failure.
func (p *Pipeline) FindBestMatches(ctx context.Context, ref trackinfo.Track) ([]Scored, SearchOutcome, error) {
	started := time.Now()
	logger := logging.WithContext(ctx, p.logger)
	outcome := SearchOutcome{}

	for _, plan := range BuildTiers(ref) {
		outcome.TiersTried = append(outcome.TiersTried, plan.Tier)
		for _, query := range plan.Queries {
			if err := ctx.Err(); err != nil {
				return nil, p.finish(outcome, started), err
			}
			outcome.QueriesTried++

			candidates, _, err := p.orchestrator.Search(ctx, query, plan.Tier)
			if err != nil {
				if ctx.Err() != nil {
					return nil, p.finish(outcome, started), err
				}
				// One tier's provider failure escalates like an empty
				// result; the next tier gets a fresh session.
				logger.Warn("tier search failed",
					logging.String(logging.FieldSearchTier, string(plan.Tier)),
					logging.String("query", query),
					logging.Error(err),
				)
				continue
			}

			kept, report := p.applyFilter(candidates, ref, plan.LocalKeywords)
			if len(kept) == 0 {
				logger.Info("tier produced no passing candidates",
					logging.String(logging.FieldSearchTier, string(plan.Tier)),
					logging.String("query", query),
					logging.Int("raw", len(candidates)),
				)
				continue
			}

			ranked := p.scorer.Rank(kept, ref)
			if p.maxResults > 0 && len(ranked) > p.maxResults {
				ranked = ranked[:p.maxResults]
			}

			outcome.WinningTier = plan.Tier
			outcome.WinningQuery = query
			outcome.RawCount = len(candidates)
			outcome.FilteredCount = report.Kept
			outcome.RankedCount = len(ranked)
			outcome.Fallback = report.Fallback
			outcome = p.finish(outcome, started)
			metrics.Default().ObserveSearch(string(plan.Tier))
			metrics.Default().ObserveCandidates(report.Kept, report.ExcludedByExtension, report.ExcludedByKeyword, report.ExcludedByDuration)
			logger.Info("match pipeline found candidates",
				logging.String(logging.FieldSearchTier, string(plan.Tier)),
				logging.String("query", query),
				logging.Int("ranked", len(ranked)),
				logging.Bool("fallback_formats", report.Fallback),
				logging.Duration("elapsed", outcome.Elapsed),
			)
			return ranked, outcome, nil
		}
	}

	outcome = p.finish(outcome, started)
	metrics.Default().ObserveSearch("")
	logger.Info("match pipeline exhausted all tiers",
		logging.Int("queries_tried", outcome.QueriesTried),
		logging.Duration("elapsed", outcome.Elapsed),
	)
	return nil, outcome, nil
}

// applyFilter narrows artist-only results by local title keywords before the
// shared gates. When the narrowed set dies in filtering, the unnarrowed set
// gets its chance; duration and scoring still protect relevance.
func (p *Pipeline) applyFilter(candidates []Candidate, ref trackinfo.Track, localKeywords []string) ([]Candidate, FilterReport) {
	if len(localKeywords) > 0 {
		narrowed := make([]Candidate, 0, len(candidates))
		for _, candidate := range candidates {
			if containsAnyKeyword(candidate.Filename, localKeywords) {
				narrowed = append(narrowed, candidate)
			}
		}
		if kept, report := p.filter.Apply(narrowed, ref); len(kept) > 0 {
			return kept, report
		}
	}
	return p.filter.Apply(candidates, ref)
}

func containsAnyKeyword(filename string, keywords []string) bool {
	lowered := strings.ToLower(filename)
	for _, keyword := range keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func (p *Pipeline) finish(outcome SearchOutcome, started time.Time) SearchOutcome {
	outcome.Elapsed = time.Since(started)
	outcome.ElapsedMS = outcome.Elapsed.Milliseconds()
	return outcome
}
