package spectral

import (
	"context"
	"os"
	"strings"
	"time"

	"log/slog"

	"stylus/internal/config"
	"stylus/internal/deps"
	"stylus/internal/logging"
	"stylus/internal/metrics"
	"stylus/internal/notifications"
	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/services"
	"stylus/internal/stage"
)

// Verifier is the workflow stage that runs the authenticity analyzer on a
// staged download and routes rejected verdicts to review. It never deletes
// files; a flagged download stays on disk for manual inspection.
type Verifier struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	analyzer *Analyzer
}

// NewVerifier constructs the verification handler using default dependencies.
func NewVerifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Verifier {
	analyzer := NewAnalyzer(cfg.Analysis, cfg.FFmpegBinary(), cfg.Paths.StagingDir)
	return NewVerifierWithAnalyzer(cfg, store, logger, notifier, analyzer)
}

// NewVerifierWithAnalyzer allows injecting the analyzer (used in tests).
func NewVerifierWithAnalyzer(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, analyzer *Analyzer) *Verifier {
	return &Verifier{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "verifier"),
		notifier: notifier,
		analyzer: analyzer,
	}
}

func (v *Verifier) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, v.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Verifying"
	}
	item.ProgressMessage = "Checking spectral authenticity"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info("starting verification", logging.String("file", item.StagedFile))
	return nil
}

// Execute analyzes the staged file and persists the verdict on the item.
func (v *Verifier) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, v.logger)

	if v.cfg == nil || v.analyzer == nil {
		return services.Wrap(
			services.ErrConfiguration, "verifier", "initialize analyzer",
			"Verification stage is not configured", nil)
	}

	path := strings.TrimSpace(item.StagedFile)
	if path == "" {
		path = strings.TrimSpace(item.DownloadedFile)
	}
	if path == "" {
		return services.Wrap(
			services.ErrValidation, "verifier", "locate download",
			"No downloaded file recorded for this item; rerun the download", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(
			services.ErrValidation, "verifier", "locate download",
			"Downloaded file is missing from staging; rerun the download", err)
	}

	if !v.cfg.Analysis.Enabled {
		logger.Info("spectral analysis disabled; passing file through")
		item.SetProgressComplete("Verified", "Spectral analysis disabled")
		return nil
	}

	started := time.Now()
	report := v.analyzer.AnalyzeFile(ctx, path)
	if report.BitDepth == 0 {
		// The transcode decode path cannot see the container's bit depth;
		// the candidate metadata from the search usually can.
		if candidate, err := search.DecodeScored(item.CandidateJSON); err == nil {
			report.BitDepth = candidate.BitDepth
		}
	}

	encoded, err := report.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "verifier", "encode verdict", "Failed to encode verdict", err)
	}
	item.VerdictJSON = encoded

	logger.Info("verification finished",
		logging.String("verdict", string(report.Verdict)),
		logging.Float64("cutoff_khz", report.CutoffKHz),
		logging.Float64("nyquist_khz", report.NyquistKHz),
		logging.Int("sample_rate", report.SampleRate),
		logging.Duration("elapsed", time.Since(started)),
	)
	metrics.Default().ObserveVerdict(string(report.Verdict))

	if report.Verdict == VerdictUndetermined {
		// Inconclusive analysis never blocks the pipeline.
		logger.Warn("analysis inconclusive; passing file through",
			logging.String("reason", report.Reason),
		)
		item.SetProgressComplete("Verified", report.Summary())
		return nil
	}

	if v.rejected(report.Verdict) {
		v.notifyReview(ctx, item, report)
		return services.Wrap(
			services.ErrValidation, "verifier", "authenticity check",
			report.Summary(), nil)
	}

	item.SetProgressComplete("Verified", report.Summary())
	return nil
}

// HealthCheck verifies the decode toolchain needed for analysis.
func (v *Verifier) HealthCheck(ctx context.Context) stage.Health {
	const name = "verifier"
	if v.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if !v.cfg.Analysis.Enabled {
		return stage.Healthy(name)
	}
	if ffmpeg := deps.ResolveFFmpeg(v.cfg.FFmpegBinary()); !ffmpeg.Available {
		return stage.Unhealthy(name, ffmpeg.Detail)
	}
	return stage.Healthy(name)
}

// rejected reports whether the verdict routes the item to review under the
// configured policy.
func (v *Verifier) rejected(verdict Verdict) bool {
	switch verdict {
	case VerdictFake:
		return v.cfg.Analysis.RejectFake
	case VerdictSuspicious:
		return v.cfg.Analysis.RejectSuspicious
	default:
		return false
	}
}

func (v *Verifier) notifyReview(ctx context.Context, item *queue.Item, report Report) {
	if v.notifier == nil {
		return
	}
	payload := notifications.Payload{
		"track":  trackLabel(item),
		"reason": report.Summary(),
	}
	if err := v.notifier.Publish(ctx, notifications.EventReviewRequired, payload); err != nil {
		logging.WithContext(ctx, v.logger).Warn("review notification failed", logging.Error(err))
	}
}

// trackLabel renders the item's track for notifications, preferring resolved
// metadata over the raw request fields.
func trackLabel(item *queue.Item) string {
	if track, err := stage.ParseTrack(item.MetadataJSON); err == nil {
		if label := track.BaseName(); label != "" {
			return label
		}
	}
	artist := strings.TrimSpace(item.Artist)
	title := strings.TrimSpace(item.Title)
	switch {
	case artist == "" && title == "":
		return strings.TrimSpace(item.Query)
	case artist == "":
		return title
	case title == "":
		return artist
	}
	return artist + " - " + title
}
