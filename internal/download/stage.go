package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"stylus/internal/config"
	"stylus/internal/fileutil"
	"stylus/internal/logging"
	"stylus/internal/metrics"
	"stylus/internal/notifications"
	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/services"
	"stylus/internal/slskd"
	"stylus/internal/stage"
)

const (
	defaultTimeout      = 600 * time.Second
	defaultPollInterval = 3 * time.Second
	defaultMaxAttempts  = 3
)

// Downloader is the workflow stage that transfers the committed candidate
// from its peer and stages the file for verification.
type Downloader struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	client   slskd.API

	timeout      time.Duration
	pollInterval time.Duration
	maxAttempts  int
}

// NewDownloader constructs the download handler using default dependencies.
func NewDownloader(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Downloader {
	client, err := slskd.New(
		cfg.Slskd.URL,
		cfg.Slskd.APIKey,
		slskd.WithTimeout(time.Duration(cfg.Slskd.RequestTimeout)*time.Second),
	)
	if err != nil {
		logger.Warn("slskd client unavailable", logging.Error(err))
		client = nil
	}
	return NewDownloaderWithClient(cfg, store, logger, notifier, client)
}

// NewDownloaderWithClient allows injecting the slskd client (used in tests).
func NewDownloaderWithClient(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, client slskd.API) *Downloader {
	downloader := &Downloader{
		store:        store,
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "downloader"),
		notifier:     notifier,
		client:       client,
		timeout:      defaultTimeout,
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
	}
	if cfg != nil {
		if cfg.Download.TimeoutSeconds > 0 {
			downloader.timeout = time.Duration(cfg.Download.TimeoutSeconds) * time.Second
		}
		if cfg.Download.PollIntervalSeconds > 0 {
			downloader.pollInterval = time.Duration(cfg.Download.PollIntervalSeconds) * time.Second
		}
		if cfg.Download.MaxRetries > 0 {
			downloader.maxAttempts = cfg.Download.MaxRetries
		}
	}
	return downloader
}

func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)
	item.InitProgress("Downloading", "Waiting for transfer to start")
	logger.Info("starting download",
		logging.String("artist", item.Artist),
		logging.String("title", item.Title),
	)
	return nil
}

// Execute transfers the committed candidate, falling back to the next ranked
// candidate when a peer rejects, errors, or times out. A successful fallback
// replaces the committed candidate so later stages see the file that actually
// arrived.
func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, d.logger)

	if d.cfg == nil || d.client == nil {
		return services.Wrap(
			services.ErrConfiguration, "downloader", "initialize slskd client",
			"slskd connection not configured; set slskd.url and slskd.api_key", nil)
	}

	chosen, err := search.DecodeScored(item.CandidateJSON)
	if err != nil {
		return services.Wrap(
			services.ErrValidation, "downloader", "load selection",
			"No candidate selected for this item; rerun the search or pick one", err)
	}

	var lastErr error
	attempted := map[string]bool{}
	for attempt, candidate := 1, chosen; attempt <= d.maxAttempts; attempt++ {
		attempted[candidate.Username] = true
		logger.Info("attempting transfer",
			logging.Int("attempt", attempt),
			logging.String("username", candidate.Username),
			logging.String("file", candidate.BaseName()),
		)

		source, err := d.transfer(ctx, item, candidate)
		if err == nil {
			return d.finish(ctx, item, chosen, candidate, source)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if services.FailureStatus(err) == queue.StatusReview {
			// Local problems (missing download dir, bad config) will not
			// improve with a different peer.
			return err
		}
		lastErr = err
		logger.Warn("transfer attempt failed",
			logging.Int("attempt", attempt),
			logging.String("username", candidate.Username),
			logging.Error(err),
		)

		next, ok := d.nextCandidate(item, attempted)
		if !ok {
			break
		}
		candidate = next
		item.SetProgress("Downloading", fmt.Sprintf("Retrying with %s", next.BaseName()), 0)
		d.persistProgress(ctx, item, logger)
	}

	metrics.Default().ObserveDownload("failed")
	return services.Wrap(
		services.ErrExternalTool, "downloader", "transfer file",
		"All download attempts failed; peers may be offline or rejecting transfers", lastErr)
}

// HealthCheck verifies the slskd connection and the download directory.
func (d *Downloader) HealthCheck(ctx context.Context) stage.Health {
	const name = "downloader"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Slskd.URL) == "" || strings.TrimSpace(d.cfg.Slskd.APIKey) == "" {
		return stage.Unhealthy(name, "slskd connection not configured")
	}
	if d.client == nil {
		return stage.Unhealthy(name, "slskd client unavailable")
	}
	if strings.TrimSpace(d.cfg.Paths.DownloadDir) == "" {
		return stage.Unhealthy(name, "downloads directory not configured")
	}
	return stage.Healthy(name)
}

// transfer runs one end-to-end attempt against a single peer: enqueue, watch
// until terminal, then find the landed file on disk.
func (d *Downloader) transfer(ctx context.Context, item *queue.Item, candidate search.Scored) (string, error) {
	request := []slskd.DownloadRequest{{Filename: candidate.Filename, Size: candidate.Size}}
	if err := d.client.EnqueueDownloads(ctx, candidate.Username, request); err != nil {
		return "", services.Wrap(
			services.ErrExternalTool, "downloader", "enqueue transfer",
			fmt.Sprintf("Peer %s did not accept the transfer; they may be offline", candidate.Username), err)
	}

	if err := d.watch(ctx, item, candidate); err != nil {
		return "", err
	}

	source, err := d.locate(candidate)
	if err != nil {
		return "", services.Wrap(
			services.ErrConfiguration, "downloader", "locate download",
			"Transfer finished but the file is missing on disk; check paths.download_dir", err)
	}
	return source, nil
}

// finish stages the landed file, persists the winning candidate, and reports
// completion.
func (d *Downloader) finish(ctx context.Context, item *queue.Item, chosen, winner search.Scored, source string) error {
	logger := logging.WithContext(ctx, d.logger)

	staged, err := d.stageFile(item, source)
	if err != nil {
		return services.Wrap(
			services.ErrTransient, "downloader", "stage file",
			"Failed to move the download into staging", err)
	}

	item.DownloadedFile = source
	item.StagedFile = staged
	if winner.Username != chosen.Username || winner.Filename != chosen.Filename {
		encoded, err := winner.Encode()
		if err != nil {
			return services.Wrap(services.ErrTransient, "downloader", "encode selection", "Failed to encode candidate selection", err)
		}
		item.CandidateJSON = encoded
		logger.Info("fallback candidate won",
			logging.String("username", winner.Username),
			logging.String("file", winner.BaseName()),
		)
	}
	item.SetProgressComplete("Downloaded", fmt.Sprintf("Downloaded %s", winner.BaseName()))

	outcome := "completed"
	if winner.Username != chosen.Username || winner.Filename != chosen.Filename {
		outcome = "fallback"
	}
	metrics.Default().ObserveDownload(outcome)

	logger.Info("download finished",
		logging.String("file", winner.BaseName()),
		logging.String("staged", staged),
	)

	if d.notifier != nil {
		payload := notifications.Payload{
			"track":    item.DisplayTitle(),
			"filename": winner.BaseName(),
		}
		if err := d.notifier.Publish(ctx, notifications.EventDownloadCompleted, payload); err != nil {
			logger.Warn("download notification failed", logging.Error(err))
		}
	}
	return nil
}

// nextCandidate picks the best-ranked fallback from the persisted result set,
// skipping peers that already failed an attempt.
func (d *Downloader) nextCandidate(item *queue.Item, attempted map[string]bool) (search.Scored, bool) {
	results, err := search.DecodeResultSet(item.ResultsJSON)
	if err != nil {
		return search.Scored{}, false
	}
	for _, candidate := range results.Candidates {
		if attempted[candidate.Username] {
			continue
		}
		return candidate, true
	}
	return search.Scored{}, false
}

// locate finds the downloaded file under the slskd download tree. slskd lands
// files as <download_dir>/<username>/<share dir>/<name>; the full-tree walk
// covers instances configured without per-user directories.
func (d *Downloader) locate(candidate search.Scored) (string, error) {
	base := candidate.BaseName()
	root := d.cfg.Paths.DownloadDir

	userDir := filepath.Join(root, candidate.Username)
	if info, err := os.Stat(userDir); err == nil && info.IsDir() {
		if path, err := fileutil.FindFile(userDir, base); err == nil && path != "" {
			return path, nil
		}
	}

	path, err := fileutil.FindFile(root, base)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("%s not found under %s", base, root)
	}
	return path, nil
}

// stageFile copies the download into staging with an item-scoped name and
// removes the slskd copy along with its emptied share directory.
func (d *Downloader) stageFile(item *queue.Item, source string) (string, error) {
	dir := d.cfg.Paths.StagingDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	staged := filepath.Join(dir, fmt.Sprintf("%d_%s", item.ID, filepath.Base(source)))
	if err := fileutil.CopyFileVerified(source, staged); err != nil {
		return "", err
	}
	if err := fileutil.RemoveWithEmptyParent(source); err != nil {
		d.logger.Warn("download cleanup failed",
			logging.String("path", source),
			logging.Error(err),
		)
	}
	return staged, nil
}

func (d *Downloader) persistProgress(ctx context.Context, item *queue.Item, logger *slog.Logger) {
	if d.store == nil {
		return
	}
	if err := d.store.UpdateProgress(ctx, item); err != nil {
		logger.Debug("progress update failed", logging.Error(err))
	}
}
