package organizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/notifications"
	"stylus/internal/queue"
	"stylus/internal/services"
	"stylus/internal/stage"
	"stylus/internal/trackinfo"
)

// Organizer moves verified tracks into the final library location.
type Organizer struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
}

// NewOrganizer constructs the organize stage handler.
func NewOrganizer(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Organizer {
	return &Organizer{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "organizer"),
		notifier: notifier,
	}
}

func (o *Organizer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)
	item.InitProgress("Organizing", "Preparing library placement")
	logger.Info("starting organization",
		logging.String("artist", item.Artist),
		logging.String("title", item.Title),
		logging.String("staged_file", strings.TrimSpace(item.StagedFile)),
	)
	return nil
}

// Execute scans for duplicates, then renders the filename template and moves
// the staged file into the library. Duplicates go to review unless the new
// file upgrades a lossy original and overwriting is enabled.
func (o *Organizer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)

	if o.cfg == nil {
		return services.Wrap(
			services.ErrConfiguration, "organizer", "validate configuration",
			"Organizer stage is not configured", nil)
	}

	staged := strings.TrimSpace(item.StagedFile)
	if staged == "" {
		return services.Wrap(
			services.ErrValidation, "organizer", "locate staged file",
			"No verified file to organize; rerun the download", nil)
	}
	if _, err := os.Stat(staged); err != nil {
		return services.Wrap(
			services.ErrValidation, "organizer", "locate staged file",
			"Staged file is missing; rerun the download", err)
	}

	fields := o.templateFields(item)
	if fields.Artist == "" && fields.Title == "" {
		return services.Wrap(
			services.ErrValidation, "organizer", "derive filename",
			"Request has no artist or title to name the file; rerun resolution", nil)
	}

	o.updateProgress(ctx, item, "Scanning library for duplicates", 20)
	entries, err := scanLibrary(o.cfg.Paths.LibraryDir)
	if err != nil {
		return services.Wrap(services.ErrTransient, "organizer", "scan library", "Failed to scan the library for duplicates", err)
	}
	if existing, ok := findDuplicate(entries, normalizeKey(fields.label()), o.cfg.Library.DuplicateSimilarity); ok {
		if o.cfg.Library.OverwriteExisting && isQualityUpgrade(filepath.Ext(staged), filepath.Ext(existing.Path)) {
			logger.Info("replacing lossy original",
				logging.String("existing", existing.Path),
				logging.String("staged_file", staged),
			)
			if err := os.Remove(existing.Path); err != nil {
				return services.Wrap(services.ErrTransient, "organizer", "replace duplicate", "Failed to remove the lossy original", err)
			}
		} else {
			return o.routeDuplicate(ctx, item, existing)
		}
	}

	o.updateProgress(ctx, item, "Moving into library", 60)
	target, err := o.place(fields, staged)
	if err != nil {
		return services.Wrap(services.ErrTransient, "organizer", "move to library", "Failed to move the track into the library", err)
	}
	item.FinalFile = target
	item.StagedFile = ""
	item.SetProgressComplete("Organized", fmt.Sprintf("Added to library: %s", filepath.Base(target)))

	logger.Info("organization finished",
		logging.String("final_file", target),
	)

	if o.notifier != nil {
		payload := notifications.Payload{
			"track":     item.DisplayTitle(),
			"finalFile": filepath.Base(target),
		}
		if err := o.notifier.Publish(ctx, notifications.EventTrackOrganized, payload); err != nil {
			logger.Warn("organized notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the directories placement depends on.
func (o *Organizer) HealthCheck(ctx context.Context) stage.Health {
	const name = "organizer"
	if o.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(o.cfg.Paths.LibraryDir) == "" {
		return stage.Unhealthy(name, "library directory not configured")
	}
	if strings.TrimSpace(o.cfg.Paths.ReviewDir) == "" {
		return stage.Unhealthy(name, "review directory not configured")
	}
	return stage.Healthy(name)
}

// place renders the template into library path segments and moves the staged
// file there, keeping the staged file's extension.
func (o *Organizer) place(fields templateFields, staged string) (string, error) {
	template := strings.TrimSpace(o.cfg.Library.FilenameTemplate)
	if template == "" {
		template = "{artist} - {title}"
	}
	segments := renderTemplate(template, fields)
	if len(segments) == 0 {
		return "", fmt.Errorf("filename template %q produced an empty name", template)
	}
	ext := strings.ToLower(filepath.Ext(staged))
	if ext == "" {
		ext = ".flac"
	}

	parts := append([]string{o.cfg.Paths.LibraryDir}, segments...)
	target := filepath.Join(parts...) + ext
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	target, err := uniquePath(target)
	if err != nil {
		return "", err
	}
	if err := moveFile(staged, target); err != nil {
		return "", err
	}
	return target, nil
}

// routeDuplicate moves the staged file to review and fails the stage with a
// validation error so the workflow parks the item for a human decision.
func (o *Organizer) routeDuplicate(ctx context.Context, item *queue.Item, existing libraryEntry) error {
	logger := logging.WithContext(ctx, o.logger)
	reason := fmt.Sprintf("Duplicate of %s", filepath.Base(existing.Path))
	logger.Info("duplicate detected",
		logging.String("existing", existing.Path),
	)

	if _, err := RouteToReview(o.cfg, logger, item, reason); err != nil {
		return err
	}

	if o.notifier != nil {
		payload := notifications.Payload{
			"track":  item.DisplayTitle(),
			"reason": reason,
		}
		if err := o.notifier.Publish(ctx, notifications.EventReviewRequired, payload); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
	}
	return services.Wrap(services.ErrValidation, "organizer", "duplicate check", reason, nil)
}

// templateFields extracts placeholder values from resolver metadata, falling
// back to the raw item fields for hand-edited or imported items.
func (o *Organizer) templateFields(item *queue.Item) templateFields {
	track, err := trackinfo.Parse(item.MetadataJSON)
	fields := templateFields{
		Artist: strings.TrimSpace(track.Artist),
		Title:  strings.TrimSpace(track.Title),
		Album:  strings.TrimSpace(track.Album),
		Year:   strings.TrimSpace(track.Year),
	}
	if err != nil || (fields.Artist == "" && fields.Title == "") {
		fields = templateFields{
			Artist: strings.TrimSpace(item.Artist),
			Title:  strings.TrimSpace(item.Title),
			Album:  strings.TrimSpace(item.Album),
			Year:   strings.TrimSpace(item.Year),
		}
	}
	return fields
}

// label is the "artist - title" display form used as the duplicate key.
func (f templateFields) label() string {
	if f.Artist != "" && f.Title != "" {
		return f.Artist + " - " + f.Title
	}
	if f.Title != "" {
		return f.Title
	}
	return f.Artist
}

func (o *Organizer) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	item.ProgressMessage = message
	item.ProgressPercent = percent
	if o.store == nil {
		return
	}
	if err := o.store.UpdateProgress(ctx, item); err != nil {
		logging.WithContext(ctx, o.logger).Warn("progress update failed", logging.Error(err))
	}
}
