package organizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"stylus/internal/config"
	"stylus/internal/logging"
	"stylus/internal/queue"
	"stylus/internal/services"
)

// RouteToReview moves the item's staged file into the review directory under
// a reason-slugged, item-scoped name and updates StagedFile to the new
// location. The organizer calls this for duplicates; the workflow failure
// path calls it for items a stage rejected while their file sits in staging.
func RouteToReview(cfg *config.Config, logger *slog.Logger, item *queue.Item, reason string) (string, error) {
	if cfg == nil {
		return "", services.Wrap(
			services.ErrConfiguration, "organizer", "resolve review dir",
			"Configuration unavailable for review routing", nil)
	}
	reviewDir := strings.TrimSpace(cfg.Paths.ReviewDir)
	if reviewDir == "" {
		return "", services.Wrap(
			services.ErrConfiguration, "organizer", "resolve review dir",
			"Review directory not configured; set paths.review_dir", nil)
	}
	if err := os.MkdirAll(reviewDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "organizer", "ensure review dir", "Failed to create review directory", err)
	}

	source := strings.TrimSpace(item.StagedFile)
	if source == "" {
		source = strings.TrimSpace(item.DownloadedFile)
	}
	if source == "" {
		return "", services.Wrap(
			services.ErrValidation, "organizer", "move to review",
			"No file available to move to the review directory", nil)
	}
	// A stage may have routed the file before failing; a second routing
	// attempt leaves it where it is.
	if within(reviewDir, source) {
		return source, nil
	}

	ext := filepath.Ext(source)
	if ext == "" {
		ext = ".flac"
	}
	prefix := fmt.Sprintf("%s-%d", reviewSlug(reason), item.ID)

	target, err := nextReviewPath(reviewDir, prefix, ext)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "organizer", "allocate review filename", "Unable to allocate review filename", err)
	}
	if moveErr := moveFile(source, target); moveErr != nil {
		if errors.Is(moveErr, os.ErrExist) {
			// Another writer took the slot between the check and the move.
			target, err = nextReviewPath(reviewDir, prefix, ext)
			if err != nil {
				return "", services.Wrap(services.ErrTransient, "organizer", "allocate review filename", "Unable to allocate review filename", err)
			}
			moveErr = moveFile(source, target)
		}
		if moveErr != nil {
			return "", services.Wrap(services.ErrTransient, "organizer", "move review file", "Failed to move file into review directory", moveErr)
		}
	}

	if logger != nil {
		logger.Info("file routed to review",
			logging.String("source", source),
			logging.String("target", target),
			logging.String("reason", reason),
		)
	}
	item.StagedFile = target
	return target, nil
}

// within reports whether path sits inside dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// nextReviewPath allocates the first free prefix-N name in the review dir.
func nextReviewPath(dir, prefix, ext string) (string, error) {
	const maxAttempts = 10000
	if strings.TrimSpace(prefix) == "" {
		prefix = "review"
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", prefix, attempt, ext))
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted review filename slots in %s", dir)
}

// reviewSlug reduces a review reason to a short lowercase filename prefix.
func reviewSlug(reason string) string {
	reason = strings.ToLower(strings.TrimSpace(reason))
	if reason == "" {
		return "review"
	}
	var slug strings.Builder
	lastHyphen := false
	for _, r := range reason {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			slug.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !lastHyphen {
				slug.WriteRune('-')
				lastHyphen = true
			}
		}
		if slug.Len() >= 40 {
			break
		}
	}
	result := strings.Trim(slug.String(), "-")
	if result == "" {
		return "review"
	}
	return result
}
