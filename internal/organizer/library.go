package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/xrash/smetrics"
	"golang.org/x/text/cases"

	"stylus/internal/fileutil"
	"stylus/internal/textutil"
)

// losslessExtensions are formats placement treats as archival quality.
var losslessExtensions = map[string]struct{}{
	"flac": {}, "alac": {}, "wav": {}, "aiff": {},
}

// audioExtensions are the formats indexed during duplicate scans.
var audioExtensions = map[string]struct{}{
	"flac": {}, "alac": {}, "wav": {}, "aiff": {},
	"mp3": {}, "aac": {}, "m4a": {}, "ogg": {}, "opus": {}, "wma": {},
}

var keyFolder = cases.Fold()

// renderTemplate expands the filename template placeholders and sanitizes the
// result one path segment at a time, so templates may use separators to shape
// the library layout ("{artist}/{artist} - {title}") without a track named
// "AC/DC" escaping its directory.
func renderTemplate(template string, track templateFields) []string {
	replacer := strings.NewReplacer(
		"{artist}", track.Artist,
		"{title}", track.Title,
		"{album}", track.Album,
		"{year}", track.Year,
	)
	// Template separators define directory levels; slashes inside field
	// values are sanitized to dashes and stay within their segment.
	var segments []string
	for _, segment := range strings.Split(template, "/") {
		segment = textutil.SanitizeFileName(replacer.Replace(segment))
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// templateFields carries the placeholder values for renderTemplate.
type templateFields struct {
	Artist string
	Title  string
	Album  string
	Year   string
}

// uniquePath returns path itself when free, otherwise the first "name (n).ext"
// variant that does not exist yet.
func uniquePath(path string) (string, error) {
	const maxAttempts = 10000
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		return "", err
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, attempt, ext)
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted filename slots for %s", path)
}

// moveFile renames src into place, falling back to a verified copy plus
// source removal when the rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			return err
		}
		return os.Remove(src)
	}
	return renameErr
}

// libraryEntry is one indexed track in the library.
type libraryEntry struct {
	Path  string
	Key   string
	Print *textutil.Fingerprint
}

// scanLibrary walks the library root and indexes every audio file by its
// normalized "artist - title" key (the basename without extension).
func scanLibrary(root string) ([]libraryEntry, error) {
	var entries []libraryEntry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				// A library that does not exist yet has no duplicates.
				if errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipAll
				}
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Name())), ".")
		if _, ok := audioExtensions[ext]; !ok {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		key := normalizeKey(name)
		entries = append(entries, libraryEntry{
			Path:  path,
			Key:   key,
			Print: textutil.NewFingerprint(key),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// normalizeKey case-folds and collapses whitespace so comparisons ignore
// case and spacing differences.
func normalizeKey(name string) string {
	folded := keyFolder.String(strings.TrimSpace(name))
	return strings.Join(strings.Fields(folded), " ")
}

// findDuplicate returns the closest library entry at or above the similarity
// threshold. Keys are compared with Jaro-Winkler and with token cosine
// similarity, taking the higher score; edit distance catches typos while the
// token vector catches reordered filenames ("Purple Rain - Prince").
func findDuplicate(entries []libraryEntry, key string, threshold float64) (libraryEntry, bool) {
	keyPrint := textutil.NewFingerprint(key)
	var (
		best      libraryEntry
		bestScore float64
	)
	for _, entry := range entries {
		score := smetrics.JaroWinkler(key, entry.Key, 0.7, 4)
		if cosine := keyPrint.Cosine(entry.Print); cosine > score {
			score = cosine
		}
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}
	if bestScore >= threshold && best.Path != "" {
		return best, true
	}
	return libraryEntry{}, false
}

// isLossless reports whether the dotless lowercase extension is an archival
// format.
func isLossless(ext string) bool {
	_, ok := losslessExtensions[strings.TrimPrefix(strings.ToLower(ext), ".")]
	return ok
}

// isQualityUpgrade reports whether replacing the existing file with the new
// one trades lossy for lossless.
func isQualityUpgrade(newExt, existingExt string) bool {
	return isLossless(newExt) && !isLossless(existingExt)
}
