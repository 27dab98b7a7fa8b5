package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"stylus/internal/textutil"
)

// StagingRoot returns the per-item staging directory rooted at base. The
// directory name combines the sanitized track name with the queue ID so
// re-acquisitions of the same track never collide.
func (i Item) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := sanitizeSegment(strings.TrimSpace(strings.TrimSpace(i.Artist) + " " + strings.TrimSpace(i.Title)))
	if segment == "" {
		segment = sanitizeSegment(strings.TrimSpace(i.Query))
	}
	if segment == "" {
		segment = "queue"
	}
	return filepath.Join(base, fmt.Sprintf("%s-%d", segment, i.ID))
}

func sanitizeSegment(value string) string {
	value = textutil.SanitizeFileName(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.Trim(value, "-_")
	return value
}
