package api

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
	"unicode"

	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/spectral"
	"stylus/internal/stage"
	"stylus/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:              item.ID,
		Artist:          item.Artist,
		Title:           item.Title,
		Album:           item.Album,
		Year:            item.Year,
		DurationSeconds: item.DurationSeconds,
		SpotifyURL:      item.SpotifyURL,
		Query:           item.Query,
		Requester:       item.Requester,
		Status:          string(item.Status),
		ProcessingLane:  string(queue.LaneForItem(item)),
		Progress: QueueProgress{
			Stage:   item.ProgressStage,
			Percent: item.ProgressPercent,
			Message: item.ProgressMessage,
		},
		ErrorMessage:   item.ErrorMessage,
		DownloadedFile: item.DownloadedFile,
		StagedFile:     item.StagedFile,
		FinalFile:      item.FinalFile,
		RetryCount:     item.RetryCount,
		NeedsReview:    item.NeedsReview,
		ReviewReason:   item.ReviewReason,
	}
	normalizeProgress(item, &dto)

	if !item.CreatedAt.IsZero() {
		dto.CreatedAt = item.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !item.UpdatedAt.IsZero() {
		dto.UpdatedAt = item.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if raw := item.MetadataJSON; raw != "" {
		dto.Metadata = json.RawMessage(raw)
	}
	dto.Match = deriveMatchSummary(item)
	dto.Verdict = deriveVerdictSummary(item)
	dto.CandidateCount, dto.SearchTier = deriveSearchSummary(item)
	return dto
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	healthNames := make([]string, 0, len(summary.StageHealth))
	for name := range summary.StageHealth {
		healthNames = append(healthNames, name)
	}
	slices.Sort(healthNames)

	health := make([]StageHealth, 0, len(healthNames))
	for _, name := range healthNames {
		h := summary.StageHealth[name]
		health = append(health, StageHealth{
			Name:   name,
			Ready:  h.Ready,
			Detail: h.Detail,
		})
	}

	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}

	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  stats,
		StageHealth: health,
	}

	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastItem != nil {
		last := FromQueueItem(summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	names := make([]string, 0, len(health))
	for name := range health {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]StageHealth, 0, len(names))
	for _, name := range names {
		h := health[name]
		out = append(out, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// normalizeProgress fills an empty progress stage from the status and settles
// completed items at 100 percent. Review completions keep the stage the
// rejecting stage wrote.
func normalizeProgress(item *queue.Item, dto *QueueItem) {
	if strings.TrimSpace(dto.Progress.Stage) == "" {
		dto.Progress.Stage = statusLabel(item.Status)
	}
	if item.Status != queue.StatusCompleted {
		return
	}
	if !item.NeedsReview && !strings.Contains(strings.ToLower(dto.Progress.Stage), "review") {
		dto.Progress.Stage = statusLabel(queue.StatusCompleted)
	}
	if dto.Progress.Percent < 100 {
		dto.Progress.Percent = 100
	}
}

// statusLabel renders a queue status as a display label ("resolving" ->
// "Resolving").
func statusLabel(status queue.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}

// deriveMatchSummary decodes the committed candidate into its API summary.
// The remote path is reduced to its base name; the full peer path stays in
// the persisted candidate JSON.
func deriveMatchSummary(item *queue.Item) *MatchSummary {
	if item == nil || strings.TrimSpace(item.CandidateJSON) == "" {
		return nil
	}
	candidate, err := search.DecodeScored(item.CandidateJSON)
	if err != nil {
		return nil
	}
	return &MatchSummary{
		Username:        candidate.Username,
		Filename:        candidate.BaseName(),
		Extension:       candidate.Extension,
		Size:            candidate.Size,
		BitDepth:        candidate.BitDepth,
		SampleRate:      candidate.SampleRate,
		DurationSeconds: candidate.DurationSeconds,
		Score:           candidate.Total,
		Rank:            candidate.Rank,
	}
}

// deriveVerdictSummary decodes the persisted spectral report into its API
// summary.
func deriveVerdictSummary(item *queue.Item) *VerdictSummary {
	if item == nil || strings.TrimSpace(item.VerdictJSON) == "" {
		return nil
	}
	report, err := spectral.DecodeReport(item.VerdictJSON)
	if err != nil {
		return nil
	}
	return &VerdictSummary{
		Verdict:    string(report.Verdict),
		CutoffKHz:  report.CutoffKHz,
		SampleRate: report.SampleRate,
		Summary:    report.Summary(),
	}
}

// deriveSearchSummary reports how many ranked candidates the last search
// produced and which tier won.
func deriveSearchSummary(item *queue.Item) (int, string) {
	if item == nil || strings.TrimSpace(item.ResultsJSON) == "" {
		return 0, ""
	}
	results, err := search.DecodeResultSet(item.ResultsJSON)
	if err != nil || results == nil {
		return 0, ""
	}
	return len(results.Candidates), string(results.Tier)
}
