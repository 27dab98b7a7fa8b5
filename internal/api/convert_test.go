package api

import (
	"testing"

	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/spectral"
)

func TestFromQueueItemDerivesMatchAndVerdict(t *testing.T) {
	candidate := search.Scored{
		Candidate: search.Candidate{
			Username:        "collector",
			Filename:        "Music\\Prince\\Purple Rain\\01 - Purple Rain.flac",
			Size:            41_532_880,
			Extension:       "flac",
			BitDepth:        16,
			SampleRate:      44100,
			DurationSeconds: 523,
		},
		Total: 87.5,
		Rank:  1,
	}
	candidateJSON, err := candidate.Encode()
	if err != nil {
		t.Fatalf("encode candidate: %v", err)
	}

	report := spectral.Report{
		Verdict:    spectral.VerdictAuthentic,
		CutoffKHz:  21.8,
		NyquistKHz: 22.05,
		SampleRate: 44100,
	}
	verdictJSON, err := report.Encode()
	if err != nil {
		t.Fatalf("encode report: %v", err)
	}

	results := search.ResultSet{
		Query:      "Prince Purple Rain",
		Tier:       search.TierFull,
		Candidates: []search.Scored{candidate},
	}
	resultsJSON, err := results.Encode()
	if err != nil {
		t.Fatalf("encode results: %v", err)
	}

	item := &queue.Item{
		ID:            12,
		Artist:        "Prince",
		Title:         "Purple Rain",
		Status:        queue.StatusVerified,
		CandidateJSON: candidateJSON,
		VerdictJSON:   verdictJSON,
		ResultsJSON:   resultsJSON,
	}

	dto := FromQueueItem(item)
	if dto.Match == nil {
		t.Fatal("expected match summary")
	}
	if dto.Match.Username != "collector" {
		t.Fatalf("unexpected username %q", dto.Match.Username)
	}
	if dto.Match.Filename != "01 - Purple Rain.flac" {
		t.Fatalf("expected base name, got %q", dto.Match.Filename)
	}
	if dto.Match.Score != 87.5 {
		t.Fatalf("unexpected score %v", dto.Match.Score)
	}
	if dto.Verdict == nil {
		t.Fatal("expected verdict summary")
	}
	if dto.Verdict.Verdict != string(spectral.VerdictAuthentic) {
		t.Fatalf("unexpected verdict %q", dto.Verdict.Verdict)
	}
	if dto.Verdict.Summary == "" {
		t.Fatal("expected rendered verdict summary")
	}
	if dto.CandidateCount != 1 {
		t.Fatalf("expected candidate count 1, got %d", dto.CandidateCount)
	}
	if dto.SearchTier != string(search.TierFull) {
		t.Fatalf("unexpected tier %q", dto.SearchTier)
	}
	if dto.ProcessingLane != string(queue.LaneBackground) {
		t.Fatalf("expected background lane, got %q", dto.ProcessingLane)
	}
}

func TestFromQueueItemWithoutDerivedState(t *testing.T) {
	item := &queue.Item{ID: 3, Query: "Nancy Sinatra - Bang Bang", Status: queue.StatusPending}
	dto := FromQueueItem(item)
	if dto.Match != nil || dto.Verdict != nil {
		t.Fatal("expected no derived summaries for a fresh request")
	}
	if dto.CandidateCount != 0 || dto.SearchTier != "" {
		t.Fatalf("expected empty search summary, got %d %q", dto.CandidateCount, dto.SearchTier)
	}
	if dto.ProcessingLane != string(queue.LaneForeground) {
		t.Fatalf("expected foreground lane, got %q", dto.ProcessingLane)
	}
}

func TestFromQueueItemNormalizesCompletedProgressStage(t *testing.T) {
	item := &queue.Item{
		Status:          queue.StatusCompleted,
		ProgressStage:   "Organizing",
		ProgressPercent: 42,
	}

	dto := FromQueueItem(item)
	if dto.Progress.Stage != "Completed" {
		t.Fatalf("expected completed stage, got %q", dto.Progress.Stage)
	}
	if dto.Progress.Percent != 100 {
		t.Fatalf("expected percent 100, got %v", dto.Progress.Percent)
	}
}

func TestFromQueueItemPreservesReviewCompletionStage(t *testing.T) {
	item := &queue.Item{
		Status:          queue.StatusCompleted,
		NeedsReview:     true,
		ProgressStage:   "Manual review",
		ProgressPercent: 100,
	}

	dto := FromQueueItem(item)
	if dto.Progress.Stage != "Manual review" {
		t.Fatalf("expected manual review stage, got %q", dto.Progress.Stage)
	}
}

func TestFromQueueItemFillsEmptyProgressStageFromStatus(t *testing.T) {
	tests := []struct {
		name   string
		status queue.Status
		want   string
	}{
		{name: "pending", status: queue.StatusPending, want: "Pending"},
		{name: "searching", status: queue.StatusSearching, want: "Searching"},
		{name: "downloading", status: queue.StatusDownloading, want: "Downloading"},
		{name: "completed", status: queue.StatusCompleted, want: "Completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &queue.Item{
				Status:        tt.status,
				ProgressStage: "",
			}
			dto := FromQueueItem(item)
			if dto.Progress.Stage != tt.want {
				t.Fatalf("expected stage %q, got %q", tt.want, dto.Progress.Stage)
			}
		})
	}
}

func TestFromQueueItemIgnoresCorruptCandidateJSON(t *testing.T) {
	item := &queue.Item{ID: 5, Status: queue.StatusFound, CandidateJSON: "{not json"}
	dto := FromQueueItem(item)
	if dto.Match != nil {
		t.Fatal("expected corrupt candidate JSON to be skipped")
	}
}
