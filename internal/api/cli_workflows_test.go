package api

import (
	"context"
	"strings"
	"testing"

	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/spectral"
	"stylus/internal/testsupport"
)

func TestAddTrackQueuesRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	result, err := AddTrack(context.Background(), AddTrackRequest{
		Config:    cfg,
		Store:     store,
		Query:     "Prince - Purple Rain",
		Requester: "cli",
	})
	if err != nil {
		t.Fatalf("AddTrack returned error: %v", err)
	}
	if result.Item == nil {
		t.Fatal("expected a created item")
	}
	if result.Duplicate != nil {
		t.Fatalf("expected no duplicate, got item %d", result.Duplicate.ID)
	}
	if result.Item.Artist != "Prince" || result.Item.Title != "Purple Rain" {
		t.Fatalf("unexpected parsed request: %q / %q", result.Item.Artist, result.Item.Title)
	}
	if result.Item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", result.Item.Status)
	}
}

func TestAddTrackReportsActiveDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := AddTrack(ctx, AddTrackRequest{Config: cfg, Store: store, Query: "Prince - Purple Rain", Requester: "cli"})
	if err != nil {
		t.Fatalf("first AddTrack returned error: %v", err)
	}
	if first.Item == nil {
		t.Fatal("expected the first request to create an item")
	}

	second, err := AddTrack(ctx, AddTrackRequest{Config: cfg, Store: store, Query: "prince - purple rain", Requester: "telegram:42"})
	if err != nil {
		t.Fatalf("second AddTrack returned error: %v", err)
	}
	if second.Item != nil {
		t.Fatalf("expected duplicate suppression, got new item %d", second.Item.ID)
	}
	if second.Duplicate == nil || second.Duplicate.ID != first.Item.ID {
		t.Fatalf("expected duplicate to reference item %d, got %+v", first.Item.ID, second.Duplicate)
	}

	forced, err := AddTrack(ctx, AddTrackRequest{Config: cfg, Store: store, Query: "Prince - Purple Rain", Requester: "cli", AllowDuplicate: true})
	if err != nil {
		t.Fatalf("forced AddTrack returned error: %v", err)
	}
	if forced.Item == nil || forced.Item.ID == first.Item.ID {
		t.Fatalf("expected a new item when duplicates are allowed, got %+v", forced.Item)
	}
}

func TestAddTrackRequiresQuery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if _, err := AddTrack(context.Background(), AddTrackRequest{Config: cfg, Store: store, Query: "   "}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestAssessMatchOutcomes(t *testing.T) {
	candidate := search.Scored{
		Candidate: search.Candidate{
			Username:  "collector",
			Filename:  `Music\Prince\Purple Rain\01 - Purple Rain.flac`,
			Extension: "flac",
		},
		Total: 91.5,
	}
	candidateJSON, err := candidate.Encode()
	if err != nil {
		t.Fatalf("encode candidate: %v", err)
	}
	results := &search.ResultSet{Tier: search.TierFull, Candidates: []search.Scored{candidate}}
	resultsJSON, err := results.Encode()
	if err != nil {
		t.Fatalf("encode results: %v", err)
	}
	report := spectral.Report{Verdict: spectral.VerdictAuthentic, CutoffKHz: 21.8, NyquistKHz: 22.05, SampleRate: 44100}
	verdictJSON, err := report.Encode()
	if err != nil {
		t.Fatalf("encode verdict: %v", err)
	}

	completed := &queue.Item{
		ID: 7, Artist: "Prince", Title: "Purple Rain",
		Status:        queue.StatusCompleted,
		FinalFile:     "/library/Prince/Purple Rain/Prince - Purple Rain.flac",
		CandidateJSON: candidateJSON,
		ResultsJSON:   resultsJSON,
		VerdictJSON:   verdictJSON,
	}
	assessment := AssessMatch(completed)
	if assessment.Outcome != "success" {
		t.Fatalf("expected success outcome, got %q", assessment.Outcome)
	}
	if assessment.Filename != "01 - Purple Rain.flac" {
		t.Fatalf("expected base filename, got %q", assessment.Filename)
	}
	if assessment.Verdict != "Lossless OK (spectrum to 21.8kHz)" {
		t.Fatalf("unexpected verdict summary: %q", assessment.Verdict)
	}
	if assessment.CandidateCount != 1 || assessment.SearchTier != "full" {
		t.Fatalf("unexpected search summary: %d / %q", assessment.CandidateCount, assessment.SearchTier)
	}
	if !strings.Contains(assessment.OutcomeMessage, "🎵") {
		t.Fatalf("unexpected success message: %q", assessment.OutcomeMessage)
	}

	review := &queue.Item{ID: 8, Artist: "Prince", Title: "Purple Rain", Status: queue.StatusReview}
	review.SetReview("Fake lossless (cutoff 16.0kHz)")
	assessment = AssessMatch(review)
	if assessment.Outcome != "review" {
		t.Fatalf("expected review outcome, got %q", assessment.Outcome)
	}
	if assessment.ReviewReason != "Fake lossless (cutoff 16.0kHz)" {
		t.Fatalf("unexpected review reason: %q", assessment.ReviewReason)
	}

	awaiting := &queue.Item{
		ID: 9, Artist: "Prince", Title: "Purple Rain",
		Status:      queue.StatusFound,
		ResultsJSON: resultsJSON,
	}
	assessment = AssessMatch(awaiting)
	if assessment.Outcome != "awaiting_selection" {
		t.Fatalf("expected awaiting_selection outcome, got %q", assessment.Outcome)
	}
	if !strings.Contains(assessment.OutcomeMessage, "Found 1 candidates") {
		t.Fatalf("unexpected awaiting message: %q", assessment.OutcomeMessage)
	}

	failed := &queue.Item{ID: 10, Query: "Prince - Purple Rain", Status: queue.StatusFailed, ErrorMessage: "searcher: search soulseek: Soulseek search failed"}
	assessment = AssessMatch(failed)
	if assessment.Outcome != "failed" {
		t.Fatalf("expected failed outcome, got %q", assessment.Outcome)
	}

	inflight := &queue.Item{ID: 11, Query: "Prince - Purple Rain", Status: queue.StatusDownloading}
	assessment = AssessMatch(inflight)
	if assessment.Outcome != "incomplete" {
		t.Fatalf("expected incomplete outcome, got %q", assessment.Outcome)
	}
	if !strings.Contains(assessment.OutcomeMessage, "Downloading") {
		t.Fatalf("unexpected in-flight message: %q", assessment.OutcomeMessage)
	}

	assessment = AssessMatch(nil)
	if assessment.Outcome != "failed" {
		t.Fatalf("expected failed outcome for nil item, got %q", assessment.Outcome)
	}
}
