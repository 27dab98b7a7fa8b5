package search

import (
	"testing"

	"stylus/internal/config"
	"stylus/internal/trackinfo"
)

func TestScorePerfectCandidate(t *testing.T) {
	scorer := NewScorer(testMatching())
	ref := trackinfo.Track{Artist: "Pink Floyd", Title: "Time", DurationSeconds: 413}

	scored := scorer.Score(Candidate{
		Username:        "collector",
		Filename:        "Music\\Pink Floyd\\1973 - The Dark Side of the Moon\\04 - Time.flac",
		Extension:       "flac",
		BitDepth:        16,
		SampleRate:      44100,
		DurationSeconds: 413,
		HasFreeSlot:     true,
		UploadSpeed:     20_000_000,
		QueueLength:     0,
	}, ref)

	if scored.DurationScore != 40 {
		t.Errorf("DurationScore = %v, want 40", scored.DurationScore)
	}
	if scored.QualityScore != 25 {
		t.Errorf("QualityScore = %v, want 25", scored.QualityScore)
	}
	if scored.ReliabilityScore != 20 {
		t.Errorf("ReliabilityScore = %v, want 20", scored.ReliabilityScore)
	}
	if scored.FilenameScore != 15 {
		t.Errorf("FilenameScore = %v, want 15", scored.FilenameScore)
	}
	if scored.Total != 100 {
		t.Errorf("Total = %v, want 100", scored.Total)
	}
}

func TestScoreDurationBands(t *testing.T) {
	scorer := NewScorer(testMatching())

	tests := []struct {
		name      string
		candidate int
		reference int
		want      float64
	}{
		{"exact match", 162, 162, 40},
		{"within tolerance", 159, 162, 34},
		{"tolerance boundary", 157, 162, 30},
		{"just past tolerance", 156, 162, 22},
		{"ten second boundary", 152, 162, 10},
		{"past ten seconds", 151, 162, 9.5},
		{"thirty second boundary", 132, 162, 0},
		{"candidate unknown", 0, 162, 15},
		{"reference unknown", 162, 0, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := scorer.Score(Candidate{DurationSeconds: tt.candidate}, trackinfo.Track{DurationSeconds: tt.reference})
			if scored.DurationScore != tt.want {
				t.Fatalf("DurationScore = %v, want %v", scored.DurationScore, tt.want)
			}
		})
	}
}

func TestScoreQualityBands(t *testing.T) {
	scorer := NewScorer(testMatching())

	tests := []struct {
		name       string
		bitDepth   int
		sampleRate int
		want       float64
	}{
		{"cd standard", 16, 44100, 25},
		{"hi-res", 24, 96000, 19},
		{"hi-res depth cd rate", 24, 44100, 22},
		{"cd depth studio rate", 16, 48000, 22},
		{"unknown metadata", 0, 0, 8},
		{"unusual combination", 32, 192000, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := scorer.Score(Candidate{BitDepth: tt.bitDepth, SampleRate: tt.sampleRate}, trackinfo.Track{})
			if scored.QualityScore != tt.want {
				t.Fatalf("QualityScore = %v, want %v", scored.QualityScore, tt.want)
			}
		})
	}
}

func TestScoreReliability(t *testing.T) {
	scorer := NewScorer(testMatching())

	tests := []struct {
		name      string
		candidate Candidate
		want      float64
	}{
		{"best uploader clamped", Candidate{HasFreeSlot: true, UploadSpeed: 20_000_000, QueueLength: 0}, 20},
		{"typical uploader", Candidate{HasFreeSlot: true, UploadSpeed: 4_500_000, QueueLength: 3}, 16.5},
		{"slow open slot", Candidate{UploadSpeed: 2_000_000, QueueLength: 0}, 7},
		{"busy uploader", Candidate{QueueLength: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := scorer.Score(tt.candidate, trackinfo.Track{})
			if scored.ReliabilityScore != tt.want {
				t.Fatalf("ReliabilityScore = %v, want %v", scored.ReliabilityScore, tt.want)
			}
		})
	}
}

func TestScoreFilenameRelevance(t *testing.T) {
	scorer := NewScorer(testMatching())
	ref := trackinfo.Track{Artist: "Pink Floyd", Title: "Wish You Were Here"}

	tests := []struct {
		name     string
		filename string
		want     float64
	}{
		{"full match", "Music\\Pink Floyd\\05 - Wish You Were Here.flac", 15},
		{"artist plus partial title", "Pink Floyd - Wish.flac", 9.38},
		{"artist only", "Pink Floyd - Echoes.flac", 7.5},
		{"unrelated", "random\\something else.flac", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scored := scorer.Score(Candidate{Filename: tt.filename}, ref)
			if scored.FilenameScore != tt.want {
				t.Fatalf("FilenameScore = %v, want %v", scored.FilenameScore, tt.want)
			}
		})
	}
}

func TestRankPrefersExactDuration(t *testing.T) {
	scorer := NewScorer(testMatching())
	filter := NewFilter(testSearch(), testMatching())
	ref := trackinfo.Track{Artist: "Daft Punk", Title: "One More Time", DurationSeconds: 162}

	candidates := []Candidate{
		{Username: "near", Filename: "One More Time (a).flac", Extension: "flac", DurationSeconds: 161},
		{Username: "exact", Filename: "One More Time (b).flac", Extension: "flac", DurationSeconds: 162},
		{Username: "far", Filename: "One More Time (c).flac", Extension: "flac", DurationSeconds: 200},
	}

	kept, _ := filter.Apply(candidates, ref)
	if len(kept) != 2 {
		t.Fatalf("kept %d candidates, want 2 after the duration gate", len(kept))
	}

	ranked := scorer.Rank(kept, ref)
	if ranked[0].Username != "exact" || ranked[1].Username != "near" {
		t.Fatalf("order = [%s %s], want exact first", ranked[0].Username, ranked[1].Username)
	}
	if ranked[0].Total <= ranked[1].Total {
		t.Fatalf("exact match total %v not above near match %v", ranked[0].Total, ranked[1].Total)
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Fatalf("ranks = [%d %d], want [1 2]", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestRankDeduplicatesByBasename(t *testing.T) {
	scorer := NewScorer(testMatching())
	ref := trackinfo.Track{Title: "Time", DurationSeconds: 413}

	candidates := []Candidate{
		{Username: "slow", Filename: "Shared\\Time.flac", DurationSeconds: 413},
		{Username: "fast", Filename: "Other\\Folder\\TIME.flac", DurationSeconds: 413, HasFreeSlot: true, UploadSpeed: 9_000_000},
		{Username: "fast", Filename: "Other\\Folder\\Time (Alternate).flac", DurationSeconds: 413},
	}

	ranked := scorer.Rank(candidates, ref)
	if len(ranked) != 2 {
		t.Fatalf("ranked %d candidates, want 2 after dedup", len(ranked))
	}
	if ranked[0].Username != "fast" {
		t.Fatalf("winner = %s, want the better offer of the duplicated file", ranked[0].Username)
	}
}

func TestRankTieBreakPolicies(t *testing.T) {
	// Equal totals through different component mixes: "steady" earns its 40
	// from quality alone, "served" from reliability plus a weaker format.
	candidates := []Candidate{
		{Username: "steady", Filename: "a.flac", BitDepth: 16, SampleRate: 44100, QueueLength: 10},
		{Username: "served", Filename: "shared\\b-very-long-name.flac", HasFreeSlot: true, UploadSpeed: 2_000_000, QueueLength: 0},
	}
	ref := trackinfo.Track{}

	reliability := NewScorer(config.Matching{DurationToleranceSeconds: 5, TieBreak: TieBreakReliability})
	ranked := reliability.Rank(candidates, ref)
	if ranked[0].Total != ranked[1].Total {
		t.Fatalf("totals differ (%v vs %v); tie-break not exercised", ranked[0].Total, ranked[1].Total)
	}
	if ranked[0].Username != "served" {
		t.Fatalf("reliability policy winner = %s, want served", ranked[0].Username)
	}

	filename := NewScorer(config.Matching{DurationToleranceSeconds: 5, TieBreak: TieBreakFilename})
	ranked = filename.Rank(candidates, ref)
	if ranked[0].Username != "steady" {
		t.Fatalf("filename policy winner = %s, want steady", ranked[0].Username)
	}
}

func TestRankDeterministicUnderPermutation(t *testing.T) {
	scorer := NewScorer(testMatching())
	ref := trackinfo.Track{Artist: "Boards of Canada", Title: "Roygbiv", DurationSeconds: 150}

	candidates := []Candidate{
		{Username: "a", Filename: "Roygbiv.flac", DurationSeconds: 150, BitDepth: 16, SampleRate: 44100},
		{Username: "b", Filename: "BoC\\Roygbiv (2002).flac", DurationSeconds: 151, HasFreeSlot: true},
		{Username: "c", Filename: "music\\roygbiv (vinyl).flac", DurationSeconds: 150, BitDepth: 24, SampleRate: 96000},
		{Username: "d", Filename: "ROYGBIV.live.flac", DurationSeconds: 149, UploadSpeed: 3_000_000},
		{Username: "e", Filename: "boards of canada - roygbiv.flac", DurationSeconds: 155, QueueLength: 2},
	}

	forward := scorer.Rank(candidates, ref)

	reversed := make([]Candidate, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		reversed = append(reversed, candidates[i])
	}
	backward := scorer.Rank(reversed, ref)

	if len(forward) != len(backward) {
		t.Fatalf("lengths differ: %d vs %d", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].Username != backward[i].Username || forward[i].Total != backward[i].Total {
			t.Fatalf("position %d differs: %s (%v) vs %s (%v)",
				i, forward[i].Username, forward[i].Total, backward[i].Username, backward[i].Total)
		}
	}
}
