package search

import (
	"reflect"
	"testing"

	"stylus/internal/trackinfo"
)

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"plain title untouched", "Purple Rain", "Purple Rain"},
		{"remaster suffix", "Time - Remastered 2011", "Time"},
		{"remaster suffix lowercase", "time - remastered", "time"},
		{"mono suffix", "Paint It Black - Mono", "Paint It Black"},
		{"en dash suffix", "Money – 2011 Remaster", "Money – 2011 Remaster"},
		{"remaster en dash", "Money – Remastered", "Money"},
		{"paren remaster", "Breathe (Remastered 2009)", "Breathe"},
		{"paren mono", "Taxman (Mono)", "Taxman"},
		{"deluxe edition suffix", "1999 - Deluxe Edition", "1999"},
		{"suffix strips rest of line", "Song - Remastered / Live At Wembley", "Song"},
		{"radio edit", "Blue Monday - Radio Edit", "Blue Monday"},
		{"year mix", "Heroes - 2017 Mix", "Heroes"},
		{"hyphen inside title kept", "Jean-Luc", "Jean-Luc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanTitle(tc.title); got != tc.want {
				t.Fatalf("CleanTitle(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestReducedQueriesDropsEachWord(t *testing.T) {
	got := ReducedQueries("Purple Rain Forever", "1984")
	want := []string{
		"Rain Forever 1984",
		"Purple Forever 1984",
		"Purple Rain 1984",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReducedQueries = %v, want %v", got, want)
	}
}

func TestReducedQueriesRequiresYearAndTwoWords(t *testing.T) {
	if got := ReducedQueries("Purple Rain", ""); got != nil {
		t.Fatalf("expected no queries without a year, got %v", got)
	}
	if got := ReducedQueries("Kashmir", "1975"); got != nil {
		t.Fatalf("expected no queries for single-word title, got %v", got)
	}
}

func TestLatinKeywordsFromMixedScript(t *testing.T) {
	got := LatinKeywords("紅 - KURENAI - シングル Long Version")
	want := []string{"KURENAI"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LatinKeywords = %v, want %v", got, want)
	}
}

func TestLatinKeywordsDropsNoiseAndShortWords(t *testing.T) {
	got := LatinKeywords("The Best of X Extended Mix")
	want := []string{"Best"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LatinKeywords = %v, want %v", got, want)
	}
}

func TestBuildTiersFullPlan(t *testing.T) {
	ref := trackinfo.Track{Artist: "Prince", Title: "Purple Rain - Remastered 2015", Year: "1984"}
	plan := BuildTiers(ref)

	wantTiers := []Tier{TierFull, TierTitleOnly, TierKeywordReduced, TierArtistOnly}
	if len(plan) != len(wantTiers) {
		t.Fatalf("expected %d tiers, got %d: %+v", len(wantTiers), len(plan), plan)
	}
	for i, want := range wantTiers {
		if plan[i].Tier != want {
			t.Fatalf("tier %d = %s, want %s", i, plan[i].Tier, want)
		}
	}
	if got := plan[0].Queries; len(got) != 1 || got[0] != "Prince Purple Rain" {
		t.Fatalf("full tier queries = %v", got)
	}
	if got := plan[1].Queries; len(got) != 1 || got[0] != "Purple Rain" {
		t.Fatalf("title tier queries = %v", got)
	}
	if got := plan[2].Queries; len(got) != 2 {
		t.Fatalf("reduced tier queries = %v", got)
	}
	if got := plan[3].Queries; len(got) != 1 || got[0] != "Prince" {
		t.Fatalf("artist tier queries = %v", got)
	}
}

func TestBuildTiersWithoutArtist(t *testing.T) {
	plan := BuildTiers(trackinfo.Track{Title: "Kashmir"})
	if len(plan) != 1 || plan[0].Tier != TierTitleOnly {
		t.Fatalf("expected title-only plan, got %+v", plan)
	}
}

func TestBuildTiersWithoutTitle(t *testing.T) {
	plan := BuildTiers(trackinfo.Track{Artist: "Boards of Canada"})
	if len(plan) != 1 || plan[0].Tier != TierArtistOnly {
		t.Fatalf("expected artist-only plan, got %+v", plan)
	}
}

func TestBuildTiersEmptyReference(t *testing.T) {
	if plan := BuildTiers(trackinfo.Track{}); len(plan) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestBuildTiersCarriesLocalKeywords(t *testing.T) {
	plan := BuildTiers(trackinfo.Track{Artist: "X JAPAN", Title: "紅 KURENAI"})
	last := plan[len(plan)-1]
	if last.Tier != TierArtistOnly {
		t.Fatalf("expected artist-only last, got %s", last.Tier)
	}
	if len(last.LocalKeywords) != 1 || last.LocalKeywords[0] != "KURENAI" {
		t.Fatalf("local keywords = %v", last.LocalKeywords)
	}
}
