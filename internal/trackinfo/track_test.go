package trackinfo

import (
	"testing"
)

func TestParseEncodeRoundTrip(t *testing.T) {
	track := Track{
		Artist:          "Nancy Sinatra",
		Title:           "Bang Bang (My Baby Shot Me Down)",
		Album:           "How Does That Grab You?",
		Year:            "1966",
		DurationSeconds: 162,
		SpotifyID:       "3CLPWeBJHiSZ2vF8sO4tYQ",
		SpotifyURL:      "https://open.spotify.com/track/3CLPWeBJHiSZ2vF8sO4tYQ",
		Source:          SourceSpotify,
	}
	encoded, err := track.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Parse(encoded)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if decoded != track {
		t.Fatalf("unexpected decoded track: %+v", decoded)
	}
}

func TestParseBlankInput(t *testing.T) {
	track, err := Parse("   ")
	if err != nil {
		t.Fatalf("unexpected error for blank input: %v", err)
	}
	if track != (Track{}) {
		t.Fatalf("expected zero track for blank input, got %+v", track)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse("{invalid json"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		artist, title string
		want          string
	}{
		{"Prince", "Purple Rain", "Prince - Purple Rain"},
		{"", "Purple Rain", "Purple Rain"},
		{"Prince", "", "Prince"},
		{"  Prince  ", "  Purple Rain  ", "Prince - Purple Rain"},
	}
	for _, tc := range tests {
		got := Track{Artist: tc.artist, Title: tc.title}.BaseName()
		if got != tc.want {
			t.Errorf("BaseName(%q, %q) = %q, want %q", tc.artist, tc.title, got, tc.want)
		}
	}
}

func TestDurationDisplay(t *testing.T) {
	if got := (Track{DurationSeconds: 162}).DurationDisplay(); got != "2:42" {
		t.Fatalf("unexpected duration display: %s", got)
	}
	if got := (Track{DurationSeconds: 61}).DurationDisplay(); got != "1:01" {
		t.Fatalf("unexpected duration display: %s", got)
	}
	if got := (Track{}).DurationDisplay(); got != "?:??" {
		t.Fatalf("expected placeholder for unknown duration, got %s", got)
	}
}

func TestFromQuery(t *testing.T) {
	track := FromQuery("Nancy Sinatra - Bang Bang")
	if track.Artist != "Nancy Sinatra" || track.Title != "Bang Bang" {
		t.Fatalf("unexpected split: %+v", track)
	}
	if track.Source != SourceQuery {
		t.Fatalf("unexpected source: %q", track.Source)
	}

	track = FromQuery("Bang Bang")
	if track.Artist != "" || track.Title != "Bang Bang" {
		t.Fatalf("expected title-only track, got %+v", track)
	}
	if track.Complete() {
		t.Fatal("title-only track should not be complete")
	}
}
