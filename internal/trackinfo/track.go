package trackinfo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source values recorded on a resolved track.
const (
	SourceSpotify = "spotify"
	SourceQuery   = "query"
	SourceManual  = "manual"
)

// Track captures resolved track metadata shared between the resolving,
// searching, downloading, and organizing stages.
type Track struct {
	Artist          string `json:"artist"`
	Title           string `json:"title"`
	Album           string `json:"album,omitempty"`
	Year            string `json:"year,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	SpotifyID       string `json:"spotify_id,omitempty"`
	SpotifyURL      string `json:"spotify_url,omitempty"`
	Source          string `json:"source,omitempty"`
}

// Parse loads a track envelope from JSON, returning a zero track on blank input.
func Parse(raw string) (Track, error) {
	var track Track
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return track, nil
	}
	if err := json.Unmarshal([]byte(raw), &track); err != nil {
		return Track{}, err
	}
	return track, nil
}

// Encode serialises the track envelope to JSON.
func (t Track) Encode() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Complete reports whether the track carries enough metadata to search with.
func (t Track) Complete() bool {
	return strings.TrimSpace(t.Artist) != "" && strings.TrimSpace(t.Title) != ""
}

// BaseName returns the canonical "Artist - Title" file stem.
func (t Track) BaseName() string {
	artist := strings.TrimSpace(t.Artist)
	title := strings.TrimSpace(t.Title)
	switch {
	case artist == "":
		return title
	case title == "":
		return artist
	}
	return artist + " - " + title
}

// DurationDisplay renders the duration as m:ss, or "?:??" when unknown.
func (t Track) DurationDisplay() string {
	if t.DurationSeconds <= 0 {
		return "?:??"
	}
	return fmt.Sprintf("%d:%02d", t.DurationSeconds/60, t.DurationSeconds%60)
}

// String renders the track for logs and operator-facing messages.
func (t Track) String() string {
	name := t.BaseName()
	if name == "" {
		return "unknown track"
	}
	if t.DurationSeconds > 0 {
		return fmt.Sprintf("%s (%s)", name, t.DurationDisplay())
	}
	return name
}

// FromQuery derives a minimal track from free-form request text. Text in
// "Artist - Title" form splits into both fields; anything else becomes the
// title alone.
func FromQuery(query string) Track {
	query = strings.TrimSpace(query)
	track := Track{Source: SourceQuery}
	if query == "" {
		return track
	}
	if idx := strings.Index(query, " - "); idx >= 0 {
		artist := strings.TrimSpace(query[:idx])
		title := strings.TrimSpace(query[idx+3:])
		if artist != "" && title != "" {
			track.Artist = artist
			track.Title = title
			return track
		}
	}
	track.Title = query
	return track
}
