package queue

import "strings"

// RequesterTelegramPrefix marks requests that originated from a Telegram
// chat; the suffix is the chat id. Stages use it to decide whether manual
// candidate selection applies and front-ends use it to route updates back.
const RequesterTelegramPrefix = "telegram:"

// ParseQuery splits a free-text request of the form "Artist - Title" into its
// parts. Queries without a separator resolve to a bare title; the metadata
// resolver fills in the rest.
func ParseQuery(query string) (artist, title string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ""
	}
	if idx := strings.Index(query, " - "); idx >= 0 {
		artist = strings.TrimSpace(query[:idx])
		title = strings.TrimSpace(query[idx+3:])
		if artist != "" && title != "" {
			return artist, title
		}
	}
	return "", query
}

// RequestKey derives the dedupe key for a track request. Two requests with
// the same key refer to the same track regardless of capitalization or
// surrounding whitespace.
func RequestKey(artist, title string) string {
	artist = strings.ToLower(strings.TrimSpace(artist))
	title = strings.ToLower(strings.TrimSpace(title))
	if artist == "" && title == "" {
		return ""
	}
	return artist + "|" + title
}
