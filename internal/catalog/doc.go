// Package catalog resolves free-text track requests to concrete metadata
// before the search stage runs.
//
// The Resolver turns raw request text or a pasted Spotify link into a track
// envelope (artist, title, album, year, duration) via the Spotify client in
// the spotify subpackage. Resolution enriches items rather than gating them:
// when the catalog is unreachable or returns nothing, the request text itself
// is parsed into minimal metadata and the item continues to search, since a
// Soulseek search can still succeed on keywords alone.
package catalog
