// Package spotify provides the minimal Spotify Web API client used during
// track resolution.
//
// It authenticates with the client-credentials grant (no user login), caches
// the bearer token until expiry, and exposes track search and track-by-id
// lookups. Responses are strongly typed so the resolution stage can pick and
// persist metadata. Options allow tests to supply custom HTTP clients without
// modifying production code.
package spotify
