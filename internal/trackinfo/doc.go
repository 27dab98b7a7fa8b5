// Package trackinfo defines the resolved-track payload shared between
// workflow stages.
//
// The Track type captures the metadata a search needs: artist, title, album,
// release year, expected duration, and the catalog reference it was resolved
// from. Resolution populates the envelope; searching, downloading, and
// organizing read it rather than re-deriving metadata from the queue item,
// so the envelope is the single source of truth for what track an item
// represents. Persisted as JSON in queue.metadata_json.
//
// # Entry Points
//
// Parse: load a track from JSON (returns a zero track on blank input).
// Track.Encode: serialise the track to JSON for persistence.
// FromQuery: derive a minimal track from free-form request text when
// catalog resolution is unavailable.
package trackinfo
