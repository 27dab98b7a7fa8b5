// Package search finds the best-matching Soulseek files for a track.
//
// The work is split into small parts with one job each:
//
//   - tiers.go derives the escalating query plan from the track reference
//     (full query, title only, keyword reduction, artist catalog browse).
//   - Orchestrator runs one server-side search per query with a forward-only
//     session lifecycle: submit, poll, stop on timeout, collect, delete.
//     The server-side record is deleted on every exit path.
//   - Filter applies the format, exclude-keyword, and duration gates,
//     lossless-first with a lossy fallback from the same result set.
//   - Scorer computes the deterministic 0-100 breakdown (duration 40,
//     quality 25, reliability 20, filename 15) and ranks with a
//     configurable tie-break policy.
//   - Pipeline sequences the three across tiers; a tier that yields any
//     passing candidate halts escalation.
//   - Searcher is the workflow stage gluing the pipeline to the queue.
//
// Exhausting every tier without a match is a normal outcome, reported as an
// empty result set rather than an error.
package search
