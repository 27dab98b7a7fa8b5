// Package organizer finalizes verified tracks by placing them in the music
// library.
//
// It renders the configured filename template, sanitizes every path segment,
// and moves the staged file into place with collision-safe numeric suffixes.
// Before placing a file it scans the library for fuzzy duplicates; duplicates
// route to the review directory unless the new file is a quality upgrade over
// a lossy original and overwriting is enabled. Progress updates and error
// wrapping follow the same conventions as other stages so the workflow
// manager can react uniformly.
package organizer
