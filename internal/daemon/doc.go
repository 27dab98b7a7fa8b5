// Package daemon coordinates the long-running Stylus process.
//
// It wires configuration, queue storage, the workflow manager, and the HTTP
// API into a single lifecycle with flock-based locking to prevent multiple
// instances. The daemon exposes queue maintenance helpers, emits dependency
// health summaries, and serves Prometheus metrics alongside the JSON API.
//
// Keep orchestration logic here: individual workflow stages live in their
// respective packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
