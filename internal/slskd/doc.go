// Package slskd provides a typed client for the slskd REST API.
//
// slskd is the headless Soulseek daemon that performs the actual peer
// searches and file transfers. This package covers exactly the surface the
// pipeline exercises: the search lifecycle (submit, poll, stop, delete) and
// the per-user download queue (enqueue, inspect, cancel). Responses are
// always collected by requesting the search state with includeResponses set;
// the dedicated responses endpoint intermittently returns empty arrays while
// the state document carries the full payload.
//
// Authentication uses the X-API-Key header on every request.
package slskd
