// Package workflow advances queue items through the configured processing
// stages.
//
// The Manager polls the queue, reclaims stale work via heartbeats, and feeds
// items into registered stage handlers (resolver, searcher, downloader,
// verifier, organizer) while capturing progress and failure metadata. It also
// aggregates queue stats, calls stage health checks, and emits queue-level
// notifications when processing starts or completes.
//
// The workflow runs two independent lanes: foreground (resolving, searching)
// and background (downloading, verifying, organizing). Each lane polls for
// items matching its statuses and processes them one at a time, so a new
// search can proceed while an earlier match downloads and verifies. Claims
// are requester-aware: a requester never holds more than one in-flight item
// per lane, and a found item stays parked until a candidate has been
// committed (manual selection keeps the candidate slot empty until the user
// picks one).
//
// Add new lifecycle stages by extending StageSet, updating the queue status
// enums, and teaching the manager how to transition items; this package is
// the authoritative home for that coordination logic.
package workflow
