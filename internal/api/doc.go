// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal queue models into transport-friendly DTOs
// that the CLI, the Telegram bot, and HTTP consumers can render without
// coupling to internal types.
//
// # Key Types
//
// QueueItem: transport representation of a queue entry with progress, the
// committed match, the authenticity verdict, and search summary counts.
//
// WorkflowStatus: daemon running state, queue stats, stage health, and last item.
//
// DaemonStatus: aggregated runtime information including dependencies.
//
// # Converters
//
// FromQueueItem: queue.Item -> QueueItem with progress stage defaults, match
// summary derivation from the committed candidate, and verdict summary
// derivation from the spectral report.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// StageHealthSlice: deterministic ordering of stage health map.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (queue.Status, queue.ProcessingLane) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds. Track metadata is passed through
// as json.RawMessage to avoid double-encoding.
//
// Match and verdict summaries are derived from the persisted candidate and
// report JSON rather than stored separately, so the API always reflects the
// current state of the item.
package api
