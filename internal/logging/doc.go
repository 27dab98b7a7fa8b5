// Package logging builds slog loggers with console and JSON handlers,
// shared attribute helpers, and context-derived fields (item, stage, lane,
// correlation id). It also prunes old per-run log files.
package logging
