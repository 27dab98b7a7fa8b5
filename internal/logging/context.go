package logging

import (
	"context"
	"log/slog"

	"stylus/internal/services"
)

// ContextFields pulls the request-scoped identifiers (item ID, stage, lane,
// requester, request ID) out of ctx as slog attributes. Only values actually
// present in the context appear.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldItemID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if lane, ok := services.LaneFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldLane, lane))
	}
	if requester, ok := services.RequesterFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequester, requester))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext attaches ContextFields(ctx) to logger. A nil logger becomes a
// no-op logger, and a context with no known fields returns logger unchanged.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
