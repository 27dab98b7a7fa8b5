package stage

import (
	"context"

	"stylus/internal/queue"
)

// Handler is implemented by each pipeline stage. Prepare runs before the item
// transitions into the stage's processing status and may mutate the item;
// Execute does the work; HealthCheck answers readiness probes for status
// output.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}
