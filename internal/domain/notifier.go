package domain

import "context"

// Notifier delivers outbound email. Implementations must honor ctx
// cancellation: the sweep bounds every send with a timeout so one hung
// delivery cannot stall the rest of the batch.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
