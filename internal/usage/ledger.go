package usage

import (
	"context"
	"time"

	"minerpro-backend/internal/quota"
)

// Ledger is the append-only record of admitted requests. Implementations
// wrap transport failures in ErrStorageUnavailable.
type Ledger interface {
	// CountSince returns the number of events for (userID, action) with
	// CreatedAt >= since.
	CountSince(ctx context.Context, userID string, action quota.Action, since time.Time) (int, error)
	// Record appends an event. It is called only after a positive
	// admission decision; the decision is not rolled back on failure.
	Record(ctx context.Context, event Event) error
	// PurgeBefore drops events older than cutoff and reports how many.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// Clear removes all events for a user. Dev tooling only.
	Clear(ctx context.Context, userID string) error
}
