package usage

import (
	"context"
	"time"

	"minerpro-backend/internal/shared/telemetry"
)

// Sweeper periodically drops ledger events older than the retention span.
// Retention is separate from the counting window; it only has to be at
// least as long.
type Sweeper struct {
	Ledger    Ledger
	Retention time.Duration
	Interval  time.Duration

	now func() time.Time
}

// NewSweeper constructs a Sweeper with sane floors on its durations.
func NewSweeper(ledger Ledger, retention, interval time.Duration) *Sweeper {
	if retention < Window {
		retention = Window
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		Ledger:    ledger,
		Retention: retention,
		Interval:  interval,
		now:       time.Now,
	}
}

// RunOnce performs a single sweep and returns how many events were dropped.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.Retention)
	purged, err := s.Ledger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	telemetry.Info("ledger.sweep", map[string]any{
		"purged": purged,
		"cutoff": cutoff.Format(time.RFC3339),
	})
	return purged, nil
}

// Run sweeps on the configured interval until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				telemetry.Error("ledger.sweep_failed", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}
}
