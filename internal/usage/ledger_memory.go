package usage

import (
	"context"
	"sync"
	"time"

	"minerpro-backend/internal/quota"
)

type memoryLedger struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryLedger returns an in-process ledger for dev and tests.
func NewMemoryLedger() Ledger {
	return &memoryLedger{}
}

func (l *memoryLedger) CountSince(ctx context.Context, userID string, action quota.Action, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, e := range l.events {
		if e.UserID == userID && e.Action == action && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (l *memoryLedger) Record(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func (l *memoryLedger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.events[:0]
	var purged int64
	for _, e := range l.events {
		if e.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	l.events = kept
	return purged, nil
}

func (l *memoryLedger) Clear(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.events[:0]
	for _, e := range l.events {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	l.events = kept
	return nil
}
