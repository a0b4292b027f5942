package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"minerpro-backend/internal/quota"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCheckAndAdmitMonotonicUntilLimit(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryLedger()).WithClock(fixedClock(now))

	// free/chat quota is 20.
	for i := 1; i <= 20; i++ {
		d, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "chat")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("call %d denied, want allowed", i)
		}
		if d.Current != i {
			t.Fatalf("call %d current = %d, want %d", i, d.Current, i)
		}
		if d.Remaining != 20-i {
			t.Fatalf("call %d remaining = %d, want %d", i, d.Remaining, 20-i)
		}
	}

	d, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "chat")
	if err != nil {
		t.Fatalf("call 21: %v", err)
	}
	if d.Allowed {
		t.Fatalf("call 21 allowed, want denied")
	}
	if d.Limit != 20 || d.Current != 20 {
		t.Fatalf("call 21 limit=%d current=%d, want 20/20", d.Limit, d.Current)
	}
	if !d.ResetAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("call 21 resetAt = %s", d.ResetAt)
	}
	if d.Message != upgradeNudge {
		t.Fatalf("call 21 message = %q", d.Message)
	}
}

func TestCheckAndAdmitRejectionWritesNothing(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	ledger := NewMemoryLedger()
	svc := NewService(ledger).WithClock(fixedClock(now))

	// free/faq quota is 10.
	for i := 0; i < 10; i++ {
		if _, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "faq"); err != nil {
			t.Fatalf("fill call %d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		d, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "faq")
		if err != nil {
			t.Fatalf("denied call %d: %v", i, err)
		}
		if d.Allowed {
			t.Fatalf("denied call %d allowed", i)
		}
	}

	count, err := ledger.CountSince(context.Background(), "user-1", quota.ActionFAQ, now.Add(-Window))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if count != 10 {
		t.Fatalf("ledger count = %d, want 10 (rejections must not append)", count)
	}
}

func TestCheckAndAdmitUnknownTierResolvesToFree(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryLedger()).WithClock(fixedClock(now))

	d, err := svc.CheckAndAdmit(context.Background(), "user-1", "unknown-garbage-string", "faq")
	if err != nil {
		t.Fatalf("CheckAndAdmit: %v", err)
	}
	if d.Tier != quota.TierFree {
		t.Fatalf("tier = %q, want free", d.Tier)
	}
	if d.Limit != 10 {
		t.Fatalf("limit = %d, want 10", d.Limit)
	}
}

type countingLedger struct {
	Ledger
	counts  int
	records int
}

func (l *countingLedger) CountSince(ctx context.Context, userID string, action quota.Action, since time.Time) (int, error) {
	l.counts++
	return l.Ledger.CountSince(ctx, userID, action, since)
}

func (l *countingLedger) Record(ctx context.Context, event Event) error {
	l.records++
	return l.Ledger.Record(ctx, event)
}

func TestCheckAndAdmitInvalidActionTouchesNoStorage(t *testing.T) {
	ledger := &countingLedger{Ledger: NewMemoryLedger()}
	svc := NewService(ledger)

	_, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "delete-everything")
	if !errors.Is(err, quota.ErrInvalidAction) {
		t.Fatalf("err = %v, want ErrInvalidAction", err)
	}
	if ledger.counts != 0 || ledger.records != 0 {
		t.Fatalf("ledger touched: counts=%d records=%d", ledger.counts, ledger.records)
	}
}

func TestCheckAndAdmitSlidingWindowExpiresOldEvents(t *testing.T) {
	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	current := start
	ledger := NewMemoryLedger()
	svc := NewService(ledger).WithClock(func() time.Time { return current })

	for i := 0; i < 10; i++ {
		if _, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "faq"); err != nil {
			t.Fatalf("fill call %d: %v", i, err)
		}
	}
	d, _ := svc.CheckAndAdmit(context.Background(), "user-1", "free", "faq")
	if d.Allowed {
		t.Fatalf("expected denial at quota")
	}

	// 61 minutes later the old events fall out of the trailing window.
	current = start.Add(61 * time.Minute)
	d, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "faq")
	if err != nil {
		t.Fatalf("CheckAndAdmit after window: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected admission after window slid past old events")
	}
	if d.Current != 1 {
		t.Fatalf("current = %d, want 1", d.Current)
	}
}

type failingLedger struct{ Ledger }

func (failingLedger) CountSince(ctx context.Context, userID string, action quota.Action, since time.Time) (int, error) {
	return 0, ErrStorageUnavailable
}

func TestCheckAndAdmitFailsClosedOnStorageError(t *testing.T) {
	svc := NewService(failingLedger{NewMemoryLedger()})
	_, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "chat")
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
}

type recordFailLedger struct{ Ledger }

func (l recordFailLedger) Record(ctx context.Context, event Event) error {
	return ErrStorageUnavailable
}

func TestCheckAndAdmitRecordFailureDoesNotRevokeAdmission(t *testing.T) {
	svc := NewService(recordFailLedger{NewMemoryLedger()})
	d, err := svc.CheckAndAdmit(context.Background(), "user-1", "free", "chat")
	if err != nil {
		t.Fatalf("CheckAndAdmit: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("admission revoked on record failure")
	}
}

func TestSnapshotDoesNotConsumeQuota(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryLedger()).WithClock(fixedClock(now))

	if _, err := svc.CheckAndAdmit(context.Background(), "user-1", "premium", "chat"); err != nil {
		t.Fatalf("CheckAndAdmit: %v", err)
	}

	for i := 0; i < 5; i++ {
		snap, err := svc.Snapshot(context.Background(), "user-1", "premium")
		if err != nil {
			t.Fatalf("Snapshot %d: %v", i, err)
		}
		chat := snap[quota.ActionChat]
		if chat.Current != 1 || chat.Limit != 200 || chat.Remaining != 199 {
			t.Fatalf("chat snapshot = %+v", chat)
		}
		faq := snap[quota.ActionFAQ]
		if faq.Current != 0 || faq.Limit != 100 {
			t.Fatalf("faq snapshot = %+v", faq)
		}
	}
}
