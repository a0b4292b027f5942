package featureflags

import (
	"context"
	"errors"
	"testing"
)

type failingRepo struct{ err error }

func (r failingRepo) GetByName(ctx context.Context, name string) (Flag, error) {
	return Flag{}, r.err
}
func (r failingRepo) ListAll(ctx context.Context) ([]Flag, error) { return nil, r.err }

func TestEnabledFullRollout(t *testing.T) {
	checker := NewChecker(NewMemoryRepo(Flag{Name: "squads", Enabled: true, RolloutPercentage: 100}))
	if !checker.Enabled(context.Background(), "squads", "user-1") {
		t.Fatal("expected enabled at 100 percent")
	}
}

func TestEnabledDisabledFlag(t *testing.T) {
	checker := NewChecker(NewMemoryRepo(Flag{Name: "squads", Enabled: false, RolloutPercentage: 100}))
	if checker.Enabled(context.Background(), "squads", "user-1") {
		t.Fatal("expected disabled flag to be off")
	}
}

func TestEnabledMissingFlag(t *testing.T) {
	checker := NewChecker(NewMemoryRepo())
	if checker.Enabled(context.Background(), "squads", "user-1") {
		t.Fatal("expected missing flag to be off")
	}
}

func TestEnabledRepoErrorFailsOff(t *testing.T) {
	checker := NewChecker(failingRepo{err: errors.New("connection refused")})
	if checker.Enabled(context.Background(), "squads", "user-1") {
		t.Fatal("expected storage error to read as off")
	}
}

func TestEnabledZeroRollout(t *testing.T) {
	checker := NewChecker(NewMemoryRepo(Flag{Name: "squads", Enabled: true, RolloutPercentage: 0}))
	if checker.Enabled(context.Background(), "squads", "user-1") {
		t.Fatal("expected zero rollout to be off")
	}
	if checker.Enabled(context.Background(), "squads", "") {
		t.Fatal("expected zero rollout to be off for anonymous")
	}
}

func TestEnabledAnonymousPartialRollout(t *testing.T) {
	checker := NewChecker(NewMemoryRepo(Flag{Name: "squads", Enabled: true, RolloutPercentage: 10}))
	if !checker.Enabled(context.Background(), "squads", "") {
		t.Fatal("expected any positive rollout to be on without a user ID")
	}
}

func TestEnabledBucketingIsStable(t *testing.T) {
	repo := NewMemoryRepo(Flag{Name: "squads", Enabled: true, RolloutPercentage: 50})
	checker := NewChecker(repo)

	first := checker.Enabled(context.Background(), "squads", "user-42")
	for i := 0; i < 10; i++ {
		if got := checker.Enabled(context.Background(), "squads", "user-42"); got != first {
			t.Fatalf("call %d flipped from %v to %v", i, first, got)
		}
	}
}

func TestEnabledBucketingIsMonotonic(t *testing.T) {
	// A user inside the rollout at p stays inside at every larger p.
	repo := NewMemoryRepo()
	checker := NewChecker(repo)

	users := []string{"user-a", "user-b", "user-c", "guest:9f2", "user-42"}
	for _, user := range users {
		wasOn := false
		for pct := 0; pct <= 100; pct += 5 {
			repo.Set(Flag{Name: "squads", Enabled: true, RolloutPercentage: pct})
			on := checker.Enabled(context.Background(), "squads", user)
			if wasOn && !on {
				t.Fatalf("user %s dropped out when rollout grew to %d", user, pct)
			}
			wasOn = on
		}
		if !wasOn {
			t.Fatalf("user %s never enabled even at 100", user)
		}
	}
}
