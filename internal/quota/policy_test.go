package quota

import (
	"errors"
	"testing"
)

func TestResolveKnownPairs(t *testing.T) {
	cases := []struct {
		tier   string
		action string
		max    int
	}{
		{"free", "chat", 20},
		{"free", "faq", 10},
		{"premium", "chat", 200},
		{"premium", "faq", 100},
		{"enterprise", "chat", 1000},
		{"enterprise", "faq", 500},
	}
	for _, tc := range cases {
		limit, err := Resolve(tc.tier, tc.action)
		if err != nil {
			t.Fatalf("Resolve(%q, %q): %v", tc.tier, tc.action, err)
		}
		if limit.MaxRequests != tc.max {
			t.Fatalf("Resolve(%q, %q) max = %d, want %d", tc.tier, tc.action, limit.MaxRequests, tc.max)
		}
		if string(limit.Tier) != tc.tier {
			t.Fatalf("Resolve(%q, %q) tier = %q", tc.tier, tc.action, limit.Tier)
		}
		if string(limit.Action) != tc.action {
			t.Fatalf("Resolve(%q, %q) action = %q", tc.tier, tc.action, limit.Action)
		}
	}
}

func TestResolveUnknownTierFallsBackToFree(t *testing.T) {
	for _, raw := range []string{"", "unknown-garbage-string", "FREE", "gold"} {
		limit, err := Resolve(raw, "faq")
		if err != nil {
			t.Fatalf("Resolve(%q, faq): %v", raw, err)
		}
		if limit.Tier != TierFree {
			t.Fatalf("Resolve(%q, faq) tier = %q, want free", raw, limit.Tier)
		}
		if limit.MaxRequests != 10 {
			t.Fatalf("Resolve(%q, faq) max = %d, want 10", raw, limit.MaxRequests)
		}
	}
}

func TestResolveInvalidAction(t *testing.T) {
	for _, tier := range []string{"free", "premium", "enterprise", "bogus"} {
		_, err := Resolve(tier, "delete-everything")
		if !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("Resolve(%q, delete-everything) err = %v, want ErrInvalidAction", tier, err)
		}
	}
	if _, err := Resolve("free", ""); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("empty action err = %v, want ErrInvalidAction", err)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	first, err := Resolve("premium", "chat")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i := 0; i < 100; i++ {
		again, err := Resolve("premium", "chat")
		if err != nil {
			t.Fatalf("Resolve repeat %d: %v", i, err)
		}
		if again != first {
			t.Fatalf("Resolve repeat %d = %+v, want %+v", i, again, first)
		}
	}
}
