package featureflags

import (
	"context"
	"crypto/sha256"
	"errors"

	"minerpro-backend/internal/shared/telemetry"
)

var ErrNotFound = errors.New("feature flag not found")

// Flag is a named switch with an optional percentage rollout.
type Flag struct {
	Name              string `json:"name"`
	Enabled           bool   `json:"enabled"`
	RolloutPercentage int    `json:"rolloutPercentage"`
	Description       string `json:"description,omitempty"`
}

type Repo interface {
	GetByName(ctx context.Context, name string) (Flag, error)
	ListAll(ctx context.Context) ([]Flag, error)
}

// Checker answers whether a flag is on for a given user. Every failure
// path reads as "off": a missing flag, a storage error, or a disabled
// flag all return false, so a flag outage can only hide features, never
// expose them.
type Checker struct {
	repo Repo
}

func NewChecker(repo Repo) *Checker {
	return &Checker{repo: repo}
}

// Enabled reports whether the named flag is on for userID. Rollout below
// 100 percent buckets users by a stable hash, so the same user keeps the
// same answer across requests.
func (c *Checker) Enabled(ctx context.Context, name, userID string) bool {
	flag, err := c.repo.GetByName(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			telemetry.Error("featureflags.check_failed", map[string]any{
				"flag":  name,
				"error": err.Error(),
			})
		}
		return false
	}
	if !flag.Enabled {
		return false
	}
	if flag.RolloutPercentage >= 100 {
		return true
	}
	if userID == "" {
		return flag.RolloutPercentage > 0
	}
	return userPercentile(userID) < flag.RolloutPercentage
}

// ListAll returns every flag. Dev tooling only.
func (c *Checker) ListAll(ctx context.Context) ([]Flag, error) {
	return c.repo.ListAll(ctx)
}

// userPercentile buckets a user into 0..99 by summing the bytes of the
// SHA-256 of their ID. Coarse, but stable, and it matches how existing
// rollout buckets were assigned.
func userPercentile(userID string) int {
	digest := sha256.Sum256([]byte(userID))
	sum := 0
	for _, b := range digest {
		sum += int(b)
	}
	return sum % 100
}
