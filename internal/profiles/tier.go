package profiles

import (
	"context"
	"errors"

	"minerpro-backend/internal/shared/telemetry"
)

// TierLookup adapts a Repo into the tier resolver used by the quota
// endpoints. A missing profile or a lookup failure yields an empty tier,
// which the quota policy coerces to free; lookups never block service.
func TierLookup(repo Repo) func(ctx context.Context, userID string) string {
	return func(ctx context.Context, userID string) string {
		profile, err := repo.GetByUserID(ctx, userID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				telemetry.Error("profiles.lookup_failed", map[string]any{
					"user_id": userID,
					"error":   err.Error(),
				})
			}
			return ""
		}
		return profile.PremiumTier
	}
}
