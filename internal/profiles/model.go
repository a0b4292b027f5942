package profiles

import "time"

// Profile carries a user's subscription state. Tier is stored raw; callers
// coerce unknown values through the quota policy.
type Profile struct {
	UserID      string    `json:"userId"`
	PremiumTier string    `json:"premiumTier"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
