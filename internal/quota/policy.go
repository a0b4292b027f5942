package quota

import "errors"

// Tier is a subscription level gating quota size.
type Tier string

const (
	TierFree       Tier = "free"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// Action is a category of rate-limited operation.
type Action string

const (
	ActionChat Action = "chat"
	ActionFAQ  Action = "faq"
)

// ErrInvalidAction indicates the caller supplied an unrecognized action.
var ErrInvalidAction = errors.New("invalid action")

// Limit is the resolved quota for a (tier, action) pair.
type Limit struct {
	Tier        Tier
	Action      Action
	MaxRequests int
}

type tierLimits struct {
	chatPerHour int
	faqPerHour  int
}

// policy is constructed once and never mutated after init.
var policy = map[Tier]tierLimits{
	TierFree:       {chatPerHour: 20, faqPerHour: 10},
	TierPremium:    {chatPerHour: 200, faqPerHour: 100},
	TierEnterprise: {chatPerHour: 1000, faqPerHour: 500},
}

// ParseTier maps a raw tier value to a known Tier. Unknown, empty, or
// missing values resolve to free so an unrecognized tier never blocks
// service; it just gets the most restrictive quota.
func ParseTier(raw string) Tier {
	switch Tier(raw) {
	case TierFree, TierPremium, TierEnterprise:
		return Tier(raw)
	default:
		return TierFree
	}
}

// ParseAction validates a raw action value. Unlike tiers, unknown actions
// are a caller error, not coerced.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionChat, ActionFAQ:
		return Action(raw), nil
	default:
		return "", ErrInvalidAction
	}
}

// Resolve returns the applicable quota for a raw (tier, action) pair.
// It is pure: no I/O, deterministic for identical inputs.
func Resolve(rawTier, rawAction string) (Limit, error) {
	action, err := ParseAction(rawAction)
	if err != nil {
		return Limit{}, err
	}
	tier := ParseTier(rawTier)
	limits := policy[tier]
	max := limits.chatPerHour
	if action == ActionFAQ {
		max = limits.faqPerHour
	}
	return Limit{Tier: tier, Action: action, MaxRequests: max}, nil
}
