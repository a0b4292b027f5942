package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minerpro-backend/internal/quota"
	"minerpro-backend/internal/shared/metrics"
	"minerpro-backend/internal/shared/telemetry"
)

const (
	upgradeNudge = "Rate limit exceeded. Upgrade to Premium for higher limits."
	retryLater   = "Rate limit exceeded. Please try again later."
)

// Service makes admission decisions against the ledger.
type Service struct {
	ledger Ledger
	now    func() time.Time
}

// NewService constructs a Service over the given ledger.
func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger, now: time.Now}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckAndAdmit resolves the quota for (rawTier, rawAction), counts the
// user's trailing-window usage, and either denies or records a new event
// and admits.
//
// The count and the record are two separate round trips with no isolation
// between them, so concurrent requests from the same user can both observe
// a count below the limit and both be admitted. The quota is a best-effort
// cap, not a hard barrier.
func (s *Service) CheckAndAdmit(ctx context.Context, userID, rawTier, rawAction string) (Decision, error) {
	limit, err := quota.Resolve(rawTier, rawAction)
	if err != nil {
		return Decision{}, err
	}

	now := s.now().UTC()
	windowStart := now.Add(-Window)

	count, err := s.ledger.CountSince(ctx, userID, limit.Action, windowStart)
	if err != nil {
		// Fail closed: an unreadable ledger denies service rather than
		// granting unchecked access.
		return Decision{}, err
	}

	if count >= limit.MaxRequests {
		message := retryLater
		if limit.Tier == quota.TierFree {
			message = upgradeNudge
		}
		metrics.IncAdmissionDenied()
		return Decision{
			Allowed: false,
			Tier:    limit.Tier,
			Action:  limit.Action,
			Limit:   limit.MaxRequests,
			Current: count,
			ResetAt: now.Add(Window),
			Message: message,
		}, nil
	}

	event := Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    limit.Action,
		CreatedAt: now,
	}
	if err := s.ledger.Record(ctx, event); err != nil {
		// The admission stands; a lost log entry only loosens the cap.
		telemetry.Error("usage.record_failed", map[string]any{
			"user_id": userID,
			"action":  string(limit.Action),
			"tier":    string(limit.Tier),
			"error":   err.Error(),
		})
	}

	metrics.IncAdmissionAllowed()
	return Decision{
		Allowed:   true,
		Tier:      limit.Tier,
		Action:    limit.Action,
		Limit:     limit.MaxRequests,
		Current:   count + 1,
		Remaining: limit.MaxRequests - count - 1,
	}, nil
}

// Snapshot reports current usage for every action without consuming quota.
func (s *Service) Snapshot(ctx context.Context, userID, rawTier string) (map[quota.Action]Decision, error) {
	now := s.now().UTC()
	windowStart := now.Add(-Window)

	out := make(map[quota.Action]Decision, 2)
	for _, action := range []quota.Action{quota.ActionChat, quota.ActionFAQ} {
		limit, err := quota.Resolve(rawTier, string(action))
		if err != nil {
			return nil, err
		}
		count, err := s.ledger.CountSince(ctx, userID, action, windowStart)
		if err != nil {
			return nil, err
		}
		remaining := limit.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		out[action] = Decision{
			Allowed:   count < limit.MaxRequests,
			Tier:      limit.Tier,
			Action:    action,
			Limit:     limit.MaxRequests,
			Current:   count,
			Remaining: remaining,
		}
	}
	return out, nil
}

// Reset clears a user's ledger entries. Dev tooling only.
func (s *Service) Reset(ctx context.Context, userID string) error {
	return s.ledger.Clear(ctx, userID)
}
