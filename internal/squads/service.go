package squads

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"minerpro-backend/internal/guardrail"
)

var ErrEmptyMessage = errors.New("message is required")

// Service implements squad collaboration on top of a Repo.
type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Join adds the user to a squad and returns it. Joining a squad the user
// already belongs to succeeds without a second membership row.
func (s *Service) Join(ctx context.Context, userID, squadID string) (Squad, error) {
	if _, err := s.repo.GetSquad(ctx, squadID); err != nil {
		return Squad{}, err
	}
	if err := s.repo.AddMember(ctx, squadID, userID, s.now().UTC()); err != nil {
		return Squad{}, err
	}
	return s.repo.GetSquad(ctx, squadID)
}

func (s *Service) Leave(ctx context.Context, userID, squadID string) error {
	return s.repo.RemoveMember(ctx, squadID, userID)
}

// PostMessage stores a squad chat line. Forbidden phrases are rewritten
// before the message is persisted so scam bait never reaches other members.
func (s *Service) PostMessage(ctx context.Context, userID, squadID, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, ErrEmptyMessage
	}
	message := Message{
		ID:        uuid.NewString(),
		SquadID:   squadID,
		UserID:    userID,
		Body:      guardrail.Sanitize(body),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.AddMessage(ctx, message); err != nil {
		return Message{}, err
	}
	return message, nil
}

// List returns the active squads with member counts.
func (s *Service) List(ctx context.Context) ([]Squad, error) {
	return s.repo.ListActive(ctx)
}
