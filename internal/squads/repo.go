package squads

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("squad not found")
	ErrNotMember = errors.New("not a squad member")
)

type Repo interface {
	// GetSquad returns one squad by ID, active or not.
	GetSquad(ctx context.Context, squadID string) (Squad, error)
	// ListActive returns active squads with their member counts.
	ListActive(ctx context.Context) ([]Squad, error)
	// AddMember records a join; joining twice is a no-op.
	AddMember(ctx context.Context, squadID, userID string, joinedAt time.Time) error
	// RemoveMember deletes a membership; ErrNotMember if absent.
	RemoveMember(ctx context.Context, squadID, userID string) error
	AddMessage(ctx context.Context, message Message) error
}
