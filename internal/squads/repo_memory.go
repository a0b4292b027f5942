package squads

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	squads   map[string]Squad
	members  map[string]map[string]time.Time
	messages []Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		squads:  make(map[string]Squad),
		members: make(map[string]map[string]time.Time),
	}
}

// Seed inserts a squad directly. Dev and test wiring only.
func (r *MemoryRepo) Seed(squad Squad) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if squad.CreatedAt.IsZero() {
		squad.CreatedAt = time.Now().UTC()
	}
	r.squads[squad.ID] = squad
}

func (r *MemoryRepo) GetSquad(ctx context.Context, squadID string) (Squad, error) {
	if err := ctx.Err(); err != nil {
		return Squad{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	squad, ok := r.squads[squadID]
	if !ok {
		return Squad{}, ErrNotFound
	}
	squad.MemberCount = len(r.members[squadID])
	return squad, nil
}

func (r *MemoryRepo) ListActive(ctx context.Context) ([]Squad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Squad, 0, len(r.squads))
	for id, squad := range r.squads {
		if !squad.IsActive {
			continue
		}
		squad.MemberCount = len(r.members[id])
		out = append(out, squad)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) AddMember(ctx context.Context, squadID, userID string, joinedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.squads[squadID]; !ok {
		return ErrNotFound
	}
	if r.members[squadID] == nil {
		r.members[squadID] = make(map[string]time.Time)
	}
	if _, ok := r.members[squadID][userID]; !ok {
		r.members[squadID][userID] = joinedAt
	}
	return nil
}

func (r *MemoryRepo) RemoveMember(ctx context.Context, squadID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[squadID][userID]; !ok {
		return ErrNotMember
	}
	delete(r.members[squadID], userID)
	return nil
}

func (r *MemoryRepo) AddMessage(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.squads[message.SquadID]; !ok {
		return ErrNotFound
	}
	r.messages = append(r.messages, message)
	return nil
}
