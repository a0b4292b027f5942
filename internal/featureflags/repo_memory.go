package featureflags

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	flags map[string]Flag
}

func NewMemoryRepo(flags ...Flag) *MemoryRepo {
	repo := &MemoryRepo{flags: make(map[string]Flag, len(flags))}
	for _, flag := range flags {
		repo.flags[flag.Name] = flag
	}
	return repo
}

func (r *MemoryRepo) Set(flag Flag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[flag.Name] = flag
}

func (r *MemoryRepo) GetByName(ctx context.Context, name string) (Flag, error) {
	if err := ctx.Err(); err != nil {
		return Flag{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	flag, ok := r.flags[name]
	if !ok {
		return Flag{}, ErrNotFound
	}
	return flag, nil
}

func (r *MemoryRepo) ListAll(ctx context.Context) ([]Flag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Flag, 0, len(r.flags))
	for _, flag := range r.flags {
		out = append(out, flag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
