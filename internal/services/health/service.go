package health

import (
	"context"
	"time"
)

// Check probes a single dependency.
type Check func(ctx context.Context) error

// Service encapsulates health-related checks.
type Service struct {
	checks map[string]Check
}

// NewService constructs a new health service.
func NewService() *Service {
	return &Service{checks: map[string]Check{}}
}

// AddCheck registers a named dependency probe.
func (s *Service) AddCheck(name string, check Check) {
	s.checks[name] = check
}

// Status runs every registered probe. The payload is always returned; ok is
// false when any probe fails.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	ok := true
	deps := map[string]string{}
	for name, check := range s.checks {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check(probeCtx)
		cancel()
		if err != nil {
			ok = false
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}

	payload := map[string]any{"ok": ok}
	if len(deps) > 0 {
		payload["dependencies"] = deps
	}
	return payload, ok
}
