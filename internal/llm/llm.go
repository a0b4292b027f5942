package llm

import (
	"context"
	"errors"
)

// Message is one turn of a conversation sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client abstracts the upstream completion service.
type Client interface {
	// Complete returns the full answer for a conversation.
	Complete(ctx context.Context, messages []Message) (string, error)
	// Stream returns incremental text deltas for a conversation. The
	// channel is closed on completion, upstream close, or ctx
	// cancellation; the sequence is finite and non-restartable.
	Stream(ctx context.Context, messages []Message) (<-chan string, error)
}

// Upstream failures are classified so callers can pick distinct responses.
// None are retried here; retry policy belongs to the caller.
var (
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamFailed      = errors.New("upstream request failed")
)

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

func (PlaceholderClient) Complete(ctx context.Context, messages []Message) (string, error) {
	return "", ErrNotImplemented
}

func (PlaceholderClient) Stream(ctx context.Context, messages []Message) (<-chan string, error) {
	return nil, ErrNotImplemented
}
