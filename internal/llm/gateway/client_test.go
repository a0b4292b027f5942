package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"minerpro-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, "test-key", "test-model")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestCompleteReturnsContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Buy Robux at roblox.com/robux."}}]}`))
	})

	answer, err := client.Complete(context.Background(), []llm.Message{{Role: "user", Content: "how do I buy robux"}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if answer != "Buy Robux at roblox.com/robux." {
		t.Fatalf("answer = %q", answer)
	}
}

func TestCompleteClassifiesUpstreamStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, llm.ErrUpstreamRateLimited},
		{http.StatusPaymentRequired, llm.ErrUpstreamUnavailable},
		{http.StatusInternalServerError, llm.ErrUpstreamFailed},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := client.Complete(context.Background(), []llm.Message{{Role: "user", Content: "q"}})
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: err = %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestStreamYieldsAccumulatedDeltas(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n"))
		_, _ = w.Write([]byte("data: [DONE]\n"))
	})

	deltas, err := client.Stream(context.Background(), []llm.Message{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var got []string
	for delta := range deltas {
		got = append(got, delta)
	}
	if len(got) != 1 || got[0] != "Hi" {
		t.Fatalf("deltas = %v, want [Hi]", got)
	}
}

func TestStreamPreflightErrorIsSynchronous(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := client.Stream(context.Background(), []llm.Message{{Role: "user", Content: "q"}})
	if !errors.Is(err, llm.ErrUpstreamRateLimited) {
		t.Fatalf("err = %v, want ErrUpstreamRateLimited", err)
	}
}

func TestStreamStopsOnCallerCancel(t *testing.T) {
	blocked := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-blocked // hold the stream open until the test ends
	})
	t.Cleanup(func() { close(blocked) })

	ctx, cancel := context.WithCancel(context.Background())
	deltas, err := client.Stream(ctx, []llm.Message{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if first := <-deltas; first != "Hi" {
		t.Fatalf("first delta = %q", first)
	}
	cancel()

	// The channel must close once the context is canceled.
	for range deltas {
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	if _, err := NewClient("", "key", "model"); err == nil {
		t.Fatalf("expected error for empty base URL")
	}
	if _, err := NewClient("http://localhost", "", "model"); err == nil {
		t.Fatalf("expected error for empty api key")
	}
	if _, err := NewClient("http://localhost", "key", ""); err == nil {
		t.Fatalf("expected error for empty model")
	}
}
