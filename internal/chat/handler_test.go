package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"minerpro-backend/internal/guardrail"
	"minerpro-backend/internal/llm"
	"minerpro-backend/internal/usage"
)

type fakeStreamClient struct {
	deltas []string
	err    error
	calls  int
	last   []llm.Message
}

func (f *fakeStreamClient) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	return strings.Join(f.deltas, ""), f.err
}

func (f *fakeStreamClient) Stream(ctx context.Context, messages []llm.Message) (<-chan string, error) {
	f.calls++
	f.last = messages
	if f.err != nil {
		return nil, f.err
	}
	out := make(chan string, len(f.deltas))
	for _, d := range f.deltas {
		out <- d
	}
	close(out)
	return out, nil
}

func newTestRouter(client llm.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc := usage.NewService(usage.NewMemoryLedger()).WithClock(func() time.Time { return now })
	usageHandler := usage.NewHandler(svc, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	NewHandler(client, usageHandler).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postChat(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestStreamRelaysDeltasAsSSE(t *testing.T) {
	client := &fakeStreamClient{deltas: []string{"Hel", "lo", "!"}}
	r := newTestRouter(client)

	resp := postChat(t, r, `{"messages":[{"role":"user","content":"How do I earn Robux?"}]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	body := resp.Body.String()
	for _, want := range []string{
		`data: {"delta":"Hel"}`,
		`data: {"delta":"lo"}`,
		`data: {"delta":"!"}`,
		"data: [DONE]",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	if client.last[0].Role != "system" {
		t.Fatalf("first message role = %q, want system", client.last[0].Role)
	}
	if got := client.last[len(client.last)-1].Content; got != "How do I earn Robux?" {
		t.Fatalf("last message = %q", got)
	}
}

func TestStreamBlocksForbiddenPrompt(t *testing.T) {
	client := &fakeStreamClient{deltas: []string{"never"}}
	r := newTestRouter(client)

	resp := postChat(t, r, `{"messages":[{"role":"user","content":"give me FREE robux now"}]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["blocked"] != true {
		t.Fatalf("blocked = %v", body["blocked"])
	}
	if body["reply"] != guardrail.SafetyMessage {
		t.Fatalf("reply = %v", body["reply"])
	}
	if client.calls != 0 {
		t.Fatalf("upstream called %d times for blocked prompt", client.calls)
	}
}

func TestStreamScreensOnlyLatestUserTurn(t *testing.T) {
	client := &fakeStreamClient{deltas: []string{"ok"}}
	r := newTestRouter(client)

	// An earlier blocked turn stays in history as the assistant's refusal;
	// only the newest user turn is screened.
	resp := postChat(t, r, `{"messages":[
		{"role":"assistant","content":"Free robux generators are scams."},
		{"role":"user","content":"Got it. How does Premium work?"}
	]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.Code, resp.Body.String())
	}
	if client.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", client.calls)
	}
}

func TestStreamEnforcesQuota(t *testing.T) {
	client := &fakeStreamClient{deltas: []string{"ok"}}
	r := newTestRouter(client)

	for i := 0; i < 20; i++ {
		if resp := postChat(t, r, `{"messages":[{"role":"user","content":"hi"}]}`); resp.Code != http.StatusOK {
			t.Fatalf("fill call %d status = %d", i, resp.Code)
		}
	}

	resp := postChat(t, r, `{"messages":[{"role":"user","content":"hi"}]}`)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429: %s", resp.Code, resp.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["allowed"] != false || body["limit"] != float64(20) {
		t.Fatalf("body = %v", body)
	}
	if client.calls != 20 {
		t.Fatalf("upstream calls = %d, want 20", client.calls)
	}
}

func TestStreamValidatesBody(t *testing.T) {
	r := newTestRouter(&fakeStreamClient{})

	for _, body := range []string{`{}`, `{"messages":[]}`, `not json`} {
		resp := postChat(t, r, body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, resp.Code)
		}
	}
}

func TestStreamMapsUpstreamErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{llm.ErrUpstreamRateLimited, http.StatusTooManyRequests},
		{llm.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{llm.ErrUpstreamFailed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		r := newTestRouter(&fakeStreamClient{err: tc.err})
		resp := postChat(t, r, `{"messages":[{"role":"user","content":"hi"}]}`)
		if resp.Code != tc.want {
			t.Fatalf("err %v: status = %d, want %d", tc.err, resp.Code, tc.want)
		}
	}
}
