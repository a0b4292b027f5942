package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"minerpro-backend/internal/llm"
	"minerpro-backend/internal/shared/telemetry"
)

// Client implements llm.Client against an OpenAI-compatible AI gateway.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new gateway client.
func NewClient(baseURL, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("AI_GATEWAY_URL is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("AI_GATEWAY_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("AI_GATEWAY_MODEL is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("AI_GATEWAY_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete returns the full answer for a conversation.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	resp, err := c.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", llm.ErrUpstreamFailed, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: response parse: %v", llm.ErrUpstreamFailed, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s (%s)", llm.ErrUpstreamFailed, parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: response missing choices", llm.ErrUpstreamFailed)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: response empty content", llm.ErrUpstreamFailed)
	}
	logUsage(c.model, parsed.Usage)
	return content, nil
}

// Stream returns incremental text deltas for a conversation. Pre-flight
// failures (connect, non-2xx status) are returned synchronously; after
// that the channel carries deltas until the upstream finishes or ctx is
// canceled.
func (c *Client) Stream(ctx context.Context, messages []llm.Message) (<-chan string, error) {
	resp, err := c.post(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	deltas := make(chan string, 16)
	go func() {
		defer close(deltas)
		defer resp.Body.Close()

		dec := newStreamDecoder(resp.Body)
		for {
			delta, err := dec.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					telemetry.Error("gateway.stream_failed", map[string]any{
						"error": err.Error(),
					})
				}
				return
			}
			if delta == "" {
				continue
			}
			select {
			case deltas <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()
	return deltas, nil
}

func (c *Client) post(ctx context.Context, messages []llm.Message, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   stream,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("%w: request timeout: %v", llm.ErrUpstreamFailed, err)
		}
		return nil, fmt.Errorf("%w: %v", llm.ErrUpstreamFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, llm.ErrUpstreamRateLimited
		case http.StatusPaymentRequired:
			return nil, llm.ErrUpstreamUnavailable
		default:
			return nil, fmt.Errorf("%w: status %d: %s", llm.ErrUpstreamFailed, resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}
	return resp, nil
}

func logUsage(model string, usage *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) {
	fields := map[string]any{"model": model}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("gateway.response", fields)
}

var _ llm.Client = (*Client)(nil)
