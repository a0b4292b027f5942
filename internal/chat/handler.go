package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"minerpro-backend/internal/guardrail"
	"minerpro-backend/internal/llm"
	"minerpro-backend/internal/shared/metrics"
	"minerpro-backend/internal/shared/server/respond"
	"minerpro-backend/internal/shared/telemetry"
	"minerpro-backend/internal/usage"
)

const systemPrompt = "You are the RobuxMinerPro AI mentor. You teach players official, " +
	"legitimate ways to earn Robux: buying Robux, Roblox Premium, creating and selling " +
	"games or items, and gift cards. Use grade-8 language and short sentences. " +
	"NEVER suggest free Robux, generators, mining, hacks, or off-platform trades. " +
	"If asked about those, explain they are scams and point to help.roblox.com."

// Handler relays chat conversations to the model gateway over SSE.
type Handler struct {
	LLM   llm.Client
	Usage *usage.Handler
}

func NewHandler(client llm.Client, usageHandler *usage.Handler) *Handler {
	return &Handler{LLM: client, Usage: usageHandler}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.stream)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

func (h *Handler) stream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	if len(req.Messages) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "messages is required", nil)
		return
	}

	// The guardrail inspects the latest user turn; earlier turns were already
	// screened when they arrived.
	if latest := latestUserContent(req.Messages); latest != "" {
		if _, hit := guardrail.Match(latest); hit {
			metrics.IncGuardrailBlocked()
			respond.JSON(c, http.StatusOK, gin.H{
				"reply":   guardrail.SafetyMessage,
				"blocked": true,
			})
			return
		}
	}

	if !h.Usage.Admit(c, "chat") {
		return
	}

	messages := make([]llm.Message, 0, len(req.Messages)+1)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	deltas, err := h.LLM.Stream(c.Request.Context(), messages)
	if err != nil {
		metrics.IncRelayFailed()
		switch {
		case errors.Is(err, llm.ErrUpstreamRateLimited):
			respond.Error(c, http.StatusTooManyRequests, "upstream_rate_limited", "Too many requests. Please try again in a moment.", nil)
		case errors.Is(err, llm.ErrUpstreamUnavailable):
			respond.Error(c, http.StatusServiceUnavailable, "upstream_unavailable", "Service temporarily unavailable.", nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "upstream_error", "failed to start chat stream", nil)
		}
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for delta := range deltas {
		frame, err := json.Marshal(gin.H{"delta": delta})
		if err != nil {
			continue
		}
		if _, err := c.Writer.WriteString("data: " + string(frame) + "\n\n"); err != nil {
			telemetry.Error("chat.client_write_failed", map[string]any{
				"request_id": c.GetString("requestId"),
				"error":      err.Error(),
			})
			metrics.IncRelayFailed()
			return
		}
		c.Writer.Flush()
		select {
		case <-ctx.Done():
			// Client disconnected; the gateway stream observes the same
			// context and shuts itself down.
			metrics.IncRelayFailed()
			return
		default:
		}
	}

	c.Writer.WriteString("data: [DONE]\n\n")
	c.Writer.Flush()
	metrics.IncRelayCompleted()
	metrics.ObserveRelayDurationMs(float64(time.Since(start).Milliseconds()))
}

func latestUserContent(messages []chatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}
