package faq

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"minerpro-backend/internal/guardrail"
	"minerpro-backend/internal/llm"
	"minerpro-backend/internal/shared/metrics"
	"minerpro-backend/internal/shared/server/respond"
	"minerpro-backend/internal/usage"
)

// Handler exposes the FAQ endpoint.
type Handler struct {
	Svc   *Service
	Usage *usage.Handler
}

func NewHandler(svc *Service, usageHandler *usage.Handler) *Handler {
	return &Handler{Svc: svc, Usage: usageHandler}
}

// RegisterRoutes attaches FAQ routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/faq", h.answer)
}

type faqRequest struct {
	Question string `json:"question"`
}

func (h *Handler) answer(c *gin.Context) {
	var req faqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
		return
	}

	// Blocked questions are answered locally and never consume quota.
	if _, hit := guardrail.Match(req.Question); hit {
		metrics.IncGuardrailBlocked()
		respond.JSON(c, http.StatusOK, gin.H{
			"answer":  guardrail.SafetyMessage,
			"blocked": true,
		})
		return
	}

	if !h.Usage.Admit(c, "faq") {
		return
	}

	answer, blocked, err := h.Svc.Answer(c.Request.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrUpstreamRateLimited):
			respond.Error(c, http.StatusTooManyRequests, "upstream_rate_limited", "Too many requests. Please try again in a moment.", nil)
		case errors.Is(err, llm.ErrUpstreamUnavailable):
			respond.Error(c, http.StatusServiceUnavailable, "upstream_unavailable", "Service temporarily unavailable.", nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "upstream_error", "failed to answer question", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"answer":  answer,
		"blocked": blocked,
	})
}
