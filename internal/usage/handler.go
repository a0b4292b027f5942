package usage

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"minerpro-backend/internal/quota"
	"minerpro-backend/internal/shared/server/middleware"
	"minerpro-backend/internal/shared/server/respond"
)

// TierLookup resolves a user's current raw tier. Lookup failures must be
// swallowed by the implementation: an unknown tier degrades to free, it
// never blocks service.
type TierLookup func(ctx context.Context, userID string) string

// Handler exposes rate-limit endpoints.
type Handler struct {
	Svc     *Service
	TierFor TierLookup
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, tierFor TierLookup) *Handler {
	if tierFor == nil {
		tierFor = func(context.Context, string) string { return "" }
	}
	return &Handler{Svc: svc, TierFor: tierFor}
}

// RegisterRoutes attaches rate-limit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/rate-limit/check", h.check)
	rg.GET("/usage", h.getUsage)
}

// RegisterDevRoutes attaches dev-only routes.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/usage/reset", h.resetUsage)
}

type checkRequest struct {
	Action string `json:"action"`
}

func (h *Handler) check(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}
	c.Set("action", req.Action)

	tier := h.TierFor(c.Request.Context(), userID)
	decision, err := h.Svc.CheckAndAdmit(c.Request.Context(), userID, tier, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrInvalidAction):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid action", nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check rate limit", nil)
		}
		return
	}
	c.Set("tier", string(decision.Tier))

	if !decision.Allowed {
		respond.JSON(c, http.StatusTooManyRequests, gin.H{
			"allowed": false,
			"tier":    decision.Tier,
			"limit":   decision.Limit,
			"current": decision.Current,
			"resetAt": decision.ResetAt,
			"message": decision.Message,
		})
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"allowed":   true,
		"tier":      decision.Tier,
		"limit":     decision.Limit,
		"current":   decision.Current,
		"remaining": decision.Remaining,
	})
}

// Admit enforces the quota for an action on behalf of another handler. It
// writes the deny or error response itself; callers proceed only when the
// return value is true.
func (h *Handler) Admit(c *gin.Context, action string) bool {
	userID := middleware.UserIDFromContext(c)
	c.Set("action", action)

	tier := h.TierFor(c.Request.Context(), userID)
	decision, err := h.Svc.CheckAndAdmit(c.Request.Context(), userID, tier, action)
	if err != nil {
		switch {
		case errors.Is(err, quota.ErrInvalidAction):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid action", nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check rate limit", nil)
		}
		return false
	}
	c.Set("tier", string(decision.Tier))

	if !decision.Allowed {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"allowed": false,
			"tier":    decision.Tier,
			"limit":   decision.Limit,
			"current": decision.Current,
			"resetAt": decision.ResetAt,
			"message": decision.Message,
		})
		return false
	}
	return true
}

func (h *Handler) getUsage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	tier := h.TierFor(c.Request.Context(), userID)

	snapshot, err := h.Svc.Snapshot(c.Request.Context(), userID, tier)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch usage", nil)
		}
		return
	}

	actions := gin.H{}
	resolvedTier := quota.ParseTier(tier)
	for action, d := range snapshot {
		actions[string(action)] = gin.H{
			"limit":     d.Limit,
			"used":      d.Current,
			"remaining": d.Remaining,
		}
	}
	c.Set("tier", string(resolvedTier))
	respond.JSON(c, http.StatusOK, gin.H{
		"tier":    resolvedTier,
		"actions": actions,
	})
}

func (h *Handler) resetUsage(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if err := h.Svc.Reset(c.Request.Context(), userID); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to reset usage", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"ok": true})
}
