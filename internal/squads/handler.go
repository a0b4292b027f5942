package squads

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"minerpro-backend/internal/featureflags"
	"minerpro-backend/internal/shared/server/middleware"
	"minerpro-backend/internal/shared/server/respond"
)

// FlagName gates the whole squad surface for percentage rollout.
const FlagName = "squads"

// Handler exposes squad collaboration endpoints.
type Handler struct {
	Svc   *Service
	Flags *featureflags.Checker
}

func NewHandler(svc *Service, flags *featureflags.Checker) *Handler {
	return &Handler{Svc: svc, Flags: flags}
}

// RegisterRoutes attaches squad routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/squads", h.requireFlag, h.list)
	rg.POST("/squads/:id/join", h.requireFlag, h.join)
	rg.POST("/squads/:id/leave", h.requireFlag, h.leave)
	rg.POST("/squads/:id/messages", h.requireFlag, h.postMessage)
}

func (h *Handler) requireFlag(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if h.Flags != nil && !h.Flags.Enabled(c.Request.Context(), FlagName, userID) {
		respond.Error(c, http.StatusNotFound, "not_found", "squads are not available", nil)
		return
	}
	c.Next()
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list squads", nil)
		return
	}
	if out == nil {
		out = []Squad{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"squads": out})
}

func (h *Handler) join(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	squad, err := h.Svc.Join(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "squad not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to join squad", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"success": true, "squad": squad})
}

func (h *Handler) leave(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if err := h.Svc.Leave(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, ErrNotMember) {
			respond.Error(c, http.StatusNotFound, "not_found", "not a squad member", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to leave squad", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"success": true})
}

type messageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) postMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid json body", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	message, err := h.Svc.PostMessage(c.Request.Context(), userID, c.Param("id"), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			respond.Error(c, http.StatusBadRequest, "validation_error", "message is required", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "squad not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to post message", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"success": true, "message": message})
}
