package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minerpro-backend/internal/quota"
	"minerpro-backend/internal/shared/server/middleware"
	"minerpro-backend/internal/shared/server/respond"
	"minerpro-backend/internal/usage"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup, tierFor usage.TierLookup) {
	rg.GET("/me", func(c *gin.Context) {
		userID := middleware.UserIDFromContext(c)
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		response := gin.H{
			"userId": userID,
			"tier":   quota.ParseTier(tierFor(c.Request.Context(), userID)),
		}
		if email := middleware.UserEmailFromContext(c); email != "" {
			response["email"] = email
		}
		if isGuest, ok := c.Get("isGuest"); ok {
			response["isGuest"] = isGuest
		}

		respond.JSON(c, http.StatusOK, response)
	})
}
