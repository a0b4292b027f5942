package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"minerpro-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		userID, _ := c.Get(userIDKey)
		isGuest, _ := c.Get("isGuest")

		fields := map[string]any{
			"request_id":  reqID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     userID,
			"is_guest":    isGuest,
		}
		if action, ok := c.Get("action"); ok {
			fields["action"] = action
		}
		if tier, ok := c.Get("tier"); ok {
			fields["tier"] = tier
		}
		telemetry.Info("request.complete", fields)
	}
}
