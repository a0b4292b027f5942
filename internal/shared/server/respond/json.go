// Package respond holds the API's response conventions: success bodies are
// plain JSON objects, errors always use the {"error":{code,message}}
// envelope from errors.go. Handlers never call c.JSON directly for errors.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}
