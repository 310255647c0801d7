package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// requestContext returns the request's context, or Background for handlers
// invoked without a request.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}

// clubParam returns the trimmed :clubID path segment.
func clubParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("clubID"))
}
