package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/clubhouse/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics observes request latency per route template. Unmatched paths share
// a single series to bound label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		metrics.APILatency.WithLabelValues(
			c.Request.Method,
			routeLabel(route),
			strconv.Itoa(c.Writer.Status()),
			routeScope(route),
		).Observe(time.Since(start).Seconds())
	}
}

func routeLabel(route string) string {
	if route == "" {
		return unmatchedRoute
	}
	return route
}

func routeScope(route string) string {
	switch {
	case route == "":
		return unmatchedRoute
	case strings.Contains(route, "/clubs/:clubID"):
		return "club"
	default:
		return "global"
	}
}
