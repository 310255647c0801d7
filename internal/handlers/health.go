package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/database"
	"github.com/charlesng35/clubhouse/pkg/response"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a status payload useful for readiness checks. The database
// is always checked; cache is optional.
func Health(db *gorm.DB, cache Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(requestContext(c), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		status := http.StatusOK

		if err := database.Ping(ctx, db); err != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
		if cache != nil {
			checks["cache"] = "ok"
			if err := cache.Ping(ctx); err != nil {
				checks["cache"] = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, response.Response{
			Success: status == http.StatusOK,
			Data:    gin.H{"status": state, "checks": checks},
		})
	}
}
