package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/cache"
	"github.com/charlesng35/clubhouse/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine, db *gorm.DB, store cache.Store) {
	var pinger handlers.Pinger
	if p, ok := store.(handlers.Pinger); ok {
		pinger = p
	}

	health := handlers.Health(db, pinger)
	r.GET("/health", health)
	r.GET("/api/health", health)
}
