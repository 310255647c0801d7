package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/app"
	"github.com/charlesng35/clubhouse/internal/cache"
	"github.com/charlesng35/clubhouse/internal/handlers"
	"github.com/charlesng35/clubhouse/internal/middleware"
	"github.com/charlesng35/clubhouse/internal/permissions"
	"github.com/charlesng35/clubhouse/internal/services"
)

// NewRouter builds the Gin engine, wires the permission core and registers
// routes. store may be nil, in which case resolved sets are not cached.
func NewRouter(db *gorm.DB, cfg *app.Config, store cache.Store) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	deps, err := buildDependencies(db, cfg, store)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	registerHealthRoutes(r, db, store)

	api := r.Group("/api")
	api.Use(middleware.Auth(middleware.HeaderAuthenticator{Header: cfg.Auth.UserHeader}))

	registerPermissionRoutes(api, deps)
	registerAuditRoutes(api, deps)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

type dependencies struct {
	checker           *permissions.Checker
	memberships       *services.MembershipService
	permissionHandler *handlers.PermissionHandler
	auditHandler      *handlers.AuditHandler
}

func buildDependencies(db *gorm.DB, cfg *app.Config, store cache.Store) (*dependencies, error) {
	gormStore, err := permissions.NewGormStore(db)
	if err != nil {
		return nil, err
	}
	base, err := permissions.NewResolver(gormStore, gormStore)
	if err != nil {
		return nil, err
	}

	var (
		resolver    permissions.SetResolver = base
		invalidator services.CacheInvalidator
	)
	if store != nil {
		cached, err := permissions.NewCachedResolver(base, store, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		resolver, invalidator = cached, cached
	}

	checker, err := permissions.NewChecker(resolver)
	if err != nil {
		return nil, err
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	membershipSvc, err := services.NewMembershipService(db, auditSvc, invalidator)
	if err != nil {
		return nil, err
	}
	overrideSvc, err := services.NewOverrideService(db, auditSvc, invalidator)
	if err != nil {
		return nil, err
	}
	matrixSvc, err := services.NewMatrixService(db)
	if err != nil {
		return nil, err
	}

	permHandler, err := handlers.NewPermissionHandler(checker, membershipSvc, overrideSvc, matrixSvc)
	if err != nil {
		return nil, err
	}
	auditHandler, err := handlers.NewAuditHandler(auditSvc)
	if err != nil {
		return nil, err
	}

	return &dependencies{
		checker:           checker,
		memberships:       membershipSvc,
		permissionHandler: permHandler,
		auditHandler:      auditHandler,
	}, nil
}
