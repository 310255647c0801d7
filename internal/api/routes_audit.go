package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/clubhouse/internal/middleware"
	"github.com/charlesng35/clubhouse/internal/permissions"
)

func registerAuditRoutes(api *gin.RouterGroup, deps *dependencies) {
	api.GET("/clubs/:clubID/audit",
		middleware.RequireAnyClubPermission(deps.checker, deps.memberships, permissions.PermissionView, permissions.MemberManage),
		deps.auditHandler.List,
	)
}
