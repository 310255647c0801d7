package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/clubhouse/internal/middleware"
	"github.com/charlesng35/clubhouse/internal/permissions"
)

func registerPermissionRoutes(api *gin.RouterGroup, deps *dependencies) {
	handler := deps.permissionHandler
	guard := func(perms ...permissions.Permission) gin.HandlerFunc {
		return middleware.RequireClubPermission(deps.checker, deps.memberships, perms...)
	}

	perms := api.Group("/permissions")
	{
		perms.GET("/registry", handler.Registry)
		perms.GET("/matrix", handler.Matrix)
	}

	club := api.Group("/clubs/:clubID")
	{
		club.GET("/permissions/my", guard(), handler.MyPermissions)
		club.POST("/memberships", handler.Join)

		members := club.Group("/memberships/:membershipID")
		members.GET("/permissions", guard(permissions.MemberView), handler.MemberPermissions)
		members.PUT("/role", guard(permissions.MemberManage), handler.ChangeRole)
		members.GET("/overrides", guard(permissions.PermissionView), handler.ListOverrides)
		members.PUT("/overrides/:permission", guard(permissions.PermissionManage), handler.SetOverride)
		members.DELETE("/overrides/:permission", guard(permissions.PermissionManage), handler.ClearOverride)
	}
}
