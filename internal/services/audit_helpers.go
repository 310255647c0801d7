package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/charlesng35/clubhouse/internal/auditctx"
	"github.com/charlesng35/clubhouse/pkg/logger"
)

// recordAudit logs the supplied entry while tolerating audit failures. Actor
// details missing from entry are filled from the request context.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if actor, ok := auditctx.FromContext(ctx); ok {
		if entry.ActorUserID == "" {
			entry.ActorUserID = actor.UserID
		}
		if entry.IPAddress == "" {
			entry.IPAddress = actor.IPAddress
		}
		if entry.UserAgent == "" {
			entry.UserAgent = actor.UserAgent
		}
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}
