package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/clubhouse/pkg/logger"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}

// invalidateCache drops cached permission sets, logging failures. Cached
// entries expire on their own, so a failed invalidation is not fatal.
func invalidateCache(ctx context.Context, invalidator CacheInvalidator, membershipID string) {
	if invalidator == nil {
		return
	}
	if err := invalidator.Invalidate(ctx, membershipID); err != nil {
		logger.WithModule("permissions").Warn("failed to invalidate permission cache",
			zap.String("membership_id", membershipID),
			zap.Error(err),
		)
	}
}
