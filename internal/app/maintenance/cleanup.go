package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/clubhouse/internal/models"
	"github.com/charlesng35/clubhouse/internal/permissions"
	"github.com/charlesng35/clubhouse/internal/services"
	"github.com/charlesng35/clubhouse/pkg/logger"
)

const (
	defaultAuditRetentionDays = 180
	defaultAuditSpec          = "@daily"
	defaultOverrideSpec       = "@hourly"
)

// AuditPruner removes audit rows past the retention window.
type AuditPruner interface {
	CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

var _ AuditPruner = (*services.AuditService)(nil)

// Cleaner runs housekeeping for the permission tables: it enforces audit
// retention and prunes override rows the resolver can no longer use.
type Cleaner struct {
	db        *gorm.DB
	audit     AuditPruner
	cron      *cron.Cron
	log       *zap.Logger
	retention int

	auditSchedule    string
	overrideSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithOverrideSchedule overrides the cron specification for override pruning.
func WithOverrideSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.overrideSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil db disables override pruning and a
// nil audit disables retention.
func NewCleaner(db *gorm.DB, audit AuditPruner, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:               db,
		audit:            audit,
		retention:        defaultAuditRetentionDays,
		auditSchedule:    defaultAuditSpec,
		overrideSchedule: defaultOverrideSpec,
		log:              logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

func (c *Cleaner) enabled() bool {
	return c.db != nil || c.audit != nil
}

// Start registers the jobs and launches the scheduler.
func (c *Cleaner) Start() error {
	if !c.enabled() {
		return nil
	}

	if c.audit != nil {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			removed, err := c.audit.CleanupOlderThan(context.Background(), c.retention)
			if err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
				return
			}
			c.log.Debug("audit cleanup finished", zap.Int64("removed", removed))
		}); err != nil {
			return fmt.Errorf("maintenance: schedule audit cleanup: %w", err)
		}
	}

	if c.db != nil {
		if _, err := c.cron.AddFunc(c.overrideSchedule, func() {
			stats, err := PruneOverrides(context.Background(), c.db)
			if err != nil {
				c.log.Warn("override cleanup failed", zap.Error(err))
				return
			}
			if stats.Total() > 0 {
				c.log.Info("pruned permission overrides",
					zap.Int64("orphaned", stats.Orphaned),
					zap.Int64("uncatalogued", stats.Uncatalogued),
				)
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule override cleanup: %w", err)
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every enabled job sequentially.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if c.audit != nil {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.db != nil {
		if _, err := PruneOverrides(ctx, c.db); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// OverrideCleanupStats counts removed override rows per reason.
type OverrideCleanupStats struct {
	Orphaned     int64
	Uncatalogued int64
}

// Total returns the number of rows removed.
func (s OverrideCleanupStats) Total() int64 {
	return s.Orphaned + s.Uncatalogued
}

// PruneOverrides deletes override rows whose membership no longer exists and
// member-specific rows naming a permission outside the catalogue. Rows with a
// role source belong to role assignment workflows and are left alone unless
// orphaned.
func PruneOverrides(ctx context.Context, db *gorm.DB) (OverrideCleanupStats, error) {
	if db == nil {
		return OverrideCleanupStats{}, errors.New("prune overrides: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := OverrideCleanupStats{}

	memberships := db.Model(&models.Membership{}).Select("id")
	if result := db.WithContext(ctx).
		Where("membership_id NOT IN (?)", memberships).
		Delete(&models.MemberPermission{}); result.Error != nil {
		return stats, fmt.Errorf("prune overrides: orphaned rows: %w", result.Error)
	} else {
		stats.Orphaned = result.RowsAffected
	}

	defs := permissions.All()
	known := make([]string, 0, len(defs))
	for _, def := range defs {
		known = append(known, def.ID.String())
	}
	if result := db.WithContext(ctx).
		Where("permission NOT IN ? AND role_source IS NULL", known).
		Delete(&models.MemberPermission{}); result.Error != nil {
		return stats, fmt.Errorf("prune overrides: uncatalogued rows: %w", result.Error)
	} else {
		stats.Uncatalogued = result.RowsAffected
	}

	return stats, nil
}
