package permissions

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/charlesng35/clubhouse/pkg/logger"
)

// SeedReport summarises a seeding run.
type SeedReport struct {
	Rows        int `json:"rows"`
	Permissions int `json:"permissions"`
}

// Seed validates matrix and upserts one allowed template row per implied
// (role, permission) pair. Re-running with an unchanged matrix is a no-op.
// The first failed upsert aborts the run; rows written before it stay, and a
// retry is safe since every upsert is idempotent.
func Seed(ctx context.Context, w TemplateWriter, matrix Matrix) (SeedReport, error) {
	if w == nil {
		return SeedReport{}, errors.New("permission: template writer is required")
	}
	if err := matrix.Validate(); err != nil {
		return SeedReport{}, err
	}
	ctx = ensureContext(ctx)

	report := SeedReport{Permissions: len(matrix)}
	for _, entry := range matrix.Expand() {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("permission: seed interrupted: %w", err)
		}
		if err := w.UpsertTemplate(ctx, entry); err != nil {
			return report, fmt.Errorf("permission: seed %s/%s: %w", entry.Role, entry.Permission, err)
		}
		report.Rows++
	}

	logger.WithModule("permissions").Info("permission template seeded",
		zap.Int("rows", report.Rows),
		zap.Int("permissions", report.Permissions),
	)
	return report, nil
}
