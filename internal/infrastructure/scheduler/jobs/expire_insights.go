// Package jobs contains implementations of scheduled maintenance jobs
// for the insight engine.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/classpulse/insight-engine/internal/application/lifecycle"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE INSIGHTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpireInsightsJob sweeps pending insights whose review window has
// elapsed and marks them expired. Expiry is the lifecycle's safety
// valve: an unreviewed insight eventually leaves the queue instead of
// accumulating forever.
type ExpireInsightsJob struct {
	manager *lifecycle.Manager
	logger  *slog.Logger
}

// NewExpireInsightsJob creates a new ExpireInsightsJob.
func NewExpireInsightsJob(manager *lifecycle.Manager, logger *slog.Logger) *ExpireInsightsJob {
	return &ExpireInsightsJob{
		manager: manager,
		logger:  logger.With("job", "expire_insights"),
	}
}

// Name returns the job name.
func (j *ExpireInsightsJob) Name() string {
	return "expire_insights"
}

// Description returns a human-readable description.
func (j *ExpireInsightsJob) Description() string {
	return "Expires pending insights whose review window has elapsed"
}

// Run executes the expiry sweep.
func (j *ExpireInsightsJob) Run(ctx context.Context) error {
	expired, err := j.manager.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	if expired > 0 {
		j.logger.Info("expired overdue insights", "count", expired)
	}
	return nil
}
