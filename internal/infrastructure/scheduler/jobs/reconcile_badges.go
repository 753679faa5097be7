package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/badge"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE BADGES JOB
// ══════════════════════════════════════════════════════════════════════════════

// DefaultReconcileWindow is how many recent badges and actions the job
// inspects per run.
const DefaultReconcileWindow = 500

// ReconcileBadgesJob verifies that every recently issued badge is
// referenced by a teacher action note. A badge save followed by a failed
// action save leaves an orphan; the job detects and logs it so a teacher
// can repair the audit trail. Detection only, it never mutates records.
type ReconcileBadgesJob struct {
	badgeRepo  badge.Repository
	actionRepo action.Repository
	window     int
	logger     *slog.Logger
}

// NewReconcileBadgesJob creates a new ReconcileBadgesJob.
// A non-positive window falls back to DefaultReconcileWindow.
func NewReconcileBadgesJob(
	badgeRepo badge.Repository,
	actionRepo action.Repository,
	window int,
	logger *slog.Logger,
) *ReconcileBadgesJob {
	if window <= 0 {
		window = DefaultReconcileWindow
	}
	return &ReconcileBadgesJob{
		badgeRepo:  badgeRepo,
		actionRepo: actionRepo,
		window:     window,
		logger:     logger.With("job", "reconcile_badges"),
	}
}

// Name returns the job name.
func (j *ReconcileBadgesJob) Name() string {
	return "reconcile_badges"
}

// Description returns a human-readable description.
func (j *ReconcileBadgesJob) Description() string {
	return "Detects badges with no matching teacher action record"
}

// Run executes the reconciliation pass.
func (j *ReconcileBadgesJob) Run(ctx context.Context) error {
	badges, err := j.badgeRepo.GetRecent(ctx, j.window)
	if err != nil {
		return fmt.Errorf("load recent badges: %w", err)
	}
	if len(badges) == 0 {
		return nil
	}

	actions, err := j.actionRepo.GetRecent(ctx, j.window)
	if err != nil {
		return fmt.Errorf("load recent actions: %w", err)
	}

	referenced := make(map[string]bool, len(badges))
	for _, act := range actions {
		for _, b := range badges {
			if referenced[b.ID] {
				continue
			}
			if strings.Contains(act.Note, badgeReference(b.ID)) {
				referenced[b.ID] = true
			}
		}
	}

	orphans := 0
	for _, b := range badges {
		if referenced[b.ID] {
			continue
		}
		orphans++
		j.logger.Warn("badge has no matching teacher action",
			"badge_id", b.ID,
			"student_id", b.StudentID,
			"badge_type", b.Type,
			"issued_at", b.IssuedAt,
		)
	}

	if orphans > 0 {
		j.logger.Info("badge reconciliation finished", "checked", len(badges), "orphans", orphans)
	}
	return nil
}

// badgeReference is the note marker the action recorder writes when a
// badge is awarded.
func badgeReference(badgeID string) string {
	return "Badge awarded: " + badgeID
}
