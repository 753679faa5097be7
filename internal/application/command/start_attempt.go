// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/roster"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// START ATTEMPT COMMAND
// Registers the start of an assignment attempt. Creates the progress
// record on the student's first touch of the assignment.
// ══════════════════════════════════════════════════════════════════════════════

// StartAttemptCommand contains the data to start an attempt.
type StartAttemptCommand struct {
	// StudentID is the ID of the student.
	StudentID string

	// AssignmentID is the ID of the assignment.
	AssignmentID string

	// Timestamp is when the attempt started (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c StartAttemptCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("start_attempt: student_id is required")
	}
	if c.AssignmentID == "" {
		return errors.New("start_attempt: assignment_id is required")
	}
	return nil
}

// StartAttemptResult contains the result of starting an attempt.
type StartAttemptResult struct {
	// AttemptNumber is the number of the started attempt.
	AttemptNumber int

	// Record is the updated progress record.
	Record *progress.Record
}

// StartAttemptHandler handles the StartAttemptCommand.
type StartAttemptHandler struct {
	progressRepo progress.Repository
	rosterRepo   roster.Repository
	publisher    shared.EventPublisher
}

// NewStartAttemptHandler creates a new StartAttemptHandler.
func NewStartAttemptHandler(
	progressRepo progress.Repository,
	rosterRepo roster.Repository,
	publisher shared.EventPublisher,
) *StartAttemptHandler {
	return &StartAttemptHandler{
		progressRepo: progressRepo,
		rosterRepo:   rosterRepo,
		publisher:    publisher,
	}
}

// Handle executes the start attempt command.
func (h *StartAttemptHandler) Handle(ctx context.Context, cmd StartAttemptCommand) (*StartAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("start_attempt: validation failed: %w", err)
	}

	// The referenced student and assignment must exist before any write.
	if _, err := h.rosterRepo.GetStudent(ctx, cmd.StudentID); err != nil {
		return nil, fmt.Errorf("start_attempt: %w", err)
	}
	if _, err := h.rosterRepo.GetAssignment(ctx, cmd.AssignmentID); err != nil {
		return nil, fmt.Errorf("start_attempt: %w", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rec, err := loadOrCreateProgress(ctx, h.progressRepo, cmd.StudentID, cmd.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("start_attempt: %w", err)
	}

	rec.StartAttempt(now)

	if err := h.progressRepo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("start_attempt: save progress: %w", err)
	}

	if h.publisher != nil {
		event := shared.NewAttemptStartedEvent(cmd.StudentID, cmd.AssignmentID, rec.CurrentAttempt)
		_ = h.publisher.Publish(event)
	}

	return &StartAttemptResult{
		AttemptNumber: rec.CurrentAttempt,
		Record:        rec,
	}, nil
}

// loadOrCreateProgress loads the progress record for a pair, creating an
// empty one when the pair has never been touched.
func loadOrCreateProgress(ctx context.Context, repo progress.Repository, studentID, assignmentID string) (*progress.Record, error) {
	rec, err := repo.Load(ctx, studentID, assignmentID)
	if err == nil {
		return rec, nil
	}
	if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return progress.NewRecord(studentID, assignmentID)
}
