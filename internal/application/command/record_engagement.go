package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ENGAGEMENT COMMANDS
// Hint usage and coach sessions arrive independently of attempts; either
// may create the progress record before the first attempt starts.
// ══════════════════════════════════════════════════════════════════════════════

// RecordHintUsageCommand contains the data to record hint usage.
type RecordHintUsageCommand struct {
	// StudentID is the ID of the student.
	StudentID string

	// AssignmentID is the ID of the assignment.
	AssignmentID string

	// Count is the number of hints used (must be positive).
	Count int
}

// Validate validates the command.
func (c RecordHintUsageCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("record_hint_usage: student_id is required")
	}
	if c.AssignmentID == "" {
		return errors.New("record_hint_usage: assignment_id is required")
	}
	if c.Count <= 0 {
		return errors.New("record_hint_usage: count must be positive")
	}
	return nil
}

// RecordHintUsageHandler handles the RecordHintUsageCommand.
type RecordHintUsageHandler struct {
	progressRepo progress.Repository
	publisher    shared.EventPublisher
}

// NewRecordHintUsageHandler creates a new RecordHintUsageHandler.
func NewRecordHintUsageHandler(progressRepo progress.Repository, publisher shared.EventPublisher) *RecordHintUsageHandler {
	return &RecordHintUsageHandler{progressRepo: progressRepo, publisher: publisher}
}

// Handle executes the record hint usage command.
func (h *RecordHintUsageHandler) Handle(ctx context.Context, cmd RecordHintUsageCommand) (*progress.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_hint_usage: validation failed: %w", err)
	}

	rec, err := loadOrCreateProgress(ctx, h.progressRepo, cmd.StudentID, cmd.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("record_hint_usage: %w", err)
	}

	rec.RecordHintUsage(cmd.Count)

	if err := h.progressRepo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("record_hint_usage: save progress: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewHintUsedEvent(
			cmd.StudentID, cmd.AssignmentID, cmd.Count, rec.HintsUsed))
	}

	return rec, nil
}

// RecordCoachSessionCommand contains the data to record a coach session.
type RecordCoachSessionCommand struct {
	// StudentID is the ID of the student.
	StudentID string

	// AssignmentID is the ID of the assignment.
	AssignmentID string
}

// Validate validates the command.
func (c RecordCoachSessionCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("record_coach_session: student_id is required")
	}
	if c.AssignmentID == "" {
		return errors.New("record_coach_session: assignment_id is required")
	}
	return nil
}

// RecordCoachSessionHandler handles the RecordCoachSessionCommand.
type RecordCoachSessionHandler struct {
	progressRepo progress.Repository
	publisher    shared.EventPublisher
}

// NewRecordCoachSessionHandler creates a new RecordCoachSessionHandler.
func NewRecordCoachSessionHandler(progressRepo progress.Repository, publisher shared.EventPublisher) *RecordCoachSessionHandler {
	return &RecordCoachSessionHandler{progressRepo: progressRepo, publisher: publisher}
}

// Handle executes the record coach session command.
func (h *RecordCoachSessionHandler) Handle(ctx context.Context, cmd RecordCoachSessionCommand) (*progress.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_coach_session: validation failed: %w", err)
	}

	rec, err := loadOrCreateProgress(ctx, h.progressRepo, cmd.StudentID, cmd.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("record_coach_session: %w", err)
	}

	rec.RecordCoachSession()

	if err := h.progressRepo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("record_coach_session: save progress: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewCoachSessionRecordedEvent(
			cmd.StudentID, cmd.AssignmentID, rec.CoachSessionCount))
	}

	return rec, nil
}
