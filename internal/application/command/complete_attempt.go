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
// COMPLETE ATTEMPT COMMAND
// Records a finished assignment attempt and publishes the performance
// event the insight generator listens to. The event carries the full
// measurement snapshot, including the highest score BEFORE this attempt,
// so rule evaluation never re-reads the progress record mid-flight.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteAttemptCommand contains the data to complete an attempt.
type CompleteAttemptCommand struct {
	// StudentID is the ID of the student.
	StudentID string

	// AssignmentID is the ID of the assignment.
	AssignmentID string

	// Score is the attempt score (0-100, clamped).
	Score float64

	// TimeSpentSeconds is the time spent on the attempt (optional).
	TimeSpentSeconds int

	// Timestamp is when the attempt completed (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c CompleteAttemptCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("complete_attempt: student_id is required")
	}
	if c.AssignmentID == "" {
		return errors.New("complete_attempt: assignment_id is required")
	}
	return nil
}

// CompleteAttemptResult contains the result of completing an attempt.
type CompleteAttemptResult struct {
	// Record is the updated progress record.
	Record *progress.Record

	// PreviousHighestScore is the highest score before this attempt
	// (nil when this was the first completed attempt).
	PreviousHighestScore *float64

	// NewPersonalBest indicates this attempt set a new highest score.
	NewPersonalBest bool
}

// CompleteAttemptHandler handles the CompleteAttemptCommand.
type CompleteAttemptHandler struct {
	progressRepo progress.Repository
	rosterRepo   roster.Repository
	publisher    shared.EventPublisher
}

// NewCompleteAttemptHandler creates a new CompleteAttemptHandler.
func NewCompleteAttemptHandler(
	progressRepo progress.Repository,
	rosterRepo roster.Repository,
	publisher shared.EventPublisher,
) *CompleteAttemptHandler {
	return &CompleteAttemptHandler{
		progressRepo: progressRepo,
		rosterRepo:   rosterRepo,
		publisher:    publisher,
	}
}

// Handle executes the complete attempt command.
func (h *CompleteAttemptHandler) Handle(ctx context.Context, cmd CompleteAttemptCommand) (*CompleteAttemptResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_attempt: validation failed: %w", err)
	}

	stud, err := h.rosterRepo.GetStudent(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("complete_attempt: %w", err)
	}
	assignment, err := h.rosterRepo.GetAssignment(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("complete_attempt: %w", err)
	}

	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rec, err := loadOrCreateProgress(ctx, h.progressRepo, cmd.StudentID, cmd.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("complete_attempt: %w", err)
	}

	previousHighest := rec.CompleteAttempt(cmd.Score, cmd.TimeSpentSeconds, now)

	if err := h.progressRepo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("complete_attempt: save progress: %w", err)
	}

	if h.publisher != nil {
		event := shared.AttemptCompletedEvent{
			BaseEvent:            shared.NewBaseEvent(shared.EventAttemptCompleted, cmd.StudentID),
			StudentID:            cmd.StudentID,
			AssignmentID:         cmd.AssignmentID,
			ClassID:              stud.ClassID,
			Subject:              assignment.Subject,
			QuestionCount:        assignment.QuestionCount,
			Score:                shared.Score(cmd.Score).Clamp().Float(),
			TimeSpentSeconds:     cmd.TimeSpentSeconds,
			Attempts:             rec.Attempts,
			HintsUsed:            rec.HintsUsed,
			CoachSessionsUsed:    rec.CoachSessionCount,
			PreviousHighestScore: previousHighest,
		}
		// Handlers never fail the publishing command; the bus logs errors.
		_ = h.publisher.Publish(event)
	}

	newBest := previousHighest == nil ||
		(rec.HighestScore != nil && *rec.HighestScore > *previousHighest)

	return &CompleteAttemptResult{
		Record:               rec,
		PreviousHighestScore: previousHighest,
		NewPersonalBest:      newBest,
	}, nil
}
