package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/badge"
	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/roster"
	"github.com/classpulse/insight-engine/internal/domain/shared"
	"github.com/classpulse/insight-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD TEACHER ACTION COMMAND
// The action recorder: persists the audit record of a teacher's response.
// When no insight is referenced, it resolves an anchor through the dedup
// index or synthesizes one, so every action stays attached to the audit
// trail. Reassignment additionally mutates the progress record and drives
// the insight lifecycle.
//
// Side-effect order: validate references -> resolve/synthesize anchor ->
// reassign progress mutation -> badge save -> action save -> note append ->
// lifecycle drive -> events. A failure before the action write leaves no
// orphan action; a crash between badge and action writes leaves an orphan
// badge that the reconciliation job detects.
// ══════════════════════════════════════════════════════════════════════════════

// SynthesizedAnchorSummary is the summary of an insight synthesized solely
// to anchor a teacher action.
const SynthesizedAnchorSummary = "Teacher action recorded without a triggering insight"

// RecordTeacherActionCommand contains the data to record a teacher action.
type RecordTeacherActionCommand struct {
	// TeacherID is the ID of the acting teacher.
	TeacherID string

	// ActionType is the raw action type; unknown values coerce to "other".
	ActionType string

	// InsightID is the insight the action responds to (optional; resolved
	// or synthesized when absent).
	InsightID string

	// StudentID is the target student (required when InsightID is absent).
	StudentID string

	// AssignmentID is the target assignment (optional).
	AssignmentID string

	// ClassID is the class context for anchor resolution (optional).
	ClassID string

	// Note is the teacher's note (required for add_note).
	Note string

	// MessageToStudent is a message to deliver to the student (optional).
	MessageToStudent string

	// BadgeType is the raw badge type for award_badge; unknown values
	// coerce to "progress_star".
	BadgeType string

	// BadgeMessage is the badge's accompanying message (optional).
	BadgeMessage string

	// Timestamp is when the action occurred (defaults to now if zero).
	Timestamp time.Time
}

// Validate validates the command.
func (c RecordTeacherActionCommand) Validate() error {
	if c.TeacherID == "" {
		return errors.New("record_teacher_action: teacher_id is required")
	}
	if c.InsightID == "" && c.StudentID == "" {
		return errors.New("record_teacher_action: student_id is required when insight_id is absent")
	}
	if action.CoerceType(c.ActionType) == action.TypeAddNote && c.Note == "" {
		return errors.New("record_teacher_action: note is required for add_note")
	}
	return nil
}

// RecordTeacherActionResult contains the result of recording an action.
type RecordTeacherActionResult struct {
	// Action is the persisted audit record.
	Action *action.TeacherAction

	// Insight is the insight the action is anchored to.
	Insight *insight.Insight

	// SynthesizedInsight indicates the anchor was created by the recorder.
	SynthesizedInsight bool

	// Badge is the awarded badge (award_badge only).
	Badge *badge.Badge

	// Record is the mutated progress record (reassign only).
	Record *progress.Record
}

// RecordTeacherActionHandler handles the RecordTeacherActionCommand.
type RecordTeacherActionHandler struct {
	insightRepo  insight.Repository
	actionRepo   action.Repository
	progressRepo progress.Repository
	rosterRepo   roster.Repository
	badgeRepo    badge.Repository
	dedup        *insight.DedupIndex
	idGen        shared.IDGenerator
	publisher    shared.EventPublisher
	logger       *slog.Logger
}

// NewRecordTeacherActionHandler creates a new RecordTeacherActionHandler.
func NewRecordTeacherActionHandler(
	insightRepo insight.Repository,
	actionRepo action.Repository,
	progressRepo progress.Repository,
	rosterRepo roster.Repository,
	badgeRepo badge.Repository,
	dedup *insight.DedupIndex,
	idGen shared.IDGenerator,
	publisher shared.EventPublisher,
	logger *slog.Logger,
) *RecordTeacherActionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordTeacherActionHandler{
		insightRepo:  insightRepo,
		actionRepo:   actionRepo,
		progressRepo: progressRepo,
		rosterRepo:   rosterRepo,
		badgeRepo:    badgeRepo,
		dedup:        dedup,
		idGen:        idGen,
		publisher:    publisher,
		logger:       logger,
	}
}

// Handle executes the record teacher action command.
func (h *RecordTeacherActionHandler) Handle(ctx context.Context, cmd RecordTeacherActionCommand) (*RecordTeacherActionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_teacher_action: validation failed: %w", err)
	}

	actionType := action.CoerceType(cmd.ActionType)
	now := cmd.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// Resolve or synthesize the anchor insight before anything is written.
	anchor, synthesized, err := h.resolveAnchor(ctx, cmd)
	if err != nil {
		return nil, err
	}

	studentID := anchor.StudentID
	assignmentID := anchor.AssignmentID
	if assignmentID == "" {
		assignmentID = cmd.AssignmentID
	}

	// Referenced student must exist; absence is a hard failure, not a
	// synthesized default.
	stud, err := h.rosterRepo.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("record_teacher_action: %w", err)
	}

	result := &RecordTeacherActionResult{
		Insight:            anchor,
		SynthesizedInsight: synthesized,
	}

	// Reassignment mutates progress before the action write, so a failed
	// mutation leaves no orphan action.
	if actionType == action.TypeReassign {
		if err := h.reassignProgress(ctx, cmd, studentID, assignmentID, result); err != nil {
			return nil, err
		}
	}

	// Badge save precedes the action write: a crash in between leaves an
	// orphan badge, never an action claiming a badge that does not exist.
	var badgeNote string
	if actionType == action.TypeAwardBadge {
		awarded, err := h.awardBadge(ctx, cmd, studentID, assignmentID)
		if err != nil {
			return nil, err
		}
		result.Badge = awarded
		badgeNote = fmt.Sprintf("Badge awarded: %s", awarded.ID)
	}

	// A synthesized anchor must be durable before the action referencing it.
	if synthesized {
		if err := h.insightRepo.Save(ctx, anchor); err != nil {
			return nil, fmt.Errorf("record_teacher_action: save synthesized insight: %w", err)
		}
	}

	act, err := action.NewTeacherAction(h.idGen.NewID(), anchor.ID.String(), cmd.TeacherID, actionType)
	if err != nil {
		return nil, fmt.Errorf("record_teacher_action: build action: %w", err)
	}
	act.CreatedAt = now
	if cmd.Note != "" {
		act.AppendNote(timeutil.StampedNote(now, cmd.Note))
	}
	if badgeNote != "" {
		act.AppendNote(badgeNote)
	}
	if cmd.MessageToStudent != "" {
		act.WithMessage(cmd.MessageToStudent)
	}

	if err := h.actionRepo.Save(ctx, act); err != nil {
		return nil, fmt.Errorf("record_teacher_action: save action: %w", err)
	}
	result.Action = act

	// The student-notes append happens after the action is durable; its
	// failure is logged, not surfaced.
	if actionType == action.TypeAddNote {
		stud.AppendNote(cmd.Note, now)
		if err := h.rosterRepo.SaveStudent(ctx, stud); err != nil {
			h.logger.Error("failed to append student note",
				"student_id", stud.ID, "action_id", act.ID, "error", err)
		}
	}

	// Reassignment of a reused active insight moves it to monitoring; a
	// freshly synthesized anchor is already action_taken.
	if actionType == action.TypeReassign && !synthesized && anchor.IsActive() {
		if err := h.driveMonitoring(ctx, anchor, cmd.TeacherID); err != nil {
			h.logger.Error("failed to move reassigned insight to monitoring",
				"insight_id", anchor.ID.String(), "error", err)
		}
	}

	h.publishEvents(cmd, result, synthesized)
	return result, nil
}

// resolveAnchor finds the insight the action attaches to: the explicit one
// when referenced, an existing active insight through the dedup index when
// possible, otherwise a fresh monitor insight already marked action_taken
// (the action itself constitutes the resolution).
func (h *RecordTeacherActionHandler) resolveAnchor(ctx context.Context, cmd RecordTeacherActionCommand) (*insight.Insight, bool, error) {
	if cmd.InsightID != "" {
		ins, err := h.insightRepo.Load(ctx, insight.InsightID(cmd.InsightID))
		if err != nil {
			return nil, false, fmt.Errorf("record_teacher_action: %w", err)
		}
		return ins, false, nil
	}

	hint := anchorTypeHint(action.CoerceType(cmd.ActionType))
	existing, err := h.dedup.ResolveAnchor(ctx, cmd.StudentID, cmd.AssignmentID, cmd.ClassID, hint)
	if err != nil {
		return nil, false, fmt.Errorf("record_teacher_action: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	synthesized, err := insight.NewInsight(insight.NewInsightParams{
		ID:           insight.InsightID(h.idGen.NewID()),
		StudentID:    cmd.StudentID,
		AssignmentID: cmd.AssignmentID,
		ClassID:      cmd.ClassID,
		Type:         insight.TypeMonitor,
		Priority:     insight.PriorityLow,
		Confidence:   0.75,
		Summary:      SynthesizedAnchorSummary,
		Status:       insight.StatusActionTaken,
	})
	if err != nil {
		return nil, false, fmt.Errorf("record_teacher_action: synthesize anchor: %w", err)
	}
	return synthesized, true, nil
}

// anchorTypeHint maps an action type to the insight type it most plausibly
// responds to, improving anchor reuse over always picking the oldest.
func anchorTypeHint(t action.Type) insight.Type {
	switch t {
	case action.TypeScheduleCheckin, action.TypeReassign:
		return insight.TypeCheckIn
	case action.TypeAwardBadge:
		return insight.TypeCelebrateProgress
	case action.TypeDraftMessage:
		return insight.TypeChallengeOpportunity
	default:
		return ""
	}
}

// reassignProgress applies the reassignment mutation: one more attempt with
// a clean current cycle, history preserved.
func (h *RecordTeacherActionHandler) reassignProgress(ctx context.Context, cmd RecordTeacherActionCommand, studentID, assignmentID string, result *RecordTeacherActionResult) error {
	if assignmentID == "" {
		return errors.New("record_teacher_action: reassign requires an assignment")
	}
	if _, err := h.rosterRepo.GetAssignment(ctx, assignmentID); err != nil {
		return fmt.Errorf("record_teacher_action: %w", err)
	}

	rec, err := loadOrCreateProgress(ctx, h.progressRepo, studentID, assignmentID)
	if err != nil {
		return fmt.Errorf("record_teacher_action: %w", err)
	}

	rec.Reassign()

	if err := h.progressRepo.Save(ctx, rec); err != nil {
		return fmt.Errorf("record_teacher_action: save reassigned progress: %w", err)
	}

	result.Record = rec
	return nil
}

// awardBadge builds and persists the badge for an award_badge action.
func (h *RecordTeacherActionHandler) awardBadge(ctx context.Context, cmd RecordTeacherActionCommand, studentID, assignmentID string) (*badge.Badge, error) {
	message := cmd.BadgeMessage
	if message == "" {
		message = cmd.MessageToStudent
	}

	b, err := badge.NewBadge(h.idGen.NewID(), studentID, cmd.BadgeType, message, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("record_teacher_action: build badge: %w", err)
	}

	if err := h.badgeRepo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("record_teacher_action: save badge: %w", err)
	}
	return b, nil
}

// driveMonitoring moves a reused anchor insight to monitoring after a
// reassignment. Illegal transitions are the lifecycle manager's concern;
// here the anchor is known to be active.
func (h *RecordTeacherActionHandler) driveMonitoring(ctx context.Context, anchor *insight.Insight, actorID string) error {
	oldStatus := anchor.Status
	if err := anchor.MarkMonitoring(actorID); err != nil {
		return err
	}
	if err := h.insightRepo.Save(ctx, anchor); err != nil {
		return err
	}
	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewInsightStatusChangedEvent(
			anchor.ID.String(), anchor.StudentID,
			oldStatus.String(), anchor.Status.String(), actorID))
	}
	return nil
}

// publishEvents emits the workflow events for a recorded action.
func (h *RecordTeacherActionHandler) publishEvents(cmd RecordTeacherActionCommand, result *RecordTeacherActionResult, synthesized bool) {
	if h.publisher == nil {
		return
	}

	if synthesized {
		event := shared.NewInsightCreatedEvent(
			result.Insight.ID.String(),
			result.Insight.StudentID,
			result.Insight.AssignmentID,
			result.Insight.Type.String(),
			result.Insight.Priority.String(),
			result.Insight.Confidence,
		).WithSynthesized()
		_ = h.publisher.Publish(event)
	}

	_ = h.publisher.Publish(shared.NewTeacherActionRecordedEvent(
		result.Action.ID,
		result.Action.InsightID,
		result.Action.TeacherID,
		result.Action.Type.String(),
	))

	if result.Badge != nil {
		_ = h.publisher.Publish(shared.NewBadgeAwardedEvent(
			result.Badge.ID,
			result.Badge.StudentID,
			result.Badge.Type.String(),
			result.Badge.AssignmentID,
		))
	}

	if result.Record != nil {
		_ = h.publisher.Publish(shared.NewAssignmentReassignedEvent(
			result.Record.StudentID,
			result.Record.AssignmentID,
			cmd.TeacherID,
			result.Record.CurrentAttempt,
		))
	}
}
