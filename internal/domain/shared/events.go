// Package shared contains common domain types, errors, events, and contracts
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Progress events
	EventAttemptStarted        EventType = "progress.attempt_started"
	EventAttemptCompleted      EventType = "progress.attempt_completed"
	EventHintUsed              EventType = "progress.hint_used"
	EventCoachSessionRecorded  EventType = "progress.coach_session_recorded"
	EventAssignmentReassigned  EventType = "progress.assignment_reassigned"

	// Insight events
	EventInsightCreated       EventType = "insight.created"
	EventInsightStatusChanged EventType = "insight.status_changed"

	// Teacher workflow events
	EventTeacherActionRecorded EventType = "action.recorded"
	EventBadgeAwarded          EventType = "badge.awarded"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// AttemptStartedEvent is emitted when a student starts an assignment attempt.
type AttemptStartedEvent struct {
	BaseEvent
	StudentID     string `json:"student_id"`
	AssignmentID  string `json:"assignment_id"`
	AttemptNumber int    `json:"attempt_number"`
}

// Payload implements Event interface.
func (e AttemptStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":     e.StudentID,
		"assignment_id":  e.AssignmentID,
		"attempt_number": e.AttemptNumber,
	}
}

// NewAttemptStartedEvent creates a new AttemptStartedEvent.
func NewAttemptStartedEvent(studentID, assignmentID string, attemptNumber int) AttemptStartedEvent {
	return AttemptStartedEvent{
		BaseEvent:     NewBaseEvent(EventAttemptStarted, studentID),
		StudentID:     studentID,
		AssignmentID:  assignmentID,
		AttemptNumber: attemptNumber,
	}
}

// AttemptCompletedEvent is emitted when a student completes an assignment attempt.
// It carries the full measurement snapshot so downstream rule evaluation does not
// have to re-read the progress record mid-flight. PreviousHighestScore is the
// highest score before this attempt was applied (nil when this is the first
// completed attempt).
type AttemptCompletedEvent struct {
	BaseEvent
	StudentID            string   `json:"student_id"`
	AssignmentID         string   `json:"assignment_id"`
	ClassID              string   `json:"class_id,omitempty"`
	Subject              string   `json:"subject,omitempty"`
	QuestionCount        int      `json:"question_count"`
	Score                float64  `json:"score"`
	TimeSpentSeconds     int      `json:"time_spent_seconds"`
	Attempts             int      `json:"attempts"`
	HintsUsed            int      `json:"hints_used"`
	CoachSessionsUsed    int      `json:"coach_sessions_used"`
	PreviousHighestScore *float64 `json:"previous_highest_score,omitempty"`
}

// Payload implements Event interface.
func (e AttemptCompletedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"student_id":          e.StudentID,
		"assignment_id":       e.AssignmentID,
		"class_id":            e.ClassID,
		"subject":             e.Subject,
		"question_count":      e.QuestionCount,
		"score":               e.Score,
		"time_spent_seconds":  e.TimeSpentSeconds,
		"attempts":            e.Attempts,
		"hints_used":          e.HintsUsed,
		"coach_sessions_used": e.CoachSessionsUsed,
	}
	if e.PreviousHighestScore != nil {
		p["previous_highest_score"] = *e.PreviousHighestScore
	}
	return p
}

// NewAttemptCompletedEvent creates a new AttemptCompletedEvent.
func NewAttemptCompletedEvent(studentID, assignmentID string, score float64) AttemptCompletedEvent {
	return AttemptCompletedEvent{
		BaseEvent:    NewBaseEvent(EventAttemptCompleted, studentID),
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Score:        score,
	}
}

// HintUsedEvent is emitted when hint usage is recorded for a student.
type HintUsedEvent struct {
	BaseEvent
	StudentID    string `json:"student_id"`
	AssignmentID string `json:"assignment_id"`
	Count        int    `json:"count"`
	TotalHints   int    `json:"total_hints"`
}

// Payload implements Event interface.
func (e HintUsedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":    e.StudentID,
		"assignment_id": e.AssignmentID,
		"count":         e.Count,
		"total_hints":   e.TotalHints,
	}
}

// NewHintUsedEvent creates a new HintUsedEvent.
func NewHintUsedEvent(studentID, assignmentID string, count, totalHints int) HintUsedEvent {
	return HintUsedEvent{
		BaseEvent:    NewBaseEvent(EventHintUsed, studentID),
		StudentID:    studentID,
		AssignmentID: assignmentID,
		Count:        count,
		TotalHints:   totalHints,
	}
}

// CoachSessionRecordedEvent is emitted when a coach session is recorded.
type CoachSessionRecordedEvent struct {
	BaseEvent
	StudentID     string `json:"student_id"`
	AssignmentID  string `json:"assignment_id"`
	TotalSessions int    `json:"total_sessions"`
}

// Payload implements Event interface.
func (e CoachSessionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":     e.StudentID,
		"assignment_id":  e.AssignmentID,
		"total_sessions": e.TotalSessions,
	}
}

// NewCoachSessionRecordedEvent creates a new CoachSessionRecordedEvent.
func NewCoachSessionRecordedEvent(studentID, assignmentID string, totalSessions int) CoachSessionRecordedEvent {
	return CoachSessionRecordedEvent{
		BaseEvent:     NewBaseEvent(EventCoachSessionRecorded, studentID),
		StudentID:     studentID,
		AssignmentID:  assignmentID,
		TotalSessions: totalSessions,
	}
}

// AssignmentReassignedEvent is emitted when a teacher reassigns an assignment.
type AssignmentReassignedEvent struct {
	BaseEvent
	StudentID    string `json:"student_id"`
	AssignmentID string `json:"assignment_id"`
	TeacherID    string `json:"teacher_id"`
	NewAttempt   int    `json:"new_attempt"`
}

// Payload implements Event interface.
func (e AssignmentReassignedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":    e.StudentID,
		"assignment_id": e.AssignmentID,
		"teacher_id":    e.TeacherID,
		"new_attempt":   e.NewAttempt,
	}
}

// NewAssignmentReassignedEvent creates a new AssignmentReassignedEvent.
func NewAssignmentReassignedEvent(studentID, assignmentID, teacherID string, newAttempt int) AssignmentReassignedEvent {
	return AssignmentReassignedEvent{
		BaseEvent:    NewBaseEvent(EventAssignmentReassigned, studentID),
		StudentID:    studentID,
		AssignmentID: assignmentID,
		TeacherID:    teacherID,
		NewAttempt:   newAttempt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Insight Events
// ═══════════════════════════════════════════════════════════════════════════

// InsightCreatedEvent is emitted when a new insight is generated or synthesized.
type InsightCreatedEvent struct {
	BaseEvent
	InsightID    string  `json:"insight_id"`
	StudentID    string  `json:"student_id"`
	AssignmentID string  `json:"assignment_id,omitempty"`
	InsightType  string  `json:"insight_type"`
	Priority     string  `json:"priority"`
	Confidence   float64 `json:"confidence"`
	Synthesized  bool    `json:"synthesized"`
}

// Payload implements Event interface.
func (e InsightCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"insight_id":    e.InsightID,
		"student_id":    e.StudentID,
		"assignment_id": e.AssignmentID,
		"insight_type":  e.InsightType,
		"priority":      e.Priority,
		"confidence":    e.Confidence,
		"synthesized":   e.Synthesized,
	}
}

// NewInsightCreatedEvent creates a new InsightCreatedEvent.
func NewInsightCreatedEvent(insightID, studentID, assignmentID, insightType, priority string, confidence float64) InsightCreatedEvent {
	return InsightCreatedEvent{
		BaseEvent:    NewBaseEvent(EventInsightCreated, insightID),
		InsightID:    insightID,
		StudentID:    studentID,
		AssignmentID: assignmentID,
		InsightType:  insightType,
		Priority:     priority,
		Confidence:   confidence,
	}
}

// WithSynthesized marks the insight as synthesized by the action recorder.
func (e InsightCreatedEvent) WithSynthesized() InsightCreatedEvent {
	e.Synthesized = true
	return e
}

// InsightStatusChangedEvent is emitted on every insight lifecycle transition,
// including expiry performed by the maintenance sweep.
type InsightStatusChangedEvent struct {
	BaseEvent
	InsightID string `json:"insight_id"`
	StudentID string `json:"student_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ActorID   string `json:"actor_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e InsightStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"insight_id": e.InsightID,
		"student_id": e.StudentID,
		"old_status": e.OldStatus,
		"new_status": e.NewStatus,
		"actor_id":   e.ActorID,
		"reason":     e.Reason,
	}
}

// NewInsightStatusChangedEvent creates a new InsightStatusChangedEvent.
func NewInsightStatusChangedEvent(insightID, studentID, oldStatus, newStatus, actorID string) InsightStatusChangedEvent {
	return InsightStatusChangedEvent{
		BaseEvent: NewBaseEvent(EventInsightStatusChanged, insightID),
		InsightID: insightID,
		StudentID: studentID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorID:   actorID,
	}
}

// WithReason attaches a human-readable reason to the transition.
func (e InsightStatusChangedEvent) WithReason(reason string) InsightStatusChangedEvent {
	e.Reason = reason
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Teacher Workflow Events
// ═══════════════════════════════════════════════════════════════════════════

// TeacherActionRecordedEvent is emitted when a teacher action is persisted.
type TeacherActionRecordedEvent struct {
	BaseEvent
	ActionID   string `json:"action_id"`
	InsightID  string `json:"insight_id"`
	TeacherID  string `json:"teacher_id"`
	ActionType string `json:"action_type"`
}

// Payload implements Event interface.
func (e TeacherActionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"action_id":   e.ActionID,
		"insight_id":  e.InsightID,
		"teacher_id":  e.TeacherID,
		"action_type": e.ActionType,
	}
}

// NewTeacherActionRecordedEvent creates a new TeacherActionRecordedEvent.
func NewTeacherActionRecordedEvent(actionID, insightID, teacherID, actionType string) TeacherActionRecordedEvent {
	return TeacherActionRecordedEvent{
		BaseEvent:  NewBaseEvent(EventTeacherActionRecorded, actionID),
		ActionID:   actionID,
		InsightID:  insightID,
		TeacherID:  teacherID,
		ActionType: actionType,
	}
}

// BadgeAwardedEvent is emitted when a badge is granted to a student.
type BadgeAwardedEvent struct {
	BaseEvent
	BadgeID      string `json:"badge_id"`
	StudentID    string `json:"student_id"`
	BadgeType    string `json:"badge_type"`
	AssignmentID string `json:"assignment_id,omitempty"`
}

// Payload implements Event interface.
func (e BadgeAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"badge_id":      e.BadgeID,
		"student_id":    e.StudentID,
		"badge_type":    e.BadgeType,
		"assignment_id": e.AssignmentID,
	}
}

// NewBadgeAwardedEvent creates a new BadgeAwardedEvent.
func NewBadgeAwardedEvent(badgeID, studentID, badgeType, assignmentID string) BadgeAwardedEvent {
	return BadgeAwardedEvent{
		BaseEvent:    NewBaseEvent(EventBadgeAwarded, badgeID),
		BadgeID:      badgeID,
		StudentID:    studentID,
		BadgeType:    badgeType,
		AssignmentID: assignmentID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport and introspection.
type EventEnvelope struct {
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEventEnvelope wraps an event into an envelope with a serialized payload.
func NewEventEnvelope(event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     payload,
	}, nil
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish delivers the event to all subscribers of its type.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all event types.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
