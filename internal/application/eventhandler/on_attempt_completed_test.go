package eventhandler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/shared"
	"github.com/classpulse/insight-engine/internal/infrastructure/persistence/memory"
	"github.com/classpulse/insight-engine/pkg/identifier"
)

type capturingPublisher struct {
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func newHandler(repo *memory.InsightRepository, pub shared.EventPublisher) *OnAttemptCompleted {
	gen := insight.NewGenerator(insight.DefaultThresholds(), identifier.NewSequenceGenerator("ins"))
	return NewOnAttemptCompleted(gen, insight.NewDedupIndex(repo), repo, pub, nil)
}

func completedEvent(score float64, hintsUsed, attempts int) shared.AttemptCompletedEvent {
	return shared.AttemptCompletedEvent{
		BaseEvent:     shared.NewBaseEvent(shared.EventAttemptCompleted, "s1"),
		StudentID:     "s1",
		AssignmentID:  "a1",
		ClassID:       "c1",
		Subject:       "math",
		QuestionCount: 10,
		Score:         score,
		HintsUsed:     hintsUsed,
		Attempts:      attempts,
	}
}

func TestHandle_GeneratesAndPersistsInsight(t *testing.T) {
	repo := memory.NewInsightRepository()
	pub := &capturingPublisher{}
	h := newHandler(repo, pub)

	created, err := h.Handle(context.Background(), completedEvent(25, 0, 1))
	assert.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, insight.TypeCheckIn, created[0].Type)
	assert.Equal(t, insight.PriorityHigh, created[0].Priority)

	stored, err := repo.Load(context.Background(), created[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, insight.StatusPendingReview, stored.Status)

	// one insight.created event per persisted insight
	assert.Len(t, pub.events, 1)
}

func TestHandle_DeduplicatesAcrossEvents(t *testing.T) {
	repo := memory.NewInsightRepository()
	h := newHandler(repo, nil)
	ctx := context.Background()

	created, err := h.Handle(ctx, completedEvent(25, 0, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)

	// the same struggle on the next attempt creates no second check_in
	created, err = h.Handle(ctx, completedEvent(28, 0, 2))
	assert.NoError(t, err)
	assert.Empty(t, created)

	all, err := repo.FindActiveByStudentAssignment(ctx, "s1", "a1")
	assert.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestHandle_ResolvedInsightAllowsRegeneration(t *testing.T) {
	repo := memory.NewInsightRepository()
	h := newHandler(repo, nil)
	ctx := context.Background()

	created, err := h.Handle(ctx, completedEvent(25, 0, 1))
	require.NoError(t, err)
	require.Len(t, created, 1)

	// the teacher resolves the insight; a later struggle may fire again
	require.NoError(t, created[0].MarkActionTaken("t1"))
	require.NoError(t, repo.Save(ctx, created[0]))

	created, err = h.Handle(ctx, completedEvent(20, 0, 2))
	assert.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestHandle_DerivesHintRateFromSnapshot(t *testing.T) {
	repo := memory.NewInsightRepository()
	h := newHandler(repo, nil)

	// 7 hints over 10 questions at a mid score: check_in via heavy hints
	event := completedEvent(65, 7, 1)
	created, err := h.Handle(context.Background(), event)
	assert.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, insight.TypeCheckIn, created[0].Type)
	assert.Contains(t, created[0].Evidence[0], "70%")
}

func TestEventHandler_RejectsForeignEvents(t *testing.T) {
	h := newHandler(memory.NewInsightRepository(), nil)
	fn := h.EventHandler()

	err := fn(shared.NewAttemptStartedEvent("s1", "a1", 1))
	assert.Error(t, err)
}
