package workqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/roster"
	"github.com/classpulse/insight-engine/internal/infrastructure/persistence/memory"
)

type queueFixture struct {
	builder      *Builder
	insightRepo  *memory.InsightRepository
	progressRepo *memory.ProgressRepository
	rosterRepo   *memory.RosterRepository
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()
	f := &queueFixture{
		insightRepo:  memory.NewInsightRepository(),
		progressRepo: memory.NewProgressRepository(),
		rosterRepo:   memory.NewRosterRepository(),
	}
	f.builder = NewBuilder(f.insightRepo, f.progressRepo, f.rosterRepo, insight.DefaultThresholds(), nil)

	ctx := context.Background()
	stud, err := roster.NewStudent("s1", "Alia", "c1")
	require.NoError(t, err)
	require.NoError(t, f.rosterRepo.SaveStudent(ctx, stud))
	assignment, err := roster.NewAssignment("a1", "c1", "Fractions quiz", "math", 10)
	require.NoError(t, err)
	require.NoError(t, f.rosterRepo.SaveAssignment(ctx, assignment))
	require.NoError(t, f.rosterRepo.SaveClass(ctx, &roster.Class{ID: "c1", Name: "5B", TeacherID: "t1"}))
	return f
}

func (f *queueFixture) seed(t *testing.T, id, studentID string, insightType insight.Type, priority insight.Priority) *insight.Insight {
	t.Helper()
	ins, err := insight.NewInsight(insight.NewInsightParams{
		ID:           insight.InsightID(id),
		StudentID:    studentID,
		AssignmentID: "a1",
		ClassID:      "c1",
		Type:         insightType,
		Priority:     priority,
		Confidence:   0.85,
		Summary:      "observation",
	})
	require.NoError(t, err)
	require.NoError(t, f.insightRepo.Save(context.Background(), ins))
	return ins
}

func TestBuild_OrdersByUrgencyThenPriority(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(t, "celebrate-low", "s2", insight.TypeCelebrateProgress, insight.PriorityLow)
	f.seed(t, "checkin-high", "s3", insight.TypeCheckIn, insight.PriorityHigh)
	f.seed(t, "challenge-high", "s4", insight.TypeChallengeOpportunity, insight.PriorityHigh)
	f.seed(t, "checkin-medium", "s5", insight.TypeCheckIn, insight.PriorityMedium)

	items, err := f.builder.Build(context.Background(), Scope{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, items, 4)

	// immediate first, then soon (priority descending), then when_available
	assert.Equal(t, "checkin-high", items[0].InsightID)
	assert.Equal(t, insight.UrgencyImmediate, items[0].Urgency)
	assert.Equal(t, "challenge-high", items[1].InsightID)
	assert.Equal(t, "checkin-medium", items[2].InsightID)
	assert.Equal(t, "celebrate-low", items[3].InsightID)
	assert.Equal(t, insight.UrgencyWhenAvailable, items[3].Urgency)
}

func TestBuild_JoinsDisplayNames(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCheckIn, insight.PriorityMedium)

	items, err := f.builder.Build(context.Background(), Scope{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Alia", items[0].StudentName)
	assert.Equal(t, "Fractions quiz", items[0].AssignmentTitle)
	assert.Equal(t, "5B", items[0].ClassName)
}

func TestBuild_FallbackNamesForUnknownReferences(t *testing.T) {
	f := newQueueFixture(t)
	// a student the roster has never seen
	f.seed(t, "i1", "ghost", insight.TypeCheckIn, insight.PriorityMedium)

	items, err := f.builder.Build(context.Background(), Scope{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, roster.UnknownStudentName, items[0].StudentName)
}

func TestBuild_ExcludesResolvedByDefault(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(t, "pending", "s1", insight.TypeCheckIn, insight.PriorityMedium)
	resolved := f.seed(t, "resolved", "s2", insight.TypeCheckIn, insight.PriorityMedium)
	require.NoError(t, resolved.MarkActionTaken("t1"))
	require.NoError(t, f.insightRepo.Save(context.Background(), resolved))

	items, err := f.builder.Build(context.Background(), Scope{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "pending", items[0].InsightID)

	items, err = f.builder.Build(context.Background(), Scope{AssignmentID: "a1", IncludeResolved: true})
	assert.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRefineSuggestion_ReassignAfterRepeatedFailure(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCheckIn, insight.PriorityHigh)

	rec, err := progress.NewRecord("s1", "a1")
	require.NoError(t, err)
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		rec.StartAttempt(now)
		rec.CompleteAttempt(25, 0, now)
	}
	require.NoError(t, f.progressRepo.Save(context.Background(), rec))

	items, err := f.builder.Build(context.Background(), Scope{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, SuggestReassign, items[0].SuggestedActionType)
}

func TestRefineSuggestion_SupportGroupForMassStruggle(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCheckIn, insight.PriorityMedium)
	f.seed(t, "i2", "s2", insight.TypeCheckIn, insight.PriorityMedium)
	f.seed(t, "i3", "s3", insight.TypeMonitor, insight.PriorityLow)

	items, err := f.builder.Build(context.Background(), Scope{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, SuggestSupportGroup, item.SuggestedActionType, "item %s", item.InsightID)
	}
}

func TestRefineSuggestion_DirectMapping(t *testing.T) {
	f := newQueueFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCelebrateProgress, insight.PriorityMedium)
	f.seed(t, "i2", "s2", insight.TypeChallengeOpportunity, insight.PriorityMedium)

	items, err := f.builder.Build(context.Background(), Scope{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, items, 2)

	byID := map[string]SuggestedActionType{}
	for _, item := range items {
		byID[item.InsightID] = item.SuggestedActionType
	}
	assert.Equal(t, SuggestCelebrate, byID["i1"])
	assert.Equal(t, SuggestChallenge, byID["i2"])
}

func TestSuggestedActionType_ActionMapping(t *testing.T) {
	assert.Equal(t, "schedule_checkin", SuggestCheckIn.ActionType().String())
	assert.Equal(t, "award_badge", SuggestCelebrate.ActionType().String())
	assert.Equal(t, "draft_message", SuggestChallenge.ActionType().String())
	assert.Equal(t, "reassign", SuggestReassign.ActionType().String())
	assert.Equal(t, "add_note", SuggestMonitor.ActionType().String())
	assert.Equal(t, "add_note", SuggestSupportGroup.ActionType().String())
}
