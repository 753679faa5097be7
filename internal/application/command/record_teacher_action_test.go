package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/badge"
	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/shared"
	"github.com/classpulse/insight-engine/internal/infrastructure/persistence/memory"
	"github.com/classpulse/insight-engine/pkg/identifier"
)

type recorderFixture struct {
	handler      *RecordTeacherActionHandler
	insightRepo  *memory.InsightRepository
	actionRepo   *memory.ActionRepository
	progressRepo *memory.ProgressRepository
	rosterRepo   *memory.RosterRepository
	badgeRepo    *memory.BadgeRepository
	publisher    *capturingPublisher
}

func newRecorderFixture(t *testing.T) *recorderFixture {
	t.Helper()
	f := &recorderFixture{
		insightRepo:  memory.NewInsightRepository(),
		actionRepo:   memory.NewActionRepository(),
		progressRepo: memory.NewProgressRepository(),
		rosterRepo:   memory.NewRosterRepository(),
		badgeRepo:    memory.NewBadgeRepository(),
		publisher:    &capturingPublisher{},
	}
	seedRoster(t, f.rosterRepo)
	f.handler = NewRecordTeacherActionHandler(
		f.insightRepo, f.actionRepo, f.progressRepo, f.rosterRepo, f.badgeRepo,
		insight.NewDedupIndex(f.insightRepo),
		identifier.NewSequenceGenerator("gen"),
		f.publisher, nil,
	)
	return f
}

func (f *recorderFixture) seedInsight(t *testing.T, id string, insightType insight.Type) *insight.Insight {
	t.Helper()
	ins, err := insight.NewInsight(insight.NewInsightParams{
		ID:           insight.InsightID(id),
		StudentID:    "s1",
		AssignmentID: "a1",
		ClassID:      "c1",
		Type:         insightType,
		Priority:     insight.PriorityMedium,
		Confidence:   0.85,
		Summary:      "needs attention",
	})
	require.NoError(t, err)
	require.NoError(t, f.insightRepo.Save(context.Background(), ins))
	return ins
}

func TestRecordAction_ExplicitInsightAnchor(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedInsight(t, "i1", insight.TypeCheckIn)

	res, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:  "t1",
		ActionType: "mark_reviewed",
		InsightID:  "i1",
	})
	assert.NoError(t, err)
	assert.False(t, res.SynthesizedInsight)
	assert.Equal(t, insight.InsightID("i1"), res.Insight.ID)
	assert.Equal(t, "i1", res.Action.InsightID)
	assert.Equal(t, action.TypeMarkReviewed, res.Action.Type)

	// the recorder only writes the audit record; the lifecycle is driven
	// separately by the queue operations
	stored, _ := f.insightRepo.Load(context.Background(), "i1")
	assert.Equal(t, insight.StatusPendingReview, stored.Status)

	actions, err := f.actionRepo.GetByInsight(context.Background(), "i1")
	assert.NoError(t, err)
	assert.Len(t, actions, 1)
}

func TestRecordAction_ResolvesActiveAnchor(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedInsight(t, "i1", insight.TypeCheckIn)

	// schedule_checkin hints at the check_in insight even without an id
	res, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:    "t1",
		ActionType:   "schedule_checkin",
		StudentID:    "s1",
		AssignmentID: "a1",
	})
	assert.NoError(t, err)
	assert.False(t, res.SynthesizedInsight)
	assert.Equal(t, insight.InsightID("i1"), res.Insight.ID)
}

func TestRecordAction_SynthesizesAnchor(t *testing.T) {
	f := newRecorderFixture(t)

	res, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:    "t1",
		ActionType:   "other",
		StudentID:    "s1",
		AssignmentID: "a1",
		ClassID:      "c1",
	})
	assert.NoError(t, err)
	assert.True(t, res.SynthesizedInsight)
	assert.Equal(t, insight.TypeMonitor, res.Insight.Type)
	assert.Equal(t, insight.StatusActionTaken, res.Insight.Status)
	assert.Equal(t, SynthesizedAnchorSummary, res.Insight.Summary)

	// the synthesized anchor is durable and the action references it
	stored, err := f.insightRepo.Load(context.Background(), res.Insight.ID)
	assert.NoError(t, err)
	assert.Equal(t, insight.StatusActionTaken, stored.Status)
	assert.Equal(t, res.Insight.ID.String(), res.Action.InsightID)

	// an action_taken anchor is invisible to deduplication
	active, err := f.insightRepo.FindActiveByStudentAssignment(context.Background(), "s1", "a1")
	assert.NoError(t, err)
	assert.Empty(t, active)
}

func TestRecordAction_AddNote(t *testing.T) {
	f := newRecorderFixture(t)
	ts := time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)

	res, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:  "t1",
		ActionType: "add_note",
		StudentID:  "s1",
		Note:       "Struggled with long division",
		Timestamp:  ts,
	})
	assert.NoError(t, err)
	assert.Equal(t, "[2026-08-29] Struggled with long division", res.Action.Note)

	stud, err := f.rosterRepo.GetStudent(context.Background(), "s1")
	assert.NoError(t, err)
	assert.Equal(t, "[2026-08-29] Struggled with long division", stud.Notes)
}

func TestRecordAction_AddNoteRequiresText(t *testing.T) {
	f := newRecorderFixture(t)

	_, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:  "t1",
		ActionType: "add_note",
		StudentID:  "s1",
	})
	assert.Error(t, err)
}

func TestRecordAction_AwardBadge(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedInsight(t, "i1", insight.TypeCelebrateProgress)

	res, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:    "t1",
		ActionType:   "award_badge",
		StudentID:    "s1",
		AssignmentID: "a1",
		BadgeType:    "shiny_trophy", // unknown, coerces to the default
		BadgeMessage: "Great jump!",
	})
	assert.NoError(t, err)
	require.NotNil(t, res.Badge)
	assert.Equal(t, badge.TypeProgressStar, res.Badge.Type)
	assert.Equal(t, "Great jump!", res.Badge.Message)

	// the action note carries the badge reference the reconcile job checks
	assert.Contains(t, res.Action.Note, "Badge awarded: "+res.Badge.ID)

	stored, err := f.badgeRepo.GetByStudent(context.Background(), "s1")
	assert.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecordAction_Reassign(t *testing.T) {
	f := newRecorderFixture(t)
	anchor := f.seedInsight(t, "i1", insight.TypeCheckIn)
	ctx := context.Background()

	// a completed cycle to reassign
	rec, err := loadOrCreateProgress(ctx, f.progressRepo, "s1", "a1")
	require.NoError(t, err)
	rec.StartAttempt(time.Now().UTC())
	rec.CompleteAttempt(30, 0, time.Now().UTC())
	require.NoError(t, f.progressRepo.Save(ctx, rec))

	res, err := f.handler.Handle(ctx, RecordTeacherActionCommand{
		TeacherID:    "t1",
		ActionType:   "reassign",
		StudentID:    "s1",
		AssignmentID: "a1",
	})
	assert.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, 2, res.Record.Attempts)
	assert.Nil(t, res.Record.Score)
	assert.Equal(t, 30.0, *res.Record.HighestScore)

	// the reused anchor moves to monitoring, not action_taken
	stored, _ := f.insightRepo.Load(ctx, anchor.ID)
	assert.Equal(t, insight.StatusMonitoring, stored.Status)
}

func TestRecordAction_ReassignRequiresAssignment(t *testing.T) {
	f := newRecorderFixture(t)

	_, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:  "t1",
		ActionType: "reassign",
		StudentID:  "s1",
	})
	assert.Error(t, err)
}

func TestRecordAction_UnknownStudentFails(t *testing.T) {
	f := newRecorderFixture(t)

	_, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:  "t1",
		ActionType: "other",
		StudentID:  "ghost",
	})
	assert.True(t, shared.IsNotFound(err))

	// nothing was written on the failed path
	recent, err := f.actionRepo.GetRecent(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, recent)
}

func TestRecordAction_Validation(t *testing.T) {
	f := newRecorderFixture(t)

	_, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		ActionType: "other",
		StudentID:  "s1",
	})
	assert.Error(t, err)

	_, err = f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:  "t1",
		ActionType: "other",
	})
	assert.Error(t, err)
}

func TestRecordAction_UnknownTypeCoercesToOther(t *testing.T) {
	f := newRecorderFixture(t)
	f.seedInsight(t, "i1", insight.TypeMonitor)

	res, err := f.handler.Handle(context.Background(), RecordTeacherActionCommand{
		TeacherID:  "t1",
		ActionType: "called_parent",
		InsightID:  "i1",
	})
	assert.NoError(t, err)
	assert.Equal(t, action.TypeOther, res.Action.Type)
}
