package workqueue

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/insight-engine/internal/application/command"
	"github.com/classpulse/insight-engine/internal/application/lifecycle"
	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/infrastructure/persistence/memory"
	"github.com/classpulse/insight-engine/pkg/identifier"
)

type opsFixture struct {
	*queueFixture
	ops        *Operations
	actionRepo *memory.ActionRepository
	badgeRepo  *memory.BadgeRepository
}

func newOpsFixture(t *testing.T) *opsFixture {
	t.Helper()
	qf := newQueueFixture(t)
	f := &opsFixture{
		queueFixture: qf,
		actionRepo:   memory.NewActionRepository(),
		badgeRepo:    memory.NewBadgeRepository(),
	}
	recorder := command.NewRecordTeacherActionHandler(
		qf.insightRepo, f.actionRepo, qf.progressRepo, qf.rosterRepo, f.badgeRepo,
		insight.NewDedupIndex(qf.insightRepo),
		identifier.NewSequenceGenerator("gen"),
		nil, nil,
	)
	manager := lifecycle.NewManager(qf.insightRepo, nil, nil)
	f.ops = NewOperations(qf.builder, recorder, manager, nil)
	return f
}

func TestApprove_RecordsActionAndResolves(t *testing.T) {
	f := newOpsFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCheckIn, insight.PriorityHigh)

	res, err := f.ops.Approve(context.Background(), "i1", "t1")
	assert.NoError(t, err)

	// check_in without mass struggle maps to schedule_checkin
	assert.Equal(t, action.TypeScheduleCheckin, res.Action.Type)
	assert.Equal(t, insight.StatusActionTaken, res.Insight.Status)
	assert.Equal(t, "t1", res.Insight.ReviewedBy)

	stored, _ := f.insightRepo.Load(context.Background(), "i1")
	assert.Equal(t, insight.StatusActionTaken, stored.Status)
}

func TestApprove_CelebrateAwardsBadge(t *testing.T) {
	f := newOpsFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCelebrateProgress, insight.PriorityMedium)

	res, err := f.ops.Modify(context.Background(), "i1", "t1", ApproveOverrides{
		BadgeType:    "rising_star",
		BadgeMessage: "Huge improvement!",
	})
	assert.NoError(t, err)
	assert.Equal(t, action.TypeAwardBadge, res.Action.Type)
	require.NotNil(t, res.Badge)
	assert.Equal(t, "rising_star", res.Badge.Type.String())

	badges, err := f.badgeRepo.GetByStudent(context.Background(), "s1")
	assert.NoError(t, err)
	assert.Len(t, badges, 1)
}

func TestApprove_ReassignLeavesInsightMonitoring(t *testing.T) {
	f := newOpsFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCheckIn, insight.PriorityHigh)

	// three failed attempts make the suggestion a reassign
	rec, err := progress.NewRecord("s1", "a1")
	require.NoError(t, err)
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		rec.StartAttempt(now)
		rec.CompleteAttempt(20, 0, now)
	}
	require.NoError(t, f.progressRepo.Save(context.Background(), rec))

	res, err := f.ops.Approve(context.Background(), "i1", "t1")
	assert.NoError(t, err)
	assert.Equal(t, action.TypeReassign, res.Action.Type)
	require.NotNil(t, res.Record)
	assert.Equal(t, 4, res.Record.Attempts)
	assert.Nil(t, res.Record.Score)

	// the recorder already moved the anchor to monitoring; approve must
	// not force it to action_taken
	stored, _ := f.insightRepo.Load(context.Background(), "i1")
	assert.Equal(t, insight.StatusMonitoring, stored.Status)
}

func TestModify_OverridesActionType(t *testing.T) {
	f := newOpsFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCheckIn, insight.PriorityMedium)

	res, err := f.ops.Modify(context.Background(), "i1", "t1", ApproveOverrides{
		ActionType: "add_note",
		Note:       "Parent conference scheduled",
	})
	assert.NoError(t, err)
	assert.Equal(t, action.TypeAddNote, res.Action.Type)
	assert.Contains(t, res.Action.Note, "Parent conference scheduled")

	// the note lands on the student record too
	stud, err := f.rosterRepo.GetStudent(context.Background(), "s1")
	assert.NoError(t, err)
	assert.Contains(t, stud.Notes, "Parent conference scheduled")
}

func TestModify_AddNoteDefaultsToSummary(t *testing.T) {
	f := newOpsFixture(t)
	f.seed(t, "i1", "s1", insight.TypeMonitor, insight.PriorityLow)

	res, err := f.ops.Modify(context.Background(), "i1", "t1", ApproveOverrides{})
	assert.NoError(t, err)
	// monitor maps to add_note, which needs text: the summary fills in
	assert.Equal(t, action.TypeAddNote, res.Action.Type)
	assert.Contains(t, res.Action.Note, "observation")
}

func TestDismiss(t *testing.T) {
	f := newOpsFixture(t)
	f.seed(t, "i1", "s1", insight.TypeCheckIn, insight.PriorityMedium)

	res, err := f.ops.Dismiss(context.Background(), "i1", "t1", "already handled in person")
	assert.NoError(t, err)
	assert.Equal(t, action.TypeMarkReviewed, res.Action.Type)
	assert.True(t, strings.Contains(res.Action.Note, DismissedNote))
	assert.True(t, strings.Contains(res.Action.Note, "already handled in person"))
	assert.Equal(t, insight.StatusDismissed, res.Insight.Status)

	// a dismissed item leaves the queue for good
	items, err := f.builder.Build(context.Background(), Scope{AssignmentID: "a1"})
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestApprove_UnknownInsight(t *testing.T) {
	f := newOpsFixture(t)

	_, err := f.ops.Approve(context.Background(), "missing", "t1")
	assert.Error(t, err)
}
