package query

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

type rosterFixture struct {
	handler      *GetAssignmentRosterHandler
	progressRepo *memory.ProgressRepository
	insightRepo  *memory.InsightRepository
	rosterRepo   *memory.RosterRepository
}

func newRosterFixture(t *testing.T) *rosterFixture {
	t.Helper()
	f := &rosterFixture{
		progressRepo: memory.NewProgressRepository(),
		insightRepo:  memory.NewInsightRepository(),
		rosterRepo:   memory.NewRosterRepository(),
	}
	f.handler = NewGetAssignmentRosterHandler(
		f.progressRepo, f.insightRepo, f.rosterRepo, insight.DefaultThresholds())

	ctx := context.Background()
	assignment, err := roster.NewAssignment("a1", "c1", "Fractions quiz", "math", 10)
	require.NoError(t, err)
	require.NoError(t, f.rosterRepo.SaveAssignment(ctx, assignment))
	return f
}

func (f *rosterFixture) addStudent(t *testing.T, id, name string) {
	t.Helper()
	stud, err := roster.NewStudent(id, name, "c1")
	require.NoError(t, err)
	require.NoError(t, f.rosterRepo.SaveStudent(context.Background(), stud))
}

// completeWith seeds a finished progress record for the (student, a1) pair.
func (f *rosterFixture) completeWith(t *testing.T, studentID string, score float64, hints int) *progress.Record {
	t.Helper()
	rec, err := progress.NewRecord(studentID, "a1")
	require.NoError(t, err)
	now := time.Now().UTC()
	rec.StartAttempt(now)
	rec.RecordHintUsage(hints)
	rec.CompleteAttempt(score, 300, now)
	require.NoError(t, f.progressRepo.Save(context.Background(), rec))
	return rec
}

func (f *rosterFixture) seedInsight(t *testing.T, id, studentID string, status insight.Status) {
	t.Helper()
	ins, err := insight.NewInsight(insight.NewInsightParams{
		ID:           insight.InsightID(id),
		StudentID:    studentID,
		AssignmentID: "a1",
		Type:         insight.TypeCheckIn,
		Priority:     insight.PriorityMedium,
		Confidence:   0.85,
		Summary:      "observation",
		Status:       status,
	})
	require.NoError(t, err)
	require.NoError(t, f.insightRepo.Save(context.Background(), ins))
}

func TestGetAssignmentRoster_ClassifiesAndSorts(t *testing.T) {
	f := newRosterFixture(t)
	f.addStudent(t, "s1", "Alia")
	f.addStudent(t, "s2", "Bek")
	f.addStudent(t, "s3", "Dana")

	f.completeWith(t, "s1", 92, 0)  // strong
	f.completeWith(t, "s2", 30, 2)  // needs support
	f.completeWith(t, "s3", 60, 3)  // developing

	res, err := f.handler.Handle(context.Background(), GetAssignmentRosterQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	assert.Equal(t, "Fractions quiz", res.AssignmentTitle)
	require.Len(t, res.Rows, 3)

	// needs_support first, then developing, then strong
	assert.Equal(t, "Bek", res.Rows[0].DisplayName)
	assert.Equal(t, insight.UnderstandingNeedsSupport, res.Rows[0].Understanding)
	assert.Equal(t, "Dana", res.Rows[1].DisplayName)
	assert.Equal(t, insight.UnderstandingDeveloping, res.Rows[1].Understanding)
	assert.Equal(t, "Alia", res.Rows[2].DisplayName)
	assert.Equal(t, insight.UnderstandingStrong, res.Rows[2].Understanding)
}

func TestGetAssignmentRoster_HintRateDowngradesStrongScore(t *testing.T) {
	f := newRosterFixture(t)
	f.addStudent(t, "s1", "Alia")

	// 65% with hints on 7 of 10 questions reads as needing support
	f.completeWith(t, "s1", 65, 7)

	res, err := f.handler.Handle(context.Background(), GetAssignmentRosterQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, insight.UnderstandingNeedsSupport, res.Rows[0].Understanding)
	assert.InDelta(t, 0.7, res.Rows[0].HintUsageRate, 0.001)
}

func TestGetAssignmentRoster_IncompleteIsDeveloping(t *testing.T) {
	f := newRosterFixture(t)
	f.addStudent(t, "s1", "Alia")

	rec, err := progress.NewRecord("s1", "a1")
	require.NoError(t, err)
	rec.StartAttempt(time.Now().UTC())
	require.NoError(t, f.progressRepo.Save(context.Background(), rec))

	res, err := f.handler.Handle(context.Background(), GetAssignmentRosterQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.False(t, res.Rows[0].Completed)
	assert.Equal(t, insight.UnderstandingDeveloping, res.Rows[0].Understanding)
	assert.Nil(t, res.Rows[0].Score)
}

func TestGetAssignmentRoster_ActiveInsightCount(t *testing.T) {
	f := newRosterFixture(t)
	f.addStudent(t, "s1", "Alia")
	f.completeWith(t, "s1", 30, 0)

	f.seedInsight(t, "i1", "s1", insight.StatusPendingReview)
	f.seedInsight(t, "i2", "s1", insight.StatusActionTaken)

	res, err := f.handler.Handle(context.Background(), GetAssignmentRosterQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1, res.Rows[0].ActiveInsightCount)
}

func TestGetAssignmentRoster_UnknownStudentFallbackName(t *testing.T) {
	f := newRosterFixture(t)
	f.completeWith(t, "ghost", 50, 0)

	res, err := f.handler.Handle(context.Background(), GetAssignmentRosterQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, roster.UnknownStudentName, res.Rows[0].DisplayName)
}

func TestGetAssignmentRoster_UnknownAssignment(t *testing.T) {
	f := newRosterFixture(t)

	_, err := f.handler.Handle(context.Background(), GetAssignmentRosterQuery{AssignmentID: "missing"})
	assert.Error(t, err)
}

func TestGetAssignmentRoster_Validation(t *testing.T) {
	f := newRosterFixture(t)

	_, err := f.handler.Handle(context.Background(), GetAssignmentRosterQuery{})
	assert.Error(t, err)
}
