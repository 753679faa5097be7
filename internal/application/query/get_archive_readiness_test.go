package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/insight-engine/internal/domain/insight"
)

func newReadinessFixture(t *testing.T) (*rosterFixture, *GetArchiveReadinessHandler) {
	t.Helper()
	f := newRosterFixture(t)
	return f, NewGetArchiveReadinessHandler(f.handler, f.insightRepo)
}

func TestGetArchiveReadiness_EligibleWhenNoWorkRemains(t *testing.T) {
	f, h := newReadinessFixture(t)
	f.addStudent(t, "s1", "Alia")
	f.completeWith(t, "s1", 85, 0)

	res, err := h.Handle(context.Background(), GetArchiveReadinessQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Empty(t, res.Blockers)
}

func TestGetArchiveReadiness_PendingInsightsBlock(t *testing.T) {
	f, h := newReadinessFixture(t)
	f.addStudent(t, "s1", "Alia")
	f.completeWith(t, "s1", 85, 0)
	f.seedInsight(t, "i1", "s1", insight.StatusPendingReview)

	res, err := h.Handle(context.Background(), GetArchiveReadinessQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	assert.False(t, res.Eligible)
	require.Len(t, res.Blockers, 1)
	assert.Equal(t, "1 insight(s) still awaiting review", res.Blockers[0])
}

func TestGetArchiveReadiness_UnresolvedStrugglerBlocks(t *testing.T) {
	f, h := newReadinessFixture(t)
	f.addStudent(t, "s1", "Alia")
	f.completeWith(t, "s1", 25, 0)

	res, err := h.Handle(context.Background(), GetArchiveReadinessQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	assert.False(t, res.Eligible)
	require.Len(t, res.Blockers, 1)
	assert.Equal(t, "Alia needs support but has no resolved insight", res.Blockers[0])
}

func TestGetArchiveReadiness_ResolvedInsightClearsStruggler(t *testing.T) {
	f, h := newReadinessFixture(t)
	f.addStudent(t, "s1", "Alia")
	f.completeWith(t, "s1", 25, 0)
	f.seedInsight(t, "i1", "s1", insight.StatusActionTaken)

	res, err := h.Handle(context.Background(), GetArchiveReadinessQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	assert.True(t, res.Eligible)
}

func TestGetArchiveReadiness_MonitoringInsightIsNotResolution(t *testing.T) {
	f, h := newReadinessFixture(t)
	f.addStudent(t, "s1", "Alia")
	f.completeWith(t, "s1", 25, 0)
	f.seedInsight(t, "i1", "s1", insight.StatusMonitoring)

	res, err := h.Handle(context.Background(), GetArchiveReadinessQuery{AssignmentID: "a1"})
	assert.NoError(t, err)
	// monitoring is neither pending nor resolved: the struggler still blocks
	assert.False(t, res.Eligible)
	require.Len(t, res.Blockers, 1)
	assert.Equal(t, "Alia needs support but has no resolved insight", res.Blockers[0])
}

func TestGetArchiveReadiness_Validation(t *testing.T) {
	_, h := newReadinessFixture(t)

	_, err := h.Handle(context.Background(), GetArchiveReadinessQuery{})
	assert.Error(t, err)
}
