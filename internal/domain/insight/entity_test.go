package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validParams() NewInsightParams {
	return NewInsightParams{
		ID:         "ins-1",
		StudentID:  "student-1",
		Type:       TypeCheckIn,
		Priority:   PriorityMedium,
		Confidence: 0.85,
		Summary:    "Student is struggling with this assignment",
	}
}

func TestNewInsight_Defaults(t *testing.T) {
	ins, err := NewInsight(validParams())
	assert.NoError(t, err)
	assert.Equal(t, StatusPendingReview, ins.Status)
	assert.Nil(t, ins.ReviewedAt)
	assert.Empty(t, ins.ReviewedBy)
	assert.False(t, ins.CreatedAt.IsZero())
	assert.True(t, ins.IsActive())
}

func TestNewInsight_Validation(t *testing.T) {
	p := validParams()
	p.ID = ""
	_, err := NewInsight(p)
	assert.ErrorIs(t, err, ErrInvalidInsightID)

	p = validParams()
	p.StudentID = ""
	_, err = NewInsight(p)
	assert.ErrorIs(t, err, ErrEmptyStudentID)

	p = validParams()
	p.Type = "something_else"
	_, err = NewInsight(p)
	assert.ErrorIs(t, err, ErrInvalidInsightType)

	p = validParams()
	p.Confidence = 1.5
	_, err = NewInsight(p)
	assert.ErrorIs(t, err, ErrConfidenceOutOfRange)

	p = validParams()
	p.Summary = ""
	_, err = NewInsight(p)
	assert.ErrorIs(t, err, ErrEmptySummary)
}

func TestStatus_CanTransitionTo(t *testing.T) {
	// pending_review may go anywhere
	assert.True(t, StatusPendingReview.CanTransitionTo(StatusMonitoring))
	assert.True(t, StatusPendingReview.CanTransitionTo(StatusActionTaken))
	assert.True(t, StatusPendingReview.CanTransitionTo(StatusDismissed))
	assert.True(t, StatusPendingReview.CanTransitionTo(StatusExpired))

	// monitoring resolves but never expires or regresses
	assert.True(t, StatusMonitoring.CanTransitionTo(StatusActionTaken))
	assert.True(t, StatusMonitoring.CanTransitionTo(StatusDismissed))
	assert.False(t, StatusMonitoring.CanTransitionTo(StatusExpired))
	assert.False(t, StatusMonitoring.CanTransitionTo(StatusPendingReview))

	// terminal statuses allow no transitions at all
	for _, s := range []Status{StatusActionTaken, StatusDismissed, StatusExpired} {
		for _, target := range []Status{StatusPendingReview, StatusMonitoring, StatusActionTaken, StatusDismissed, StatusExpired} {
			assert.False(t, s.CanTransitionTo(target), "%s -> %s must be illegal", s, target)
		}
	}
}

func TestTransitionTo_StampsFirstReview(t *testing.T) {
	ins, _ := NewInsight(validParams())

	err := ins.MarkMonitoring("teacher-1")
	assert.NoError(t, err)
	assert.Equal(t, StatusMonitoring, ins.Status)
	assert.NotNil(t, ins.ReviewedAt)
	assert.Equal(t, "teacher-1", ins.ReviewedBy)

	firstReview := *ins.ReviewedAt

	// the second transition must not overwrite the first reviewer
	err = ins.MarkActionTaken("teacher-2")
	assert.NoError(t, err)
	assert.Equal(t, StatusActionTaken, ins.Status)
	assert.Equal(t, firstReview, *ins.ReviewedAt)
	assert.Equal(t, "teacher-1", ins.ReviewedBy)
}

func TestTransitionTo_IllegalLeavesInsightUntouched(t *testing.T) {
	ins, _ := NewInsight(validParams())
	assert.NoError(t, ins.MarkDismissed("teacher-1"))

	err := ins.MarkActionTaken("teacher-2")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, StatusDismissed, ins.Status)
	assert.Equal(t, "teacher-1", ins.ReviewedBy)
}

func TestMarkExpired_NoActor(t *testing.T) {
	ins, _ := NewInsight(validParams())
	assert.NoError(t, ins.MarkExpired())
	assert.Equal(t, StatusExpired, ins.Status)
	assert.NotNil(t, ins.ReviewedAt)
	assert.Empty(t, ins.ReviewedBy)
}

func TestReviewWindow_ByPriority(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, PriorityHigh.ReviewWindow())
	assert.Equal(t, 14*24*time.Hour, PriorityMedium.ReviewWindow())
	assert.Equal(t, 14*24*time.Hour, PriorityLow.ReviewWindow())
}

func TestIsOverdue(t *testing.T) {
	ins, _ := NewInsight(validParams())
	ins.Priority = PriorityHigh
	ins.CreatedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	deadline := ins.ExpiryDeadline()
	assert.Equal(t, ins.CreatedAt.Add(7*24*time.Hour), deadline)

	assert.False(t, ins.IsOverdue(deadline))
	assert.True(t, ins.IsOverdue(deadline.Add(time.Second)))

	// only pending_review records expire
	assert.NoError(t, ins.MarkMonitoring("teacher-1"))
	assert.False(t, ins.IsOverdue(deadline.Add(time.Hour)))
}

func TestUrgencyFor_Table(t *testing.T) {
	assert.Equal(t, UrgencyImmediate, UrgencyFor(TypeCheckIn, PriorityHigh))
	assert.Equal(t, UrgencySoon, UrgencyFor(TypeCheckIn, PriorityMedium))
	assert.Equal(t, UrgencySoon, UrgencyFor(TypeCelebrateProgress, PriorityHigh))
	assert.Equal(t, UrgencySoon, UrgencyFor(TypeCelebrateProgress, PriorityMedium))
	assert.Equal(t, UrgencyWhenAvailable, UrgencyFor(TypeCelebrateProgress, PriorityLow))
	assert.Equal(t, UrgencySoon, UrgencyFor(TypeChallengeOpportunity, PriorityHigh))
	assert.Equal(t, UrgencyWhenAvailable, UrgencyFor(TypeChallengeOpportunity, PriorityMedium))
	assert.Equal(t, UrgencyWhenAvailable, UrgencyFor(TypeMonitor, PriorityLow))
}

func TestClone_IsDeep(t *testing.T) {
	ins, _ := NewInsight(validParams())
	ins.Evidence = []string{"fact one"}
	ins.SuggestedActions = []string{"do something"}
	now := time.Now().UTC()
	ins.ReviewedAt = &now

	clone := ins.Clone()
	clone.Evidence[0] = "changed"
	clone.SuggestedActions[0] = "changed"
	*clone.ReviewedAt = now.Add(time.Hour)

	assert.Equal(t, "fact one", ins.Evidence[0])
	assert.Equal(t, "do something", ins.SuggestedActions[0])
	assert.Equal(t, now, *ins.ReviewedAt)
}
