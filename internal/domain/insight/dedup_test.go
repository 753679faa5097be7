package insight

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubRepo is a minimal in-package Repository for dedup tests.
type stubRepo struct {
	insights []*Insight
}

func (r *stubRepo) Save(ctx context.Context, ins *Insight) error { return nil }

func (r *stubRepo) Load(ctx context.Context, id InsightID) (*Insight, error) { return nil, nil }

func (r *stubRepo) Query(ctx context.Context, filter Filter) ([]*Insight, error) { return nil, nil }

func (r *stubRepo) FindActiveByTriple(ctx context.Context, studentID, assignmentID string, t Type) (*Insight, error) {
	for _, ins := range r.insights {
		if ins.StudentID == studentID && ins.AssignmentID == assignmentID &&
			ins.Type == t && ins.IsActive() {
			return ins, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) FindActiveByStudentAssignment(ctx context.Context, studentID, assignmentID string) ([]*Insight, error) {
	var out []*Insight
	for _, ins := range r.insights {
		if ins.StudentID == studentID && ins.AssignmentID == assignmentID && ins.IsActive() {
			out = append(out, ins)
		}
	}
	return out, nil
}

func activeInsight(id string, t Type, classID string, createdAt time.Time) *Insight {
	return &Insight{
		ID:           InsightID(id),
		StudentID:    "s1",
		AssignmentID: "a1",
		ClassID:      classID,
		Type:         t,
		Priority:     PriorityMedium,
		Confidence:   0.8,
		Summary:      "test insight",
		Status:       StatusPendingReview,
		CreatedAt:    createdAt,
	}
}

func TestDedupIndex_Exists(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubRepo{insights: []*Insight{activeInsight("i1", TypeCheckIn, "", now)}}
	idx := NewDedupIndex(repo)

	exists, err := idx.Exists(context.Background(), "s1", "a1", TypeCheckIn)
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = idx.Exists(context.Background(), "s1", "a1", TypeMonitor)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestDedupIndex_ActiveSetKeepsOldestPerType(t *testing.T) {
	now := time.Now().UTC()
	older := activeInsight("i1", TypeCheckIn, "", now.Add(-time.Hour))
	newer := activeInsight("i2", TypeCheckIn, "", now)
	repo := &stubRepo{insights: []*Insight{newer, older}}

	set, err := NewDedupIndex(repo).ActiveSet(context.Background(), "s1", "a1")
	assert.NoError(t, err)
	assert.Len(t, set, 1)
	assert.Equal(t, InsightID("i1"), set[TypeCheckIn].ID)
}

func TestDedupIndex_ResolveAnchor(t *testing.T) {
	now := time.Now().UTC()
	oldest := activeInsight("i1", TypeMonitor, "", now.Add(-2*time.Hour))
	checkIn := activeInsight("i2", TypeCheckIn, "", now.Add(-time.Hour))
	repo := &stubRepo{insights: []*Insight{oldest, checkIn}}
	idx := NewDedupIndex(repo)

	// a type hint wins over age
	anchor, err := idx.ResolveAnchor(context.Background(), "s1", "a1", "", TypeCheckIn)
	assert.NoError(t, err)
	assert.Equal(t, InsightID("i2"), anchor.ID)

	// without a hint the oldest active insight is the stable anchor
	anchor, err = idx.ResolveAnchor(context.Background(), "s1", "a1", "", "")
	assert.NoError(t, err)
	assert.Equal(t, InsightID("i1"), anchor.ID)
}

func TestDedupIndex_ResolveAnchorFiltersByClass(t *testing.T) {
	now := time.Now().UTC()
	other := activeInsight("i1", TypeCheckIn, "class-b", now.Add(-time.Hour))
	match := activeInsight("i2", TypeMonitor, "class-a", now)
	repo := &stubRepo{insights: []*Insight{other, match}}

	anchor, err := NewDedupIndex(repo).ResolveAnchor(context.Background(), "s1", "a1", "class-a", "")
	assert.NoError(t, err)
	assert.Equal(t, InsightID("i2"), anchor.ID)

	// nothing matches the class: no anchor, no error
	anchor, err = NewDedupIndex(repo).ResolveAnchor(context.Background(), "s1", "a1", "class-c", "")
	assert.NoError(t, err)
	assert.Nil(t, anchor)
}
