// Package memory provides in-memory repository implementations.
// They back unit tests and the worker's storage-less mode, and honor the
// same contracts as the postgres implementations: clones cross the
// boundary in both directions, so callers never share entity memory
// with the store.
package memory

import (
	"context"
	"sync"

	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// InsightRepository is an in-memory insight store.
type InsightRepository struct {
	mu       sync.RWMutex
	insights map[insight.InsightID]*insight.Insight
}

// NewInsightRepository creates an empty in-memory insight store.
func NewInsightRepository() *InsightRepository {
	return &InsightRepository{
		insights: make(map[insight.InsightID]*insight.Insight),
	}
}

// Save upserts an insight by ID.
func (r *InsightRepository) Save(_ context.Context, ins *insight.Insight) error {
	if ins == nil {
		return shared.NewDomainError("insight", "Save", shared.ErrInvalidInput, "insight is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.insights[ins.ID] = ins.Clone()
	return nil
}

// Load returns the insight with the given ID.
func (r *InsightRepository) Load(_ context.Context, id insight.InsightID) (*insight.Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ins, ok := r.insights[id]
	if !ok {
		return nil, shared.ErrInsightNotFound
	}
	return ins.Clone(), nil
}

// Query returns insights matching the filter in default order.
func (r *InsightRepository) Query(_ context.Context, filter insight.Filter) ([]*insight.Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*insight.Insight, 0)
	for _, ins := range r.insights {
		if filter.Matches(ins) {
			matched = append(matched, ins.Clone())
		}
	}

	insight.SortDefault(matched)
	return insight.ApplyPage(matched, filter.Limit, filter.Offset), nil
}

// FindActiveByTriple returns the active insight for (student, assignment, type),
// or nil when none exists.
func (r *InsightRepository) FindActiveByTriple(
	_ context.Context,
	studentID, assignmentID string,
	t insight.Type,
) (*insight.Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ins := range r.insights {
		if ins.StudentID == studentID &&
			ins.AssignmentID == assignmentID &&
			ins.Type == t &&
			ins.IsActive() {
			return ins.Clone(), nil
		}
	}
	return nil, nil
}

// FindActiveByStudentAssignment returns all active insights of the pair.
func (r *InsightRepository) FindActiveByStudentAssignment(
	_ context.Context,
	studentID, assignmentID string,
) ([]*insight.Insight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*insight.Insight, 0)
	for _, ins := range r.insights {
		if ins.StudentID == studentID &&
			ins.AssignmentID == assignmentID &&
			ins.IsActive() {
			matched = append(matched, ins.Clone())
		}
	}

	insight.SortDefault(matched)
	return matched, nil
}
