package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

type progressKey struct {
	studentID    string
	assignmentID string
}

// ProgressRepository is an in-memory progress store keyed by
// (student, assignment).
type ProgressRepository struct {
	mu      sync.RWMutex
	records map[progressKey]*progress.Record
}

// NewProgressRepository creates an empty in-memory progress store.
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{
		records: make(map[progressKey]*progress.Record),
	}
}

// Load returns the progress record of the pair.
func (r *ProgressRepository) Load(_ context.Context, studentID, assignmentID string) (*progress.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[progressKey{studentID, assignmentID}]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return rec.Clone(), nil
}

// Save upserts a record by its composite key.
func (r *ProgressRepository) Save(_ context.Context, rec *progress.Record) error {
	if rec == nil {
		return shared.NewDomainError("progress", "Save", shared.ErrInvalidInput, "progress record is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[progressKey{rec.StudentID, rec.AssignmentID}] = rec.Clone()
	return nil
}

// ListByAssignment returns all progress records of the assignment.
func (r *ProgressRepository) ListByAssignment(_ context.Context, assignmentID string) ([]*progress.Record, error) {
	return r.collect(func(rec *progress.Record) bool {
		return rec.AssignmentID == assignmentID
	}), nil
}

// ListByStudent returns all progress records of the student.
func (r *ProgressRepository) ListByStudent(_ context.Context, studentID string) ([]*progress.Record, error) {
	return r.collect(func(rec *progress.Record) bool {
		return rec.StudentID == studentID
	}), nil
}

func (r *ProgressRepository) collect(match func(*progress.Record) bool) []*progress.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*progress.Record, 0)
	for _, rec := range r.records {
		if match(rec) {
			matched = append(matched, rec.Clone())
		}
	}

	// Deterministic order keeps aggregation output stable across runs.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StudentID != matched[j].StudentID {
			return matched[i].StudentID < matched[j].StudentID
		}
		return matched[i].AssignmentID < matched[j].AssignmentID
	})
	return matched
}
