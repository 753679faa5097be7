package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/classpulse/insight-engine/internal/domain/roster"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// RosterRepository is an in-memory reference data store for students,
// assignments and classes.
type RosterRepository struct {
	mu          sync.RWMutex
	students    map[string]*roster.Student
	assignments map[string]*roster.Assignment
	classes     map[string]*roster.Class
}

// NewRosterRepository creates an empty in-memory roster store.
func NewRosterRepository() *RosterRepository {
	return &RosterRepository{
		students:    make(map[string]*roster.Student),
		assignments: make(map[string]*roster.Assignment),
		classes:     make(map[string]*roster.Class),
	}
}

// GetStudent returns the student with the given ID.
func (r *RosterRepository) GetStudent(_ context.Context, id string) (*roster.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	clone := *s
	return &clone, nil
}

// SaveStudent upserts a student by ID.
func (r *RosterRepository) SaveStudent(_ context.Context, s *roster.Student) error {
	if s == nil {
		return shared.NewDomainError("roster", "SaveStudent", shared.ErrInvalidInput, "student is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *s
	r.students[s.ID] = &clone
	return nil
}

// GetAssignment returns the assignment with the given ID.
func (r *RosterRepository) GetAssignment(_ context.Context, id string) (*roster.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assignments[id]
	if !ok {
		return nil, shared.ErrAssignmentNotFound
	}
	clone := *a
	return &clone, nil
}

// SaveAssignment upserts an assignment by ID.
func (r *RosterRepository) SaveAssignment(_ context.Context, a *roster.Assignment) error {
	if a == nil {
		return shared.NewDomainError("roster", "SaveAssignment", shared.ErrInvalidInput, "assignment is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *a
	r.assignments[a.ID] = &clone
	return nil
}

// GetClass returns the class with the given ID.
func (r *RosterRepository) GetClass(_ context.Context, id string) (*roster.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.classes[id]
	if !ok {
		return nil, shared.ErrClassNotFound
	}
	clone := *c
	return &clone, nil
}

// SaveClass upserts a class by ID.
func (r *RosterRepository) SaveClass(_ context.Context, c *roster.Class) error {
	if c == nil {
		return shared.NewDomainError("roster", "SaveClass", shared.ErrInvalidInput, "class is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *c
	r.classes[c.ID] = &clone
	return nil
}

// ListStudentsByClass returns the students of the class ordered by name.
func (r *RosterRepository) ListStudentsByClass(_ context.Context, classID string) ([]*roster.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*roster.Student, 0)
	for _, s := range r.students {
		if s.ClassID == classID {
			clone := *s
			matched = append(matched, &clone)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].DisplayName < matched[j].DisplayName
	})
	return matched, nil
}
