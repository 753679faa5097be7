package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ActionRepository is an in-memory teacher action store.
type ActionRepository struct {
	mu      sync.RWMutex
	actions map[string]*action.TeacherAction
}

// NewActionRepository creates an empty in-memory action store.
func NewActionRepository() *ActionRepository {
	return &ActionRepository{
		actions: make(map[string]*action.TeacherAction),
	}
}

// Save upserts an action by ID.
func (r *ActionRepository) Save(_ context.Context, act *action.TeacherAction) error {
	if act == nil {
		return shared.NewDomainError("action", "Save", shared.ErrInvalidInput, "teacher action is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *act
	r.actions[act.ID] = &clone
	return nil
}

// GetByID returns the action with the given ID.
func (r *ActionRepository) GetByID(_ context.Context, id string) (*action.TeacherAction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	act, ok := r.actions[id]
	if !ok {
		return nil, shared.ErrActionNotFound
	}
	clone := *act
	return &clone, nil
}

// GetByInsight returns actions anchored to the insight, newest first.
func (r *ActionRepository) GetByInsight(_ context.Context, insightID string) ([]*action.TeacherAction, error) {
	return r.collect(func(act *action.TeacherAction) bool {
		return act.InsightID == insightID
	}, 0), nil
}

// GetByTeacher returns actions of the teacher, newest first.
func (r *ActionRepository) GetByTeacher(_ context.Context, teacherID string) ([]*action.TeacherAction, error) {
	return r.collect(func(act *action.TeacherAction) bool {
		return act.TeacherID == teacherID
	}, 0), nil
}

// GetRecent returns the latest actions across all teachers, newest first.
func (r *ActionRepository) GetRecent(_ context.Context, limit int) ([]*action.TeacherAction, error) {
	return r.collect(func(*action.TeacherAction) bool { return true }, limit), nil
}

func (r *ActionRepository) collect(match func(*action.TeacherAction) bool, limit int) []*action.TeacherAction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*action.TeacherAction, 0)
	for _, act := range r.actions {
		if match(act) {
			clone := *act
			matched = append(matched, &clone)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched
}
