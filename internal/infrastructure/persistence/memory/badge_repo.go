package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/classpulse/insight-engine/internal/domain/badge"
	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// BadgeRepository is an in-memory badge store.
type BadgeRepository struct {
	mu     sync.RWMutex
	badges map[string]*badge.Badge
}

// NewBadgeRepository creates an empty in-memory badge store.
func NewBadgeRepository() *BadgeRepository {
	return &BadgeRepository{
		badges: make(map[string]*badge.Badge),
	}
}

// Save upserts a badge by ID.
func (r *BadgeRepository) Save(_ context.Context, b *badge.Badge) error {
	if b == nil {
		return shared.NewDomainError("badge", "Save", shared.ErrInvalidInput, "badge is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *b
	r.badges[b.ID] = &clone
	return nil
}

// GetByID returns the badge with the given ID.
func (r *BadgeRepository) GetByID(_ context.Context, id string) (*badge.Badge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.badges[id]
	if !ok {
		return nil, shared.ErrBadgeNotFound
	}
	clone := *b
	return &clone, nil
}

// GetByStudent returns the badges of the student, newest first.
func (r *BadgeRepository) GetByStudent(_ context.Context, studentID string) ([]*badge.Badge, error) {
	return r.collect(func(b *badge.Badge) bool {
		return b.StudentID == studentID
	}, 0), nil
}

// GetRecent returns the latest issued badges, newest first.
func (r *BadgeRepository) GetRecent(_ context.Context, limit int) ([]*badge.Badge, error) {
	return r.collect(func(*badge.Badge) bool { return true }, limit), nil
}

func (r *BadgeRepository) collect(match func(*badge.Badge) bool, limit int) []*badge.Badge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*badge.Badge, 0)
	for _, b := range r.badges {
		if match(b) {
			clone := *b
			matched = append(matched, &clone)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].IssuedAt.After(matched[j].IssuedAt)
	})

	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched
}
