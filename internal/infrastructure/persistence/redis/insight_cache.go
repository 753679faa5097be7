package redis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/classpulse/insight-engine/internal/domain/insight"
)

// CachedInsightRepository is a read-through decorator over an
// insight.Repository. Single-record and active-set lookups are served
// from Redis when possible; every cache failure degrades to the wrapped
// repository, so a Redis outage costs latency, never correctness.
type CachedInsightRepository struct {
	repo   insight.Repository
	cache  *Cache
	logger *slog.Logger
}

// NewCachedInsightRepository wraps a repository with Redis caching.
func NewCachedInsightRepository(repo insight.Repository, cache *Cache, logger *slog.Logger) *CachedInsightRepository {
	return &CachedInsightRepository{
		repo:   repo,
		cache:  cache,
		logger: logger.With("component", "insight_cache"),
	}
}

// Save delegates to the wrapped repository and invalidates every cached
// lookup that could now be stale for the insight's student.
func (r *CachedInsightRepository) Save(ctx context.Context, ins *insight.Insight) error {
	if err := r.repo.Save(ctx, ins); err != nil {
		return err
	}

	if ins != nil {
		r.invalidate(ctx, ins)
	}
	return nil
}

// Load returns the insight with the given ID, from cache when possible.
func (r *CachedInsightRepository) Load(ctx context.Context, id insight.InsightID) (*insight.Insight, error) {
	key := InsightKey(string(id))

	var cached insight.Insight
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn("insight cache read failed, falling back to store", "error", err)
	}

	ins, err := r.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if setErr := r.cache.Set(ctx, key, ins, TTLInsightCache); setErr != nil {
		r.logger.Warn("insight cache write failed", "error", setErr)
	}
	return ins, nil
}

// Query always goes to the wrapped repository: filters vary too much for
// keyed caching to pay off.
func (r *CachedInsightRepository) Query(ctx context.Context, filter insight.Filter) ([]*insight.Insight, error) {
	return r.repo.Query(ctx, filter)
}

// FindActiveByTriple returns the active insight for (student, assignment, type).
// Only hits are cached; a nil result must stay visible to deduplication
// as soon as a new insight lands.
func (r *CachedInsightRepository) FindActiveByTriple(
	ctx context.Context,
	studentID, assignmentID string,
	t insight.Type,
) (*insight.Insight, error) {
	key := TripleKey(studentID, assignmentID, string(t))

	var cached insight.Insight
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn("insight cache read failed, falling back to store", "error", err)
	}

	ins, err := r.repo.FindActiveByTriple(ctx, studentID, assignmentID, t)
	if err != nil || ins == nil {
		return ins, err
	}

	if setErr := r.cache.Set(ctx, key, ins, TTLInsightCache); setErr != nil {
		r.logger.Warn("insight cache write failed", "error", setErr)
	}
	return ins, nil
}

// FindActiveByStudentAssignment returns all active insights of the pair,
// from cache when possible.
func (r *CachedInsightRepository) FindActiveByStudentAssignment(
	ctx context.Context,
	studentID, assignmentID string,
) ([]*insight.Insight, error) {
	key := PairKey(studentID, assignmentID)

	var cached []*insight.Insight
	err := r.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn("insight cache read failed, falling back to store", "error", err)
	}

	insights, err := r.repo.FindActiveByStudentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		return nil, err
	}

	if setErr := r.cache.Set(ctx, key, insights, TTLInsightCache); setErr != nil {
		r.logger.Warn("insight cache write failed", "error", setErr)
	}
	return insights, nil
}

func (r *CachedInsightRepository) invalidate(ctx context.Context, ins *insight.Insight) {
	keys := []string{
		InsightKey(string(ins.ID)),
		TripleKey(ins.StudentID, ins.AssignmentID, string(ins.Type)),
		PairKey(ins.StudentID, ins.AssignmentID),
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("insight cache invalidation failed", "error", err)
	}
}
