package badge

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища значков.
type Repository interface {
	// Save сохраняет значок (upsert по ID).
	Save(ctx context.Context, b *Badge) error

	// GetByID возвращает значок по ID.
	// Возвращает shared.ErrBadgeNotFound, если значок не найден.
	GetByID(ctx context.Context, id string) (*Badge, error)

	// GetByStudent возвращает значки студента, новые первыми.
	GetByStudent(ctx context.Context, studentID string) ([]*Badge, error)

	// GetRecent возвращает последние выданные значки, новые первыми.
	GetRecent(ctx context.Context, limit int) ([]*Badge, error)
}
