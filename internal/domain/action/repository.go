package action

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт хранилища действий учителя. Все выборки возвращают записи
// от новых к старым.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища действий учителя.
type Repository interface {
	// Save сохраняет действие (upsert по ID). Повторная отправка той же
	// записи — безвредная перезапись, не дубликат.
	Save(ctx context.Context, act *TeacherAction) error

	// GetByID возвращает действие по ID.
	// Возвращает shared.ErrActionNotFound, если запись не найдена.
	GetByID(ctx context.Context, id string) (*TeacherAction, error)

	// GetByInsight возвращает действия по инсайту, новые первыми.
	GetByInsight(ctx context.Context, insightID string) ([]*TeacherAction, error)

	// GetByTeacher возвращает действия учителя, новые первыми.
	GetByTeacher(ctx context.Context, teacherID string) ([]*TeacherAction, error)

	// GetRecent возвращает последние действия всех учителей, новые первыми.
	GetRecent(ctx context.Context, limit int) ([]*TeacherAction, error)
}
