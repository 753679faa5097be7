package progress

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт хранилища прогресса. Ключ составной: (студент, задание).
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища прогресса.
type Repository interface {
	// Load возвращает запись прогресса пары (студент, задание).
	// Возвращает shared.ErrProgressNotFound, если записи нет.
	Load(ctx context.Context, studentID, assignmentID string) (*Record, error)

	// Save сохраняет запись (upsert по составному ключу).
	Save(ctx context.Context, rec *Record) error

	// ListByAssignment возвращает все записи прогресса по заданию.
	ListByAssignment(ctx context.Context, assignmentID string) ([]*Record, error)

	// ListByStudent возвращает все записи прогресса студента.
	ListByStudent(ctx context.Context, studentID string) ([]*Record, error)
}
