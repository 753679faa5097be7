package roster

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Справочные данные потребляются движком почти только на чтение;
// единственная запись — дозапись заметок студента.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции справочного хранилища.
type Repository interface {
	// GetStudent возвращает студента по ID.
	// Возвращает shared.ErrStudentNotFound, если студент не найден.
	GetStudent(ctx context.Context, id string) (*Student, error)

	// SaveStudent сохраняет студента (upsert по ID). Используется движком
	// для дозаписи заметок.
	SaveStudent(ctx context.Context, s *Student) error

	// GetAssignment возвращает задание по ID.
	// Возвращает shared.ErrAssignmentNotFound, если задание не найдено.
	GetAssignment(ctx context.Context, id string) (*Assignment, error)

	// SaveAssignment сохраняет задание (upsert по ID).
	SaveAssignment(ctx context.Context, a *Assignment) error

	// GetClass возвращает класс по ID.
	// Возвращает shared.ErrClassNotFound, если класс не найден.
	GetClass(ctx context.Context, id string) (*Class, error)

	// SaveClass сохраняет класс (upsert по ID).
	SaveClass(ctx context.Context, c *Class) error

	// ListStudentsByClass возвращает студентов класса.
	ListStudentsByClass(ctx context.Context, classID string) ([]*Student, error)
}
