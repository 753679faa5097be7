package insight

import (
	"context"
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт хранилища инсайтов. Реализации находятся в
// infrastructure/persistence (postgres, memory, redis-декоратор).
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранилища инсайтов.
type Repository interface {
	// Save сохраняет инсайт (upsert по ID). Повторное сохранение той же
	// записи перезаписывает её, это основа идемпотентности записей.
	Save(ctx context.Context, ins *Insight) error

	// Load возвращает инсайт по ID.
	// Возвращает shared.ErrInsightNotFound, если инсайт не найден.
	Load(ctx context.Context, id InsightID) (*Insight, error)

	// Query возвращает инсайты по фильтру, отсортированные порядком
	// по умолчанию (см. SortDefault).
	Query(ctx context.Context, filter Filter) ([]*Insight, error)

	// FindActiveByTriple возвращает активный инсайт для тройки
	// (студент, задание, тип) или nil, если такого нет.
	FindActiveByTriple(ctx context.Context, studentID, assignmentID string, t Type) (*Insight, error)

	// FindActiveByStudentAssignment возвращает все активные инсайты
	// пары (студент, задание).
	FindActiveByStudentAssignment(ctx context.Context, studentID, assignmentID string) ([]*Insight, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// FILTER
// ══════════════════════════════════════════════════════════════════════════════

// Filter содержит условия выборки инсайтов. Нулевые значения означают
// отсутствие условия.
type Filter struct {
	// StudentID - фильтр по студенту.
	StudentID string

	// ClassID - фильтр по классу.
	ClassID string

	// AssignmentID - фильтр по заданию.
	AssignmentID string

	// Subject - фильтр по предмету.
	Subject string

	// Types - допустимые типы (пустой срез = любые).
	Types []Type

	// Priorities - допустимые приоритеты (пустой срез = любые).
	Priorities []Priority

	// Statuses - допустимые статусы (пустой срез = любые).
	Statuses []Status

	// MinConfidence - минимальная уверенность (0 = без ограничения).
	MinConfidence float64

	// CreatedAfter - нижняя граница времени создания.
	CreatedAfter time.Time

	// CreatedBefore - верхняя граница времени создания.
	CreatedBefore time.Time

	// ReviewedBy - фильтр по учителю, отреагировавшему на инсайт.
	ReviewedBy string

	// Limit - максимум записей (0 = без ограничения).
	Limit int

	// Offset - смещение для пагинации.
	Offset int
}

// Matches проверяет, проходит ли инсайт фильтр.
func (f Filter) Matches(ins *Insight) bool {
	if ins == nil {
		return false
	}
	if f.StudentID != "" && ins.StudentID != f.StudentID {
		return false
	}
	if f.ClassID != "" && ins.ClassID != f.ClassID {
		return false
	}
	if f.AssignmentID != "" && ins.AssignmentID != f.AssignmentID {
		return false
	}
	if f.Subject != "" && ins.Subject != f.Subject {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, ins.Type) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, ins.Priority) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, ins.Status) {
		return false
	}
	if f.MinConfidence > 0 && ins.Confidence < f.MinConfidence {
		return false
	}
	if !f.CreatedAfter.IsZero() && ins.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && ins.CreatedAt.After(f.CreatedBefore) {
		return false
	}
	if f.ReviewedBy != "" && ins.ReviewedBy != f.ReviewedBy {
		return false
	}
	return true
}

// ActiveFilter возвращает фильтр по активным статусам.
func ActiveFilter() Filter {
	return Filter{Statuses: ActiveStatuses()}
}

// PendingFilter возвращает фильтр по статусу pending_review.
func PendingFilter() Filter {
	return Filter{Statuses: []Status{StatusPendingReview}}
}

func containsType(list []Type, t Type) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsPriority(list []Priority, p Priority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULT SORT
// Порядок выдачи по умолчанию: приоритет по убыванию, затем важность типа
// по убыванию, затем уверенность по убыванию. Сортировка стабильная.
// ══════════════════════════════════════════════════════════════════════════════

// Less сравнивает два инсайта порядком выдачи по умолчанию.
func Less(a, b *Insight) bool {
	if a.Priority.Rank() != b.Priority.Rank() {
		return a.Priority.Rank() > b.Priority.Rank()
	}
	if a.Type.Rank() != b.Type.Rank() {
		return a.Type.Rank() > b.Type.Rank()
	}
	return a.Confidence > b.Confidence
}

// SortDefault сортирует инсайты порядком выдачи по умолчанию (на месте).
func SortDefault(list []*Insight) {
	sort.SliceStable(list, func(i, j int) bool {
		return Less(list[i], list[j])
	})
}

// ApplyPage применяет limit/offset к уже отсортированному срезу.
func ApplyPage(list []*Insight, limit, offset int) []*Insight {
	if offset > 0 {
		if offset >= len(list) {
			return []*Insight{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
