package insight

import (
	"context"
	"fmt"

	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEDUP INDEX
// Доменный сервис поверх репозитория: проверки существования активных
// инсайтов. Используется генератором перед каждой вставкой и регистратором
// действий перед синтезом якорного инсайта.
// ══════════════════════════════════════════════════════════════════════════════

// DedupIndex отвечает на вопросы о существовании активных инсайтов.
type DedupIndex struct {
	repo Repository
}

// NewDedupIndex создаёт индекс дедупликации.
func NewDedupIndex(repo Repository) *DedupIndex {
	return &DedupIndex{repo: repo}
}

// Exists проверяет, существует ли активный инсайт для тройки
// (студент, задание, тип).
func (d *DedupIndex) Exists(ctx context.Context, studentID, assignmentID string, t Type) (bool, error) {
	ins, err := d.FindExisting(ctx, studentID, assignmentID, t)
	if err != nil {
		return false, err
	}
	return ins != nil, nil
}

// FindExisting возвращает активный инсайт для тройки (студент, задание, тип)
// или nil, если такого нет. Отсутствие записи — не ошибка.
func (d *DedupIndex) FindExisting(ctx context.Context, studentID, assignmentID string, t Type) (*Insight, error) {
	ins, err := d.repo.FindActiveByTriple(ctx, studentID, assignmentID, t)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dedup: find existing: %w", err)
	}
	return ins, nil
}

// ActiveSet возвращает активные инсайты пары (студент, задание),
// сгруппированные по типу — форма, которую потребляет генератор.
func (d *DedupIndex) ActiveSet(ctx context.Context, studentID, assignmentID string) (map[Type]*Insight, error) {
	list, err := d.repo.FindActiveByStudentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return map[Type]*Insight{}, nil
		}
		return nil, fmt.Errorf("dedup: active set: %w", err)
	}

	set := make(map[Type]*Insight, len(list))
	for _, ins := range list {
		// При гонке дубликатов тройки берём самый старый — стабильный выбор.
		if existing, ok := set[ins.Type]; ok && existing.CreatedAt.Before(ins.CreatedAt) {
			continue
		}
		set[ins.Type] = ins
	}
	return set, nil
}

// ResolveAnchor подбирает активный инсайт-якорь для действия учителя без
// явного инсайта: среди активных инсайтов пары (студент, задание) с
// совпадающим классом сначала ищется совпадение по типу (если он подсказан),
// иначе берётся самый старый активный — стабильный якорь для повторных
// заметок. Возвращает nil, если подходящего якоря нет.
func (d *DedupIndex) ResolveAnchor(ctx context.Context, studentID, assignmentID, classID string, hint Type) (*Insight, error) {
	list, err := d.repo.FindActiveByStudentAssignment(ctx, studentID, assignmentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("dedup: resolve anchor: %w", err)
	}

	var oldest *Insight
	for _, ins := range list {
		if classID != "" && ins.ClassID != "" && ins.ClassID != classID {
			continue
		}
		if hint != "" && ins.Type == hint {
			return ins, nil
		}
		if oldest == nil || ins.CreatedAt.Before(oldest.CreatedAt) {
			oldest = ins
		}
	}
	return oldest, nil
}
