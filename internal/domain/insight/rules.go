// Package insight содержит доменную модель инсайтов ClassPulse.
package insight

import (
	"errors"
	"fmt"
	"math"

	"github.com/classpulse/insight-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// THRESHOLDS
// Единственный канонический набор порогов движка. Правила генерации, уточнение
// рекомендаций в очереди и классификация уровня понимания обязаны использовать
// эти значения и не имеют права заводить собственные копии.
// ══════════════════════════════════════════════════════════════════════════════

// Thresholds содержит пороги всех правил движка.
type Thresholds struct {
	// StrugglingScore - балл, ниже которого студент считается в зоне риска.
	StrugglingScore float64

	// DevelopingScore - верхняя граница диапазона "осваивает материал".
	DevelopingScore float64

	// ExcellingScore - балл, с которого студент считается отличником.
	ExcellingScore float64

	// CriticalScore - балл, ниже которого check_in получает высокий приоритет.
	CriticalScore float64

	// HeavyHintRate - доля вопросов с подсказками, считающаяся чрезмерной.
	HeavyHintRate float64

	// MinimalHintRate - доля подсказок, считающаяся незначительной.
	MinimalHintRate float64

	// SignificantImprovement - минимальный рост балла для celebrate_progress.
	SignificantImprovement float64

	// MajorImprovement - рост балла, дающий celebrate_progress высокий приоритет.
	MajorImprovement float64

	// HeavyCoachSessions - количество коуч-сессий, попадающее в доказательства.
	HeavyCoachSessions int
}

// DefaultThresholds возвращает канонические пороги движка.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StrugglingScore:        40,
		DevelopingScore:        70,
		ExcellingScore:         90,
		CriticalScore:          30,
		HeavyHintRate:          0.6,
		MinimalHintRate:        0.1,
		SignificantImprovement: 20,
		MajorImprovement:       30,
		HeavyCoachSessions:     5,
	}
}

// Уверенность движка по типам правил.
const (
	confidenceCheckIn   = 0.85
	confidenceCelebrate = 0.90
	confidenceChallenge = 0.85
	confidenceMonitor   = 0.75
)

// ══════════════════════════════════════════════════════════════════════════════
// UNDERSTANDING LEVEL
// Презентационная классификация для дашбордов. Выводится совместно из балла
// и доли подсказок — никогда из одного измерения. Инсайтов не создаёт.
// ══════════════════════════════════════════════════════════════════════════════

// UnderstandingLevel определяет уровень освоения материала студентом.
type UnderstandingLevel string

const (
	// UnderstandingStrong - материал освоен уверенно, почти без подсказок.
	UnderstandingStrong UnderstandingLevel = "strong"

	// UnderstandingDeveloping - материал в процессе освоения.
	UnderstandingDeveloping UnderstandingLevel = "developing"

	// UnderstandingNeedsSupport - студенту нужна поддержка.
	UnderstandingNeedsSupport UnderstandingLevel = "needs_support"
)

// IsValid проверяет корректность уровня.
func (u UnderstandingLevel) IsValid() bool {
	switch u {
	case UnderstandingStrong, UnderstandingDeveloping, UnderstandingNeedsSupport:
		return true
	default:
		return false
	}
}

// Rank возвращает порядок уровня в ростере: нуждающиеся в поддержке первыми.
func (u UnderstandingLevel) Rank() int {
	switch u {
	case UnderstandingNeedsSupport:
		return 0
	case UnderstandingDeveloping:
		return 1
	case UnderstandingStrong:
		return 2
	default:
		return 3
	}
}

// String возвращает строковое представление уровня.
func (u UnderstandingLevel) String() string {
	return string(u)
}

// ClassifyUnderstanding определяет уровень понимания по баллу и доле подсказок.
func (t Thresholds) ClassifyUnderstanding(score, hintRate float64) UnderstandingLevel {
	s := shared.Score(score).Clamp().Float()
	r := shared.HintRate(hintRate).Clamp().Float()

	if s < t.StrugglingScore || (r > t.HeavyHintRate && s < t.DevelopingScore) {
		return UnderstandingNeedsSupport
	}
	if s >= t.DevelopingScore && r <= t.MinimalHintRate {
		return UnderstandingStrong
	}
	return UnderstandingDeveloping
}

// ══════════════════════════════════════════════════════════════════════════════
// RULE INPUT
// ══════════════════════════════════════════════════════════════════════════════

// RuleInput содержит снимок измерений одного события производительности.
type RuleInput struct {
	// StudentID - ID студента.
	StudentID string

	// AssignmentID - ID задания (может быть пустым для свободной практики).
	AssignmentID string

	// ClassID - ID класса студента.
	ClassID string

	// Subject - предмет задания.
	Subject string

	// QuestionCount - количество вопросов в задании.
	QuestionCount int

	// Score - балл завершённой попытки (0-100).
	Score float64

	// HintUsageRate - доля вопросов с подсказками (0-1).
	HintUsageRate float64

	// CoachSessionsUsed - сколько коуч-сессий студент провёл по заданию.
	CoachSessionsUsed int

	// Attempts - номер завершённой попытки.
	Attempts int

	// PreviousHighestScore - лучший балл до этой попытки (nil = попытка первая).
	PreviousHighestScore *float64
}

// Validate проверяет корректность входных измерений.
// Значения вне диапазонов не отклоняются, а приводятся при оценке.
func (in RuleInput) Validate() error {
	if in.StudentID == "" {
		return ErrEmptyStudentID
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERATOR
// Канонический набор правил генерации инсайтов. Правила оцениваются независимо
// и в фиксированном порядке; срабатывают все подходящие. Единственная точка
// ввода-вывода — переданный набор активных инсайтов (дедупликация) и
// генератор идентификаторов.
// ══════════════════════════════════════════════════════════════════════════════

// Generator оценивает правила генерации инсайтов.
type Generator struct {
	thresholds Thresholds
	idGen      shared.IDGenerator
}

// NewGenerator создаёт генератор с заданными порогами.
func NewGenerator(thresholds Thresholds, idGen shared.IDGenerator) *Generator {
	return &Generator{
		thresholds: thresholds,
		idGen:      idGen,
	}
}

// Thresholds возвращает пороги генератора.
func (g *Generator) Thresholds() Thresholds {
	return g.thresholds
}

// Evaluate оценивает все правила для одного события.
// active — активные инсайты студента по заданию, сгруппированные по типу;
// правило не срабатывает, если активный инсайт его типа уже существует.
// Возвращает новые инсайты в порядке оценки правил, все со статусом
// pending_review.
func (g *Generator) Evaluate(in RuleInput, active map[Type]*Insight) ([]*Insight, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if g.idGen == nil {
		return nil, ErrNoIDGenerator
	}

	score := shared.Score(in.Score).Clamp()
	rate := shared.HintRate(in.HintUsageRate).Clamp()
	hasActiveCheckIn := active[TypeCheckIn] != nil

	var results []*Insight

	// Правило 1: check_in — студенту нужна поддержка.
	if active[TypeCheckIn] == nil {
		if ins, err := g.evaluateCheckIn(in, score, rate); err != nil {
			return nil, err
		} else if ins != nil {
			results = append(results, ins)
		}
	}

	// Правило 2: celebrate_progress — значительное улучшение.
	if active[TypeCelebrateProgress] == nil {
		if ins, err := g.evaluateCelebrateProgress(in, score); err != nil {
			return nil, err
		} else if ins != nil {
			results = append(results, ins)
		}
	}

	// Правило 3: challenge_opportunity — готовность к большему.
	if active[TypeChallengeOpportunity] == nil {
		if ins, err := g.evaluateChallengeOpportunity(in, score, rate); err != nil {
			return nil, err
		} else if ins != nil {
			results = append(results, ins)
		}
	}

	// Правило 4: monitor — неровный прогресс. Не срабатывает при активном
	// check_in: наблюдение поверх запроса поддержки избыточно.
	if active[TypeMonitor] == nil && !hasActiveCheckIn {
		if ins, err := g.evaluateMonitor(in, score, rate); err != nil {
			return nil, err
		} else if ins != nil {
			results = append(results, ins)
		}
	}

	return results, nil
}

// evaluateCheckIn оценивает правило check_in: низкий балл либо тяжёлая
// зависимость от подсказок при балле ниже диапазона освоения.
func (g *Generator) evaluateCheckIn(in RuleInput, score shared.Score, rate shared.HintRate) (*Insight, error) {
	t := g.thresholds

	lowScore := score.Float() < t.StrugglingScore
	heavyHints := rate.Float() > t.HeavyHintRate && score.Float() < t.DevelopingScore
	if !lowScore && !heavyHints {
		return nil, nil
	}

	priority := PriorityMedium
	if score.Float() < t.CriticalScore {
		priority = PriorityHigh
	}

	var evidence []string
	if lowScore {
		evidence = append(evidence, fmt.Sprintf("Score of %d%% is below expected threshold", score.Rounded()))
	}
	if rate.Float() > t.HeavyHintRate {
		evidence = append(evidence, fmt.Sprintf("Used hints on %d%% of questions", rate.Percent()))
	}
	evidence = g.appendCoachEvidence(evidence, in.CoachSessionsUsed)

	return g.build(in, TypeCheckIn, priority, confidenceCheckIn, evidence)
}

// evaluateCelebrateProgress оценивает правило celebrate_progress: рост
// относительно лучшего предыдущего балла.
func (g *Generator) evaluateCelebrateProgress(in RuleInput, score shared.Score) (*Insight, error) {
	t := g.thresholds

	if in.PreviousHighestScore == nil {
		return nil, nil
	}
	prev := shared.Score(*in.PreviousHighestScore).Clamp()
	delta := score.Float() - prev.Float()
	if delta < t.SignificantImprovement {
		return nil, nil
	}

	priority := PriorityMedium
	if delta >= t.MajorImprovement {
		priority = PriorityHigh
	}

	evidence := []string{
		fmt.Sprintf("Score improved from %d%% to %d%%", prev.Rounded(), score.Rounded()),
		fmt.Sprintf("An improvement of %d points over the previous best", int(math.Round(delta))),
	}

	return g.build(in, TypeCelebrateProgress, priority, confidenceCelebrate, evidence)
}

// evaluateChallengeOpportunity оценивает правило challenge_opportunity:
// отличный балл почти без подсказок.
func (g *Generator) evaluateChallengeOpportunity(in RuleInput, score shared.Score, rate shared.HintRate) (*Insight, error) {
	t := g.thresholds

	if score.Float() < t.ExcellingScore || rate.Float() > t.MinimalHintRate {
		return nil, nil
	}

	evidence := []string{
		fmt.Sprintf("Score of %d%% meets the excelling threshold", score.Rounded()),
		fmt.Sprintf("Completed with minimal hint support (%d%% of questions)", rate.Percent()),
	}

	return g.build(in, TypeChallengeOpportunity, PriorityMedium, confidenceChallenge, evidence)
}

// evaluateMonitor оценивает правило monitor: несколько попыток подряд
// в среднем диапазоне.
func (g *Generator) evaluateMonitor(in RuleInput, score shared.Score, rate shared.HintRate) (*Insight, error) {
	t := g.thresholds

	if in.Attempts <= 2 {
		return nil, nil
	}
	if score.Float() < t.StrugglingScore || score.Float() >= t.DevelopingScore {
		return nil, nil
	}

	evidence := []string{
		fmt.Sprintf("Score of %d%% after %d attempts", score.Rounded(), in.Attempts),
		"Performance has stayed in the developing range across attempts",
	}
	evidence = g.appendCoachEvidence(evidence, in.CoachSessionsUsed)

	return g.build(in, TypeMonitor, PriorityLow, confidenceMonitor, evidence)
}

// appendCoachEvidence добавляет факт о тяжёлом использовании коуча.
// На условия срабатывания правил не влияет.
func (g *Generator) appendCoachEvidence(evidence []string, sessions int) []string {
	if sessions >= g.thresholds.HeavyCoachSessions {
		evidence = append(evidence, fmt.Sprintf("Needed %d coach sessions to get through the material", sessions))
	}
	return evidence
}

// build собирает инсайт из результата правила.
func (g *Generator) build(in RuleInput, t Type, priority Priority, confidence float64, evidence []string) (*Insight, error) {
	return NewInsight(NewInsightParams{
		ID:               InsightID(g.idGen.NewID()),
		StudentID:        in.StudentID,
		AssignmentID:     in.AssignmentID,
		ClassID:          in.ClassID,
		Subject:          in.Subject,
		Type:             t,
		Priority:         priority,
		Confidence:       confidence,
		Summary:          summaryFor(t),
		Evidence:         evidence,
		SuggestedActions: SuggestedActionsFor(t),
	})
}

// summaryFor возвращает краткое описание для типа инсайта.
func summaryFor(t Type) string {
	switch t {
	case TypeCheckIn:
		return "Student is struggling with this assignment and may need direct support"
	case TypeCelebrateProgress:
		return "Student improved significantly over their previous best score"
	case TypeChallengeOpportunity:
		return "Student mastered this material with minimal support and is ready for more"
	case TypeMonitor:
		return "Student is making repeated attempts with middling results"
	default:
		return "Student activity needs teacher attention"
	}
}

// SuggestedActionsFor возвращает фиксированный список рекомендуемых действий
// для типа инсайта. Возвращается копия — списки неизменяемы.
func SuggestedActionsFor(t Type) []string {
	var actions []string
	switch t {
	case TypeCheckIn:
		actions = []string{
			"Schedule a one-on-one check-in",
			"Review the assignment together",
			"Suggest a guided coach session",
		}
	case TypeCelebrateProgress:
		actions = []string{
			"Send an encouraging message",
			"Award a progress badge",
		}
	case TypeChallengeOpportunity:
		actions = []string{
			"Offer an extension activity",
			"Suggest a more advanced assignment",
		}
	case TypeMonitor:
		actions = []string{
			"Add a note to track progress",
			"Revisit after the next attempt",
		}
	default:
		return nil
	}

	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// ErrNoIDGenerator - генератор идентификаторов не задан.
var ErrNoIDGenerator = errors.New("insight generator requires an id generator")
