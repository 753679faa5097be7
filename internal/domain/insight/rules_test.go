package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classpulse/insight-engine/pkg/identifier"
)

func newTestGenerator() *Generator {
	return NewGenerator(DefaultThresholds(), identifier.NewSequenceGenerator("ins"))
}

func evaluate(t *testing.T, in RuleInput, active map[Type]*Insight) []*Insight {
	t.Helper()
	results, err := newTestGenerator().Evaluate(in, active)
	assert.NoError(t, err)
	return results
}

func typesOf(results []*Insight) []Type {
	out := make([]Type, 0, len(results))
	for _, ins := range results {
		out = append(out, ins.Type)
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }

func TestCheckInRule_LowScore(t *testing.T) {
	results := evaluate(t, RuleInput{
		StudentID:     "s1",
		AssignmentID:  "a1",
		QuestionCount: 10,
		Score:         35,
		Attempts:      1,
	}, nil)

	assert.Len(t, results, 1)
	ins := results[0]
	assert.Equal(t, TypeCheckIn, ins.Type)
	assert.Equal(t, PriorityMedium, ins.Priority)
	assert.Equal(t, 0.85, ins.Confidence)
	assert.Equal(t, StatusPendingReview, ins.Status)
	assert.Contains(t, ins.Evidence[0], "Score of 35%")
}

func TestCheckInRule_CriticalScoreIsHighPriority(t *testing.T) {
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 25, Attempts: 1}, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, PriorityHigh, results[0].Priority)
}

func TestCheckInRule_Boundaries(t *testing.T) {
	// exactly at the struggling threshold: no check_in
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 40, Attempts: 1}, nil)
	assert.Empty(t, results)

	// exactly at the critical threshold stays medium
	results = evaluate(t, RuleInput{StudentID: "s1", Score: 30, Attempts: 1}, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, PriorityMedium, results[0].Priority)
}

func TestCheckInRule_HeavyHints(t *testing.T) {
	// a passing-but-not-mastered score with heavy hint reliance still fires
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 65, HintUsageRate: 0.7, Attempts: 1}, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, TypeCheckIn, results[0].Type)
	assert.Equal(t, PriorityMedium, results[0].Priority)
	assert.Contains(t, results[0].Evidence[0], "Used hints on 70%")

	// heavy hints at a mastered score do not
	results = evaluate(t, RuleInput{StudentID: "s1", Score: 75, HintUsageRate: 0.7, Attempts: 1}, nil)
	assert.Empty(t, results)

	// the hint rate boundary itself does not fire
	results = evaluate(t, RuleInput{StudentID: "s1", Score: 65, HintUsageRate: 0.6, Attempts: 1}, nil)
	assert.Empty(t, results)
}

func TestCelebrateProgressRule(t *testing.T) {
	// improvement exactly at the significant threshold fires at medium
	results := evaluate(t, RuleInput{
		StudentID:            "s1",
		Score:                70,
		PreviousHighestScore: floatPtr(50),
		Attempts:             2,
	}, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, TypeCelebrateProgress, results[0].Type)
	assert.Equal(t, PriorityMedium, results[0].Priority)
	assert.Equal(t, 0.90, results[0].Confidence)
	assert.Contains(t, results[0].Evidence[0], "improved from 50% to 70%")

	// a major improvement upgrades to high
	results = evaluate(t, RuleInput{
		StudentID:            "s1",
		Score:                85,
		PreviousHighestScore: floatPtr(50),
		Attempts:             2,
	}, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, PriorityHigh, results[0].Priority)

	// below the threshold nothing fires
	results = evaluate(t, RuleInput{
		StudentID:            "s1",
		Score:                69,
		PreviousHighestScore: floatPtr(50),
		Attempts:             2,
	}, nil)
	assert.Empty(t, results)
}

func TestCelebrateProgressRule_FirstAttemptNeverFires(t *testing.T) {
	// no previous best means nothing to improve over, however high the score
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 85, HintUsageRate: 0.3}, nil)
	assert.Empty(t, results)
}

func TestChallengeOpportunityRule(t *testing.T) {
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 95, HintUsageRate: 0.05, Attempts: 1}, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, TypeChallengeOpportunity, results[0].Type)
	assert.Equal(t, PriorityMedium, results[0].Priority)

	// boundary values fire: excelling threshold and minimal hint rate inclusive
	results = evaluate(t, RuleInput{StudentID: "s1", Score: 90, HintUsageRate: 0.1, Attempts: 1}, nil)
	assert.Len(t, results, 1)

	// one step past either boundary does not
	results = evaluate(t, RuleInput{StudentID: "s1", Score: 89, HintUsageRate: 0.05, Attempts: 1}, nil)
	assert.Empty(t, results)
	results = evaluate(t, RuleInput{StudentID: "s1", Score: 95, HintUsageRate: 0.11, Attempts: 1}, nil)
	assert.Empty(t, results)
}

func TestMonitorRule(t *testing.T) {
	// third attempt stuck mid-range
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 55, Attempts: 3}, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, TypeMonitor, results[0].Type)
	assert.Equal(t, PriorityLow, results[0].Priority)
	assert.Equal(t, 0.75, results[0].Confidence)

	// two attempts are not yet a pattern
	results = evaluate(t, RuleInput{StudentID: "s1", Score: 55, Attempts: 2}, nil)
	assert.Empty(t, results)

	// mastered range is out of scope for monitoring
	results = evaluate(t, RuleInput{StudentID: "s1", Score: 70, Attempts: 3}, nil)
	assert.Empty(t, results)
}

func TestMonitorRule_SuppressedByActiveCheckIn(t *testing.T) {
	checkIn, _ := NewInsight(validParams())
	active := map[Type]*Insight{TypeCheckIn: checkIn}

	// mid-range on the third attempt would fire monitor, but a check_in
	// is already open
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 55, Attempts: 3}, active)
	assert.Empty(t, results)
}

func TestEvaluate_ActiveInsightSuppressesSameType(t *testing.T) {
	checkIn, _ := NewInsight(validParams())
	active := map[Type]*Insight{TypeCheckIn: checkIn}

	results := evaluate(t, RuleInput{StudentID: "s1", Score: 25, Attempts: 1}, active)
	assert.Empty(t, results)

	// a different type is unaffected
	results = evaluate(t, RuleInput{
		StudentID:            "s1",
		Score:                95,
		HintUsageRate:        0.0,
		PreviousHighestScore: floatPtr(60),
		Attempts:             2,
	}, active)
	assert.ElementsMatch(t, []Type{TypeCelebrateProgress, TypeChallengeOpportunity}, typesOf(results))
}

func TestEvaluate_MultipleRulesFireInOrder(t *testing.T) {
	results := evaluate(t, RuleInput{
		StudentID:            "s1",
		Score:                95,
		HintUsageRate:        0.0,
		PreviousHighestScore: floatPtr(60),
		Attempts:             2,
	}, nil)

	assert.Equal(t, []Type{TypeCelebrateProgress, TypeChallengeOpportunity}, typesOf(results))
	// delta 35 is a major improvement
	assert.Equal(t, PriorityHigh, results[0].Priority)
}

func TestEvaluate_ClampsOutOfRangeInput(t *testing.T) {
	// 120% clamps to 100 and fires challenge, not an error
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 120, HintUsageRate: -0.3, Attempts: 1}, nil)
	assert.Len(t, results, 1)
	assert.Equal(t, TypeChallengeOpportunity, results[0].Type)
}

func TestEvaluate_RequiresStudentID(t *testing.T) {
	_, err := newTestGenerator().Evaluate(RuleInput{Score: 20}, nil)
	assert.ErrorIs(t, err, ErrEmptyStudentID)
}

func TestCoachEvidence_AppendedAtThreshold(t *testing.T) {
	results := evaluate(t, RuleInput{StudentID: "s1", Score: 25, Attempts: 1, CoachSessionsUsed: 5}, nil)
	assert.Len(t, results, 1)
	assert.Contains(t, results[0].Evidence[len(results[0].Evidence)-1], "5 coach sessions")

	results = evaluate(t, RuleInput{StudentID: "s1", Score: 25, Attempts: 1, CoachSessionsUsed: 4}, nil)
	assert.Len(t, results, 1)
	for _, ev := range results[0].Evidence {
		assert.NotContains(t, ev, "coach sessions")
	}
}

func TestClassifyUnderstanding(t *testing.T) {
	th := DefaultThresholds()

	assert.Equal(t, UnderstandingNeedsSupport, th.ClassifyUnderstanding(39, 0))
	assert.Equal(t, UnderstandingNeedsSupport, th.ClassifyUnderstanding(65, 0.7))
	assert.Equal(t, UnderstandingStrong, th.ClassifyUnderstanding(70, 0.1))
	assert.Equal(t, UnderstandingDeveloping, th.ClassifyUnderstanding(70, 0.11))
	assert.Equal(t, UnderstandingDeveloping, th.ClassifyUnderstanding(55, 0.2))

	// heavy hints at a mastered score do not drag the level down
	assert.Equal(t, UnderstandingDeveloping, th.ClassifyUnderstanding(80, 0.7))
}

func TestSuggestedActionsFor_ReturnsCopy(t *testing.T) {
	first := SuggestedActionsFor(TypeCheckIn)
	first[0] = "mutated"
	second := SuggestedActionsFor(TypeCheckIn)
	assert.Equal(t, "Schedule a one-on-one check-in", second[0])

	assert.Nil(t, SuggestedActionsFor(Type("unknown")))
}
