package evaluation

import (
	"context"
	"testing"
	"time"

	"primos/internal/nlp"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser map[string]nlp.Result

func (s stubParser) Parse(ctx context.Context, text string) nlp.Result {
	return s[text]
}

func TestNewEvaluator(t *testing.T) {
	evaluator := NewEvaluator(nlp.NewHybridParser(nil, nil), nil)

	require.NotNil(t, evaluator)
	assert.NotEmpty(t, evaluator.scenarios)
}

func TestHasScenario(t *testing.T) {
	evaluator := NewEvaluator(nlp.NewHybridParser(nil, nil), nil)

	for _, id := range []string{"english_basics", "arabic_basics", "multi_item", "quantities_and_sizes"} {
		assert.True(t, evaluator.HasScenario(id), id)
	}
	assert.False(t, evaluator.HasScenario("non_existent_scenario"))

	scenarios := evaluator.GetScenarios()
	require.Len(t, scenarios, 4)
	assert.Equal(t, "arabic_basics", scenarios[0].ID)
}

func TestEvaluateRegexParser(t *testing.T) {
	evaluator := NewEvaluator(nlp.NewHybridParser(nil, nil), nil)

	results, err := evaluator.EvaluateAll(context.Background(), "regex")
	require.NoError(t, err)
	require.Len(t, results, 4)

	for _, r := range results {
		assert.Equal(t, 1.0, r.IntentAccuracy, r.Scenario)
		assert.Equal(t, 1.0, r.EntityAccuracy, r.Scenario)
		assert.Empty(t, r.Events, r.Scenario)
	}

	_, err = evaluator.Evaluate(context.Background(), "regex", "nope")
	assert.Error(t, err)
}

func TestEvaluateCountsMismatches(t *testing.T) {
	parser := stubParser{
		"add 1fries 2cola":                  {Intent: nlp.IntentAddItem, BatchItems: []nlp.BatchItem{{Item: "fries"}, {Item: "cola"}}},
		"add 2 large margherita 3 cola":     {Intent: nlp.IntentAddItem},
		"add fries and cola":                {Intent: nlp.IntentViewCart},
		"add a large salami pizza, a water": {Intent: nlp.IntentAddItem, BatchItems: []nlp.BatchItem{{Item: "salami pizza"}, {Item: "water"}}},
	}
	evaluator := NewEvaluator(parser, nil)

	r, err := evaluator.Evaluate(context.Background(), "stub", "multi_item")
	require.NoError(t, err)
	assert.Equal(t, 0.75, r.IntentAccuracy)
	assert.Equal(t, 0.5, r.EntityAccuracy)
	assert.Len(t, r.Events, 2)
	assert.Equal(t, 4, r.Metrics["cases"])
}

func TestMetricsCollector(t *testing.T) {
	mc := NewMetricsCollector()
	require.NotNil(t, mc.Registry())

	mc.RecordMessage("add_item", "regex")
	mc.RecordMessage("add_item", "regex")
	mc.RecordMessage("", "none")
	mc.RecordFallback("llm")
	mc.RecordClarification("add_item")
	mc.RecordHandlerLatency("add_item", 20*time.Millisecond)
	mc.RecordOrder(320)
	mc.RecordLLMCall("groq", "extract_intent", time.Second, nil)
	mc.RecordEvaluation(&EvaluationResult{Scenario: "multi_item", IntentAccuracy: 0.75, EntityAccuracy: 0.5})

	assert.Equal(t, 2, testutil.CollectAndCount(mc.metrics["messages"]))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.metrics["orders_placed"]))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.metrics["fallbacks"]))

	n, err := testutil.GatherAndCount(mc.Registry(), "primos_llm_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
