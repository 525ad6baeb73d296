package evaluation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"primos/internal/nlp"

	"go.uber.org/zap"
)

// Parser maps an utterance to an intent
type Parser interface {
	Parse(ctx context.Context, text string) nlp.Result
}

// Evaluator runs labelled scenarios through a parser and scores it
type Evaluator struct {
	scenarios map[string]*TestScenario
	parser    Parser
	logger    *zap.Logger
}

// NewEvaluator creates an evaluator with the built in scenarios
func NewEvaluator(parser Parser, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Evaluator{
		scenarios: make(map[string]*TestScenario),
		parser:    parser,
		logger:    logger,
	}
	e.loadScenarios()
	return e
}

func (e *Evaluator) loadScenarios() {
	e.scenarios["english_basics"] = &TestScenario{
		ID:          "english_basics",
		Name:        "English Basics",
		Type:        "intent",
		Description: "Everyday English commands for the cart and menu.",
		Cases: []Case{
			{Text: "Hello!", Intent: nlp.IntentWelcome},
			{Text: "show menu", Intent: nlp.IntentBrowseMenu},
			{Text: "show my cart", Intent: nlp.IntentViewCart},
			{Text: "clear my cart", Intent: nlp.IntentClearCart},
			{Text: "checkout", Intent: nlp.IntentCheckout},
			{Text: "yes", Intent: nlp.IntentConfirmation},
			{Text: "no thanks", Intent: nlp.IntentRejection},
			{Text: "remove the cola", Intent: nlp.IntentRemoveItem, Entities: nlp.Entities{Item: "cola"}},
			{Text: "track my order number 42", Intent: nlp.IntentTrackOrder, Entities: nlp.Entities{OrderID: 42}},
			{Text: "how much is the margherita", Intent: nlp.IntentGetPrice},
		},
	}

	e.scenarios["arabic_basics"] = &TestScenario{
		ID:          "arabic_basics",
		Name:        "Arabic Basics",
		Type:        "intent",
		Description: "Egyptian Arabic commands.",
		Cases: []Case{
			{Text: "مرحبا", Intent: nlp.IntentWelcome},
			{Text: "نعم", Intent: nlp.IntentConfirmation},
			{Text: "اعرض السلة", Intent: nlp.IntentViewCart},
			{Text: "امسح السلة", Intent: nlp.IntentClearCart},
			{Text: "ادفع", Intent: nlp.IntentCheckout},
			{Text: "ضيف بيتزا كبير", Intent: nlp.IntentAddItem, Entities: nlp.Entities{Size: "L"}},
			{Text: "عايز اتنين كولا", Intent: nlp.IntentAddItem, Entities: nlp.Entities{Item: "كولا", Quantity: 2}},
		},
	}

	e.scenarios["multi_item"] = &TestScenario{
		ID:          "multi_item",
		Name:        "Multi Item Orders",
		Type:        "batch",
		Description: "Several items in one message.",
		Cases: []Case{
			{Text: "add 1fries 2cola", Intent: nlp.IntentAddItem, BatchCount: 2},
			{Text: "add 2 large margherita 3 cola", Intent: nlp.IntentAddItem, BatchCount: 2},
			{Text: "add fries and cola", Intent: nlp.IntentAddItem, BatchCount: 2},
			{Text: "add a large salami pizza, a water", Intent: nlp.IntentAddItem, BatchCount: 2},
		},
	}

	e.scenarios["quantities_and_sizes"] = &TestScenario{
		ID:          "quantities_and_sizes",
		Name:        "Quantities and Sizes",
		Type:        "entity",
		Description: "Numeric and spelled out quantities with size words.",
		Cases: []Case{
			{Text: "Add 2 large Margherita please", Intent: nlp.IntentAddItem, Entities: nlp.Entities{Item: "margherita", Size: "L", Quantity: 2}},
			{Text: "add one mango juice", Intent: nlp.IntentAddItem, Entities: nlp.Entities{Item: "mango juice", Quantity: 1}},
			{Text: "add 3cola", Intent: nlp.IntentAddItem, Entities: nlp.Entities{Item: "cola", Quantity: 3}},
			{Text: "order big margherita", Intent: nlp.IntentAddItem, Entities: nlp.Entities{Item: "margherita", Size: "L"}},
			{Text: "give me the medium pastrami pizza", Intent: nlp.IntentAddItem, Entities: nlp.Entities{Item: "pastrami pizza", Size: "M"}},
			{Text: "add regular fries", Intent: nlp.IntentAddItem, Entities: nlp.Entities{Item: "fries", Size: "REG"}},
		},
	}
}

// HasScenario checks if a scenario exists
func (e *Evaluator) HasScenario(id string) bool {
	_, exists := e.scenarios[id]
	return exists
}

// GetScenarios returns all scenarios ordered by ID
func (e *Evaluator) GetScenarios() []*TestScenario {
	scenarios := make([]*TestScenario, 0, len(e.scenarios))
	for _, s := range e.scenarios {
		scenarios = append(scenarios, s)
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })
	return scenarios
}

// Evaluate runs one scenario. parserName only labels the result.
func (e *Evaluator) Evaluate(ctx context.Context, parserName, scenarioID string) (*EvaluationResult, error) {
	scenario, exists := e.scenarios[scenarioID]
	if !exists {
		return nil, fmt.Errorf("scenario not found: %s", scenarioID)
	}

	e.logger.Info("evaluating parser",
		zap.String("parser", parserName),
		zap.String("scenario", scenarioID),
		zap.Int("cases", len(scenario.Cases)))

	result := &EvaluationResult{Parser: parserName, Scenario: scenarioID}
	var intentHits, entityHits int
	sources := map[string]int{}
	start := time.Now()

	for _, c := range scenario.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parsed := e.parser.Parse(ctx, c.Text)
		cr := CaseResult{
			Text:           c.Text,
			ExpectedIntent: c.Intent,
			Intent:         parsed.Intent,
			Source:         parsed.Source,
			Entities:       parsed.Entities,
			IntentMatch:    parsed.Intent == c.Intent,
			EntityMatch:    entitiesMatch(c, &parsed),
		}
		sources[string(parsed.Source)]++

		if cr.IntentMatch {
			intentHits++
		}
		if cr.EntityMatch {
			entityHits++
		}
		if !cr.IntentMatch || !cr.EntityMatch {
			result.Events = append(result.Events, EventLog{
				Timestamp: time.Now(),
				Type:      "mismatch",
				Data: map[string]interface{}{
					"text":     c.Text,
					"expected": c.Intent,
					"got":      parsed.Intent,
					"entities": parsed.Entities.Map(),
				},
			})
		}
		result.Cases = append(result.Cases, cr)
	}

	n := len(scenario.Cases)
	if n > 0 {
		result.IntentAccuracy = float64(intentHits) / float64(n)
		result.EntityAccuracy = float64(entityHits) / float64(n)
	}
	result.Metrics = map[string]interface{}{
		"cases":           n,
		"intent_accuracy": result.IntentAccuracy,
		"entity_accuracy": result.EntityAccuracy,
		"duration_ms":     time.Since(start).Milliseconds(),
		"sources":         sources,
	}
	return result, nil
}

// EvaluateAll runs every scenario in ID order
func (e *Evaluator) EvaluateAll(ctx context.Context, parserName string) ([]*EvaluationResult, error) {
	var results []*EvaluationResult
	for _, s := range e.GetScenarios() {
		r, err := e.Evaluate(ctx, parserName, s.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// entitiesMatch compares the labelled entities and batch size only
func entitiesMatch(c Case, got *nlp.Result) bool {
	if c.BatchCount > 0 && len(got.BatchItems) != c.BatchCount {
		return false
	}
	for field, want := range c.Entities.Map() {
		if got.Entities.Map()[field] != want {
			return false
		}
	}
	return true
}
