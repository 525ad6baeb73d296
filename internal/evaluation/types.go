package evaluation

import (
	"time"

	"primos/internal/nlp"
)

// Case is one labelled utterance. Only the entities set in Entities are
// compared.
type Case struct {
	Text       string       `json:"text"`
	Intent     string       `json:"intent"`
	Entities   nlp.Entities `json:"entities"`
	BatchCount int          `json:"batch_count,omitempty"`
}

// TestScenario is a named group of labelled utterances
type TestScenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Cases       []Case `json:"cases"`
}

// CaseResult is the outcome of one case
type CaseResult struct {
	Text           string       `json:"text"`
	ExpectedIntent string       `json:"expected_intent"`
	Intent         string       `json:"intent"`
	Source         nlp.Source   `json:"source"`
	Entities       nlp.Entities `json:"entities"`
	IntentMatch    bool         `json:"intent_match"`
	EntityMatch    bool         `json:"entity_match"`
}

// EvaluationResult aggregates one scenario run
type EvaluationResult struct {
	Parser         string                 `json:"parser"`
	Scenario       string                 `json:"scenario"`
	IntentAccuracy float64                `json:"intent_accuracy"`
	EntityAccuracy float64                `json:"entity_accuracy"`
	Metrics        map[string]interface{} `json:"metrics"`
	Cases          []CaseResult           `json:"cases"`
	Events         []EventLog             `json:"events,omitempty"`
}

// EventLog records a notable event of a run, such as a mismatch
type EventLog struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
}
