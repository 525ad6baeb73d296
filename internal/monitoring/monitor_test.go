package monitoring

import (
	"sync"
	"testing"
	"time"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	metrics := m.GetMetrics()

	value, exists := metrics["test_metric"]
	if !exists {
		t.Fatalf("Expected 'test_metric' to be present in metrics, but it was not")
	}
	if value != 42 {
		t.Errorf("Expected 'test_metric' to be 42, but got %v", value)
	}

	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_RecordMessage(t *testing.T) {
	m := NewMonitor()

	m.RecordMessage("add_item", "regex", true, 12*time.Millisecond)
	m.RecordMessage("add_item", "regex", false, 3*time.Millisecond)
	m.RecordMessage("", "none", false, time.Millisecond)

	if got := m.Counter("messages_total"); got != 3 {
		t.Errorf("Expected 3 messages, got %d", got)
	}
	if got := m.Counter("intent_add_item"); got != 2 {
		t.Errorf("Expected 2 add_item messages, got %d", got)
	}
	if got := m.Counter("intent_none"); got != 1 {
		t.Errorf("Expected 1 message without intent, got %d", got)
	}
	if got := m.Counter("handled_total"); got != 1 {
		t.Errorf("Expected 1 handled message, got %d", got)
	}

	last, ok := m.GetMetric("last_intent")
	if !ok || last != "none" {
		t.Errorf("Expected last_intent to be 'none', got %v", last)
	}
	total, ok := m.GetMetric("messages_total")
	if !ok || total != int64(3) {
		t.Errorf("Expected messages_total metric 3, got %v", total)
	}
}

func TestMonitor_ConcurrentCounters(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Inc("orders_placed")
			m.GetMetrics()
		}()
	}
	wg.Wait()

	if got := m.Counter("orders_placed"); got != 50 {
		t.Errorf("Expected 50 orders, got %d", got)
	}
}

func TestMonitor_RecordEvaluationResult(t *testing.T) {
	m := NewMonitor()

	m.RecordEvaluationResult("regex", "english_basics", map[string]interface{}{
		"intent_accuracy": 0.85,
		"cases":           12,
	})

	metrics := m.GetMetrics()

	value, exists := metrics["regex_english_basics_intent_accuracy"]
	if !exists {
		t.Fatalf("Expected 'regex_english_basics_intent_accuracy' to be present in metrics, but it was not")
	}
	if value != 0.85 {
		t.Errorf("Expected 'regex_english_basics_intent_accuracy' to be 0.85, but got %v", value)
	}

	_, exists = metrics["regex_english_basics_last_evaluated"]
	if !exists {
		t.Errorf("Expected 'regex_english_basics_last_evaluated' to be present in metrics, but it was not")
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)
	m.Inc("messages_total")

	m.Reset()

	metrics := m.GetMetrics()
	if _, exists := metrics["test_metric"]; exists {
		t.Errorf("Expected 'test_metric' to be removed after Reset(), but it was present")
	}
	if got := m.Counter("messages_total"); got != 0 {
		t.Errorf("Expected counters to be cleared, got %d", got)
	}
	if _, exists := metrics["uptime_seconds"]; !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}
