package monitoring

import (
	"sync"
	"time"
)

// Monitor keeps runtime counters for the chat service
type Monitor struct {
	metrics      map[string]interface{}
	counters     map[string]int64
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		counters:  make(map[string]int64),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// Inc adds one to a counter
func (m *Monitor) Inc(name string) {
	m.Add(name, 1)
}

// Add adds delta to a counter
func (m *Monitor) Add(name string, delta int64) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.counters[name] += delta
}

// Counter returns the current value of a counter
func (m *Monitor) Counter(name string) int64 {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	return m.counters[name]
}

// RecordMessage counts one processed chat message
func (m *Monitor) RecordMessage(intent, source string, handled bool, latency time.Duration) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	if intent == "" {
		intent = "none"
	}
	m.counters["messages_total"]++
	m.counters["intent_"+intent]++
	m.counters["source_"+source]++
	if handled {
		m.counters["handled_total"]++
	}
	m.metrics["last_intent"] = intent
	m.metrics["last_latency_ms"] = latency.Milliseconds()
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	if v, ok := m.counters[name]; ok {
		return v, true
	}
	value, exists := m.metrics[name]
	return value, exists
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	// Create a copy to avoid concurrent map access
	metrics := make(map[string]interface{}, len(m.metrics)+len(m.counters)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	for k, v := range m.counters {
		metrics[k] = v
	}

	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()
	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
	m.counters = make(map[string]int64)
}

// RecordEvaluationResult records the metrics of one evaluation scenario
func (m *Monitor) RecordEvaluationResult(parser string, scenario string, metrics map[string]interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	prefix := parser + "_" + scenario + "_"
	for k, v := range metrics {
		m.metrics[prefix+k] = v
	}
	m.metrics[prefix+"last_evaluated"] = time.Now().Format(time.RFC3339)
}
