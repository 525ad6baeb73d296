package evaluation

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector holds the service's Prometheus collectors on a
// private registry
type MetricsCollector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
}

// NewMetricsCollector creates and registers every collector
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	messages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primos",
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Chat messages processed by intent and NLP source",
		},
		[]string{"intent", "source"},
	)

	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primos",
			Subsystem: "nlp",
			Name:      "fallbacks_total",
			Help:      "Messages the regex parser could not map",
		},
		[]string{"source"},
	)

	clarifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primos",
			Subsystem: "chat",
			Name:      "clarifications_total",
			Help:      "Clarification questions asked by intent",
		},
		[]string{"intent"},
	)

	handlerLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "primos",
			Subsystem: "chat",
			Name:      "handler_latency_seconds",
			Help:      "End to end message processing time by handler",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	ordersPlaced := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "primos",
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders placed through checkout",
		},
	)

	orderValue := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "primos",
			Subsystem: "orders",
			Name:      "value_egp",
			Help:      "Order totals",
			Buckets:   prometheus.LinearBuckets(0, 100, 15),
		},
	)

	llmCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "primos",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Model calls by provider, operation and status",
		},
		[]string{"provider", "operation", "status"},
	)

	llmLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "primos",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Model call latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"provider", "operation"},
	)

	accuracy := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "primos",
			Subsystem: "evaluation",
			Name:      "accuracy_ratio",
			Help:      "Accuracy of the last evaluation run",
		},
		[]string{"scenario", "metric"},
	)

	metrics := map[string]prometheus.Collector{
		"messages":        messages,
		"fallbacks":       fallbacks,
		"clarifications":  clarifications,
		"handler_latency": handlerLatency,
		"orders_placed":   ordersPlaced,
		"order_value":     orderValue,
		"llm_calls":       llmCalls,
		"llm_latency":     llmLatency,
		"accuracy":        accuracy,
	}

	for _, metric := range metrics {
		registry.MustRegister(metric)
	}

	return &MetricsCollector{
		registry: registry,
		metrics:  metrics,
	}
}

// Registry exposes the collector registry
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the registry in the Prometheus text format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}

// RecordMessage counts one processed message
func (mc *MetricsCollector) RecordMessage(intent, source string) {
	if intent == "" {
		intent = "none"
	}
	if c, ok := mc.metrics["messages"].(*prometheus.CounterVec); ok {
		c.WithLabelValues(intent, source).Inc()
	}
}

// RecordFallback counts a message that left the regex path
func (mc *MetricsCollector) RecordFallback(source string) {
	if c, ok := mc.metrics["fallbacks"].(*prometheus.CounterVec); ok {
		c.WithLabelValues(source).Inc()
	}
}

// RecordClarification counts a clarification question
func (mc *MetricsCollector) RecordClarification(intent string) {
	if c, ok := mc.metrics["clarifications"].(*prometheus.CounterVec); ok {
		c.WithLabelValues(intent).Inc()
	}
}

// RecordHandlerLatency observes the processing time of one message
func (mc *MetricsCollector) RecordHandlerLatency(handler string, d time.Duration) {
	if handler == "" {
		handler = "none"
	}
	if h, ok := mc.metrics["handler_latency"].(*prometheus.HistogramVec); ok {
		h.WithLabelValues(handler).Observe(d.Seconds())
	}
}

// RecordOrder counts a placed order and its value
func (mc *MetricsCollector) RecordOrder(total float64) {
	if c, ok := mc.metrics["orders_placed"].(prometheus.Counter); ok {
		c.Inc()
	}
	if h, ok := mc.metrics["order_value"].(prometheus.Histogram); ok {
		h.Observe(total)
	}
}

// RecordLLMCall counts a model call and observes its latency
func (mc *MetricsCollector) RecordLLMCall(provider, operation string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	if c, ok := mc.metrics["llm_calls"].(*prometheus.CounterVec); ok {
		c.WithLabelValues(provider, operation, status).Inc()
	}
	if h, ok := mc.metrics["llm_latency"].(*prometheus.HistogramVec); ok {
		h.WithLabelValues(provider, operation).Observe(d.Seconds())
	}
}

// RecordEvaluation publishes the accuracies of an evaluation run
func (mc *MetricsCollector) RecordEvaluation(result *EvaluationResult) {
	g, ok := mc.metrics["accuracy"].(*prometheus.GaugeVec)
	if !ok || result == nil {
		return
	}
	g.WithLabelValues(result.Scenario, "intent").Set(result.IntentAccuracy)
	g.WithLabelValues(result.Scenario, "entity").Set(result.EntityAccuracy)
}
