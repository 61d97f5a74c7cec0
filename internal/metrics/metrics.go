// Package metrics exposes grading activity as Prometheus metrics: oracle calls,
// step and sub-question scores, item outcomes, and per-difficulty results
// refreshed from the results store.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stepgrade/internal/oracle"
	"stepgrade/internal/store"
)

const namespace = "stepgrade"

var (
	// Oracle latencies span quick judgments to long reformatting replies.
	latencyBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}
	// Step scores are multiples of 0.5; sub-question means can fall between.
	scoreBuckets = []float64{0, 0.25, 0.5, 0.75, 1}
)

// Summarizer provides per-difficulty aggregates, e.g. the results store.
type Summarizer interface {
	Summary(ctx context.Context) ([]store.DifficultySummary, error)
}

// Collector owns a private registry so tests and exports see only these metrics.
type Collector struct {
	registry *prometheus.Registry

	oracleCalls   *prometheus.CounterVec
	oracleLatency *prometheus.HistogramVec
	items         *prometheus.CounterVec
	subQuestions  *prometheus.CounterVec
	subScores     *prometheus.HistogramVec
	stepScores    prometheus.Histogram

	storedMean     *prometheus.GaugeVec
	storedShortcut *prometheus.GaugeVec
	storedAccuracy *prometheus.GaugeVec
}

var _ oracle.CallObserver = (*Collector)(nil)

// New registers every metric on a fresh registry.
func New() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "calls_total",
			Help:      "Oracle completion attempts by operation and outcome.",
		}, []string{"operation", "outcome"}),
		oracleLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "call_duration_seconds",
			Help:      "Oracle completion latency by operation.",
			Buckets:   latencyBuckets,
		}, []string{"operation"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Batch items by command and final status.",
		}, []string{"command", "status"}),
		subQuestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sub_questions_total",
			Help:      "Evaluated sub-questions by command, difficulty and correctness.",
		}, []string{"command", "difficulty", "correct"}),
		subScores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sub_question_score",
			Help:      "Sub-question scores by command and difficulty.",
			Buckets:   scoreBuckets,
		}, []string{"command", "difficulty"}),
		stepScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_score",
			Help:      "Scores of individually graded steps.",
			Buckets:   scoreBuckets,
		}),
		storedMean: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "mean_score",
			Help:      "Mean stored sub-question score by difficulty.",
		}, []string{"difficulty"}),
		storedShortcut: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "shortcut_sub_questions",
			Help:      "Stored sub-questions awarded full credit from the final answer.",
		}, []string{"difficulty"}),
		storedAccuracy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "answer_accuracy_percent",
			Help:      "Stored answer-check accuracy by difficulty.",
		}, []string{"difficulty"}),
	}
	registry.MustRegister(
		c.oracleCalls, c.oracleLatency, c.items, c.subQuestions, c.subScores, c.stepScores,
		c.storedMean, c.storedShortcut, c.storedAccuracy,
	)
	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveCall implements oracle.CallObserver.
func (c *Collector) ObserveCall(operation string, outcome oracle.Outcome, elapsed time.Duration) {
	c.oracleCalls.WithLabelValues(operation, outcome.String()).Inc()
	c.oracleLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveItem counts one finished batch item.
func (c *Collector) ObserveItem(command, status string) {
	c.items.WithLabelValues(command, status).Inc()
}

// ObserveSubQuestion records one evaluated sub-question.
func (c *Collector) ObserveSubQuestion(command, difficulty string, score float64, correct bool) {
	label := "false"
	if correct {
		label = "true"
	}
	c.subQuestions.WithLabelValues(command, difficulty, label).Inc()
	c.subScores.WithLabelValues(command, difficulty).Observe(score)
}

// ObserveStep records one graded step score.
func (c *Collector) ObserveStep(score float64) {
	c.stepScores.Observe(score)
}

// Refresh replaces the store gauges with the current aggregates.
func (c *Collector) Refresh(ctx context.Context, source Summarizer) error {
	summary, err := source.Summary(ctx)
	if err != nil {
		return err
	}
	c.storedMean.Reset()
	c.storedShortcut.Reset()
	c.storedAccuracy.Reset()
	for _, entry := range summary {
		if entry.SubQuestions > 0 {
			c.storedMean.WithLabelValues(entry.Difficulty).Set(entry.MeanScore)
			c.storedShortcut.WithLabelValues(entry.Difficulty).Set(float64(entry.Shortcut))
		}
		if entry.Answered > 0 {
			c.storedAccuracy.WithLabelValues(entry.Difficulty).Set(entry.AnswerAccuracy())
		}
	}
	return nil
}

// WriteToTextfile writes the registry in the node exporter textfile format.
func (c *Collector) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
