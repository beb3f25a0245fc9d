package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "legal_intake"

var (
	// MiddlewareRuns counts middleware executions.
	// Labels: middleware, outcome (pass, respond, error, panic, blocked)
	MiddlewareRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "middleware_runs_total",
		Help:      "Middleware executions by outcome",
	}, []string{"middleware", "outcome"})

	// RouteDecisions counts router decisions.
	// Labels: agent, reason
	RouteDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "router",
		Name:      "decisions_total",
		Help:      "Supervisor router decisions",
	}, []string{"agent", "reason"})

	// StreamEvents counts events written to clients.
	// Labels: type
	StreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "events_total",
		Help:      "Stream events emitted by type",
	}, []string{"type"})

	// StreamsCancelled counts streams the client abandoned.
	StreamsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "cancelled_total",
		Help:      "Streams abandoned by the consumer",
	})

	// TurnDuration measures end-to-end turn handling.
	// Labels: path (pipeline, agent, blocked, error)
	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "turn",
		Name:      "duration_seconds",
		Help:      "Turn handling latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"path"})

	// AnalysisJobs counts document analysis jobs.
	// Labels: kind (auto, legacy), result (completed, failed, nack)
	AnalysisJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analysis",
		Name:      "jobs_total",
		Help:      "Document analysis jobs by result",
	}, []string{"kind", "result"})

	// AnalysisStrategy counts which extraction strategy served a document.
	// Labels: strategy
	AnalysisStrategy = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analysis",
		Name:      "strategy_total",
		Help:      "Extraction strategy selections",
	}, []string{"strategy"})

	// AnalysisDuration measures per-document analysis time.
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Document analysis latency in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	// ContextSaveFailures counts best-effort context saves that failed.
	ContextSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "context",
		Name:      "save_failures_total",
		Help:      "Conversation context saves that failed",
	})
)
