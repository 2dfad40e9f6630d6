// Package metrics exposes the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoutedRequests counts router turns by chosen handler.
	RoutedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplyline_routed_requests_total",
		Help: "Router turns dispatched, labeled by handler.",
	}, []string{"handler"})

	// WorkflowRuns counts completed workflow runs by terminal outcome.
	WorkflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supplyline_workflow_runs_total",
		Help: "Workflow runs, labeled by terminal outcome.",
	}, []string{"outcome"})

	// RetryAttempts counts retry attempts beyond the first try.
	RetryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supplyline_retry_attempts_total",
		Help: "Remote call attempts beyond the first try.",
	})

	// StepDuration observes workflow step latency by step name.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "supplyline_workflow_step_seconds",
		Help:    "Workflow step duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
)
