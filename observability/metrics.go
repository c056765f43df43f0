// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the memory service.
//
// # Description
//
// Metrics cover the request surface (by endpoint and status), calls to the
// memory engine, question reformulation latency, and history cache churn.
// All metrics are registered on the default registry and exposed via the
// /metrics endpoint.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "aleutian"

const memorySubsystem = "memory"

var (
	// RequestsTotal counts API requests by endpoint and outcome.
	// Labels: endpoint (ask, search, upload, status, delete),
	// status (ok, no_result, client_error, dependency_error)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: memorySubsystem,
			Name:      "requests_total",
			Help:      "Total API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// RequestDurationSeconds measures end-to-end request latency.
	// Labels: endpoint
	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: memorySubsystem,
			Name:      "request_duration_seconds",
			Help:      "End-to-end request latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"endpoint"},
	)

	// EngineCallsTotal counts calls to the memory engine by operation
	// and outcome.
	// Labels: operation (ask, search, import, status, delete),
	// status (success, error)
	EngineCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: memorySubsystem,
			Name:      "engine_calls_total",
			Help:      "Total memory engine calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	// ReformulationSeconds measures LLM reformulation latency.
	ReformulationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: memorySubsystem,
			Name:      "reformulation_seconds",
			Help:      "Question reformulation latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
	)

	// NoResultTotal counts ask requests the engine could not answer.
	NoResultTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: memorySubsystem,
			Name:      "no_result_total",
			Help:      "Total ask requests with no grounded answer",
		},
	)

	// HistoryTurnsEvicted counts turns dropped from conversation
	// windows once they exceed the configured size.
	HistoryTurnsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: memorySubsystem,
			Name:      "history_turns_evicted_total",
			Help:      "Total conversation turns evicted by window truncation",
		},
	)
)

// RecordEngineCall records the outcome of a memory engine call.
func RecordEngineCall(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EngineCallsTotal.WithLabelValues(operation, status).Inc()
}
