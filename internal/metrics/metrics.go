// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for Newsync:
// - API endpoint latency and throughput
// - Upstream newsletter backend calls and circuit breaker state
// - Reconciliation outcomes (applied, skipped, fenced)
// - Toggle outcomes (success, rollback, fallback coercion)
// - WebSocket client connections

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsync_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsync_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsync_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Upstream Backend Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsync_upstream_requests_total",
			Help: "Total number of requests to the newsletter backend",
		},
		[]string{"operation", "outcome"}, // outcome: success, failure, rejected
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsync_upstream_request_duration_seconds",
			Help:    "Newsletter backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	UpstreamRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsync_upstream_retries_total",
			Help: "Total number of single-shot retries after network errors",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "newsync_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsync_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Reconciliation Metrics
	ReconcileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsync_reconcile_total",
			Help: "Total number of reconciliation attempts by outcome",
		},
		[]string{"outcome"}, // outcome: applied, unchanged, fenced
	)

	// Toggle Metrics
	ToggleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsync_toggle_total",
			Help: "Total number of toggle actions by outcome",
		},
		[]string{"action", "outcome"}, // action: subscribe, unsubscribe
	)

	ToggleRollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsync_toggle_rollbacks_total",
			Help: "Total number of optimistic updates rolled back after remote failure",
		},
	)

	// ToggleFallbackTotal counts backend 5xx responses coerced to
	// soft-success. A rising rate here means the backend is masking real
	// failures and should page someone.
	ToggleFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsync_toggle_fallback_total",
			Help: "Total number of backend failures coerced to fallback soft-success",
		},
	)

	// Snapshot Store Metrics
	SnapshotServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsync_snapshot_served_total",
			Help: "Total number of subscription reads served from the persisted snapshot",
		},
		[]string{"reason"}, // reason: upstream_unavailable, upstream_auth
	)

	// WebSocket Metrics
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsync_websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	WebSocketMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsync_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages broadcast to clients",
		},
		[]string{"type"},
	)
)

// RecordAPIRequest records metrics for a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordUpstreamRequest records metrics for a completed backend call.
func RecordUpstreamRequest(operation, outcome string, duration time.Duration) {
	UpstreamRequestsTotal.WithLabelValues(operation, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
