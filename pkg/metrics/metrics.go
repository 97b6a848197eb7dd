/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes the pipeline's operational signals: one
// counter per FSM transition, a histogram of per-stage handling
// latency, and a gauge tracking degraded dependencies from pkg/health's
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageTransitionsTotal counts every fsm.Engine.Advance transition,
	// labeled by the state it left and the state it landed on — FAILED
	// and FAILED_NEEDS_MAPPING land as distinct "to" labels, so a
	// dashboard can separate transient retries from terminal rejections.
	StageTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driftcore_stage_transitions_total",
		Help: "Total FSM state transitions, labeled by from/to state.",
	}, []string{"from", "to"})

	// StageDurationSeconds is the wall time a StageHandler.Handle call
	// took, labeled by the state it was handling.
	StageDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "driftcore_stage_duration_seconds",
		Help:    "StageHandler.Handle latency by state.",
		Buckets: prometheus.DefBuckets,
	}, []string{"state"})

	// CandidatesIngestedTotal counts SignalEvents that produced a new
	// DriftCandidate, labeled by sourceType.
	CandidatesIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driftcore_candidates_ingested_total",
		Help: "DriftCandidates created, labeled by signal source type.",
	}, []string{"source_type"})

	// QueueDepth is the number of ready deliveries observed by the last
	// poll of pkg/queue's ready list.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "driftcore_queue_depth",
		Help: "Ready deliveries waiting in the worker queue.",
	})

	// DependencyDegradedTotal mirrors pkg/health.Registry.Degraded(): 1
	// while a named dependency's circuit breaker is tripped, 0 once it
	// closes again, so the weekly digest's "N drifts deferred due to
	// GitHub being degraded" line has a matching time series to chart.
	DependencyDegradedTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "driftcore_dependency_degraded",
		Help: "1 while a dependency's circuit breaker is open, 0 otherwise.",
	}, []string{"dependency"})

	// NotificationsSentTotal counts Slack posts actually delivered,
	// separate from ones the rate cap suppressed.
	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driftcore_notifications_sent_total",
		Help: "Notifications delivered, labeled by workspace.",
	}, []string{"workspace"})

	// NotificationsRateLimitedTotal counts posts pkg/ratelimit denied.
	NotificationsRateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driftcore_notifications_rate_limited_total",
		Help: "Notifications suppressed by the per-workspace hourly cap.",
	}, []string{"workspace"})
)

// RecordTransition increments StageTransitionsTotal and, when durationSeconds
// is non-negative, observes it against the from-state's StageDurationSeconds
// histogram (zero means "no Handle call occurred", e.g. a snooze no-op).
func RecordTransition(from, to string, durationSeconds float64) {
	StageTransitionsTotal.WithLabelValues(from, to).Inc()
	if durationSeconds >= 0 {
		StageDurationSeconds.WithLabelValues(from).Observe(durationSeconds)
	}
}

// RecordDependencyHealth sets the DependencyDegradedTotal gauge for name:
// 1 if degraded, 0 if healthy.
func RecordDependencyHealth(name string, degraded bool) {
	v := 0.0
	if degraded {
		v = 1.0
	}
	DependencyDegradedTotal.WithLabelValues(name).Set(v)
}
