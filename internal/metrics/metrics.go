// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

// Package metrics exposes Prometheus instrumentation for the simulation
// engine and the detection pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simulation metrics.
	SimulationPostsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infodemic_simulation_posts_total",
			Help: "Total content items created by the simulation",
		},
		[]string{"phase"},
	)

	SimulationEngagements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infodemic_simulation_engagements_total",
			Help: "Total engagement increments applied by the simulation",
		},
		[]string{"kind"},
	)

	PhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infodemic_crisis_phase_transitions_total",
			Help: "Total crisis phase transitions",
		},
		[]string{"to"},
	)

	CrisisActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "infodemic_crisis_active",
			Help: "Whether a crisis is currently active (0 or 1)",
		},
	)

	GenerationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infodemic_generation_fallbacks_total",
			Help: "Content generations served from static templates after adapter failure",
		},
	)

	// Detection metrics.
	ThreatsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infodemic_threats_detected_total",
			Help: "Total threat records created",
		},
		[]string{"severity"},
	)

	ThreatsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "infodemic_threats_active",
			Help: "Unaddressed threat records",
		},
	)

	ScanRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infodemic_scan_runs_total",
			Help: "Scan pipeline runs by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "infodemic_scan_duration_seconds",
			Help:    "Duration of scan pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScanItemErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infodemic_scan_item_errors_total",
			Help: "Per-item failures isolated during scan runs",
		},
	)

	ScanRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infodemic_scan_retries_total",
			Help: "Scan jobs retried after failure",
		},
	)

	ScanDeadLetters = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "infodemic_scan_dead_letters_total",
			Help: "Scan jobs abandoned after exhausting retries",
		},
	)
)

// RecordPost records a content item created during the given phase.
func RecordPost(phase string) {
	SimulationPostsCreated.WithLabelValues(phase).Inc()
}

// RecordEngagement records one applied engagement increment.
func RecordEngagement(kind string) {
	SimulationEngagements.WithLabelValues(kind).Inc()
}

// RecordPhaseTransition records a transition into the given phase.
func RecordPhaseTransition(to string) {
	PhaseTransitions.WithLabelValues(to).Inc()
}

// RecordThreatDetected records a newly created threat record.
func RecordThreatDetected(severity string) {
	ThreatsDetected.WithLabelValues(severity).Inc()
}

// RecordScanRun records a completed scan run and its duration.
func RecordScanRun(duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ScanRuns.WithLabelValues(outcome).Inc()
	ScanDuration.Observe(duration.Seconds())
}
