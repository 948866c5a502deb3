// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal counts successful snapshot replacements in the store.
	UpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_updates_total",
			Help: "Total successful telemetry snapshot updates",
		},
	)

	// DecodeFailures counts telemetry files that failed to parse.
	DecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_decode_failures_total",
			Help: "Total telemetry reloads discarded because the file was not valid JSON",
		},
	)

	// FramesDropped counts frames discarded because a subscriber's queue was full.
	FramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_frames_dropped_total",
			Help: "Total frames dropped for individual slow subscribers",
		},
	)

	// Subscribers tracks the number of currently registered push subscribers.
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "push_subscribers_current",
			Help: "Number of currently connected push-protocol subscribers",
		},
	)

	// SnapshotAge tracks seconds since the last successful snapshot update.
	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_snapshot_age_seconds",
			Help: "Seconds since the last successful telemetry update",
		},
	)

	// WatcherRestarts counts restarts of the filesystem watch loop.
	WatcherRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watcher_restarts_total",
			Help: "Total restarts of the telemetry file watcher",
		},
	)
)
