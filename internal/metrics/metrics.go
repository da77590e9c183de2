// Package metrics holds the Prometheus collectors shared by the API server
// and the cron runner.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tourbooking"

var (
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Sweep executions by job and outcome (ok, error, panic, skipped).",
	}, []string{"job", "outcome"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Sweep wall-clock duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	TourTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tour_transitions_total",
		Help:      "Tours moved into a status by the lifecycle sweep.",
	}, []string{"status"})

	Bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Booking attempts by outcome kind.",
	}, []string{"outcome"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Outbox deliveries by template and status.",
	}, []string{"template", "status"})

	WeatherAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weather_alerts_total",
		Help:      "Significant weather changes reported to guides.",
	})

	WeatherSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "weather_skips_total",
		Help:      "Tours skipped by the weather sweep by reason.",
	}, []string{"reason"})
)

// ObserveJob records one sweep execution.
func ObserveJob(job, outcome string, started time.Time) {
	JobRuns.WithLabelValues(job, outcome).Inc()
	JobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
