package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// Upstream acquisition
	UpstreamPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_upstream_polls_total",
		Help: "Upstream fetches by kind (system, connection, version) and result",
	}, []string{"kind", "result"})

	UpstreamPollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_upstream_poll_duration_seconds",
		Help:    "Upstream fetch latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"kind"})

	// Distribution
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_subscribers",
		Help: "Currently attached push-channel subscribers",
	})

	MessagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_messages_published_total",
		Help: "Messages published to subscribers by type",
	}, []string{"type"})

	MessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_messages_dropped_total",
		Help: "Unsent messages discarded because a subscriber fell behind",
	})

	// Reboot scheduling
	TriggerActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_reboot_trigger_active",
		Help: "1 when a recurring reboot trigger is installed",
	})

	TriggerBuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_reboot_trigger_build_failures_total",
		Help: "Schedules that could not be turned into a trigger",
	})

	RebootRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_reboot_runs_total",
		Help: "Reboot actions by origin (scheduled, manual) and result",
	}, []string{"origin", "result"})

	SchedulePersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_schedule_persist_failures_total",
		Help: "Schedule writes that failed to reach durable storage",
	})
)
