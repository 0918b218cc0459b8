package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "habitquest"

// Metrics groups the application's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	TasksCreated      prometheus.Counter
	TasksCompleted    prometheus.Counter
	StreaksRetired    prometheus.Counter
	ExperienceAwarded prometheus.Counter
	RewardFailures    *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		TasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_created_total",
			Help: "Daily habit tasks created.",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_completed_total",
			Help: "Daily habit tasks completed.",
		}),
		StreaksRetired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "streaks_retired_total",
			Help: "Streaks ended because the previous day was missed.",
		}),
		ExperienceAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "experience_awarded_total",
			Help: "Experience points credited to users.",
		}),
		RewardFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reward_failures_total",
			Help: "Completions whose experience could not be fully persisted.",
		}, []string{"stage"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.TasksCreated, m.TasksCompleted, m.StreaksRetired, m.ExperienceAwarded,
		m.RewardFailures, m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

func (m *Metrics) TaskCreated() {
	if m != nil {
		m.TasksCreated.Inc()
	}
}

func (m *Metrics) StreakRetired() {
	if m != nil {
		m.StreaksRetired.Inc()
	}
}

func (m *Metrics) TaskCompleted(experience int) {
	if m == nil {
		return
	}
	m.TasksCompleted.Inc()
	if experience > 0 {
		m.ExperienceAwarded.Add(float64(experience))
	}
}

func (m *Metrics) RewardFailed(stage string) {
	if m != nil {
		m.RewardFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
