package metrics

import (
	"net/http"

	"brand-publisher/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the publishing service.
type Metrics struct {
	registry *prometheus.Registry

	JobTransitionsTotal *prometheus.CounterVec
	JobRetriesTotal     *prometheus.CounterVec
	OAuthCallbacksTotal *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		JobTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "publishing_job_transitions_total",
				Help: "Total number of publishing job status transitions",
			},
			[]string{"platform", "status"},
		),
		JobRetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "publishing_job_failed_attempts_total",
				Help: "Total number of failed dispatch attempts by error code",
			},
			[]string{"platform", "error_code"},
		),
		OAuthCallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oauth_callbacks_total",
				Help: "Total number of OAuth callbacks by outcome",
			},
			[]string{"platform", "outcome"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
	}
	m.registry.MustRegister(
		m.JobTransitionsTotal,
		m.JobRetriesTotal,
		m.OAuthCallbacksTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveJob is a queue broadcaster.
func (m *Metrics) ObserveJob(job *model.PublishingJob) {
	m.JobTransitionsTotal.WithLabelValues(string(job.Platform), string(job.Status)).Inc()
	if code := job.ErrorDetails["error_code"]; code != "" && job.LastError != nil {
		m.JobRetriesTotal.WithLabelValues(string(job.Platform), code).Inc()
	}
}

func (m *Metrics) ObserveOAuthCallback(platform, outcome string) {
	m.OAuthCallbacksTotal.WithLabelValues(platform, outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
