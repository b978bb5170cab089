package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay's Prometheus instruments. They register against
// the registry handed in, never a package global, so tests and embedders can
// run isolated registries side by side.
type Metrics struct {
	// HTTP facade
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Upstream SOAP traffic
	SoapCalls *prometheus.CounterVec

	// CAEA resilience engine
	OutboxJobs *prometheus.CounterVec

	// Domain event feed
	DomainEvents *prometheus.CounterVec

	// Ticket freshness
	TicketValid  *prometheus.GaugeVec
	TicketExpiry *prometheus.GaugeVec
}

// NewMetrics creates the relay metrics on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afrelay_http_requests_total",
				Help: "Relayed HTTP requests by service, method and status code",
			},
			[]string{"service", "method", "code"},
		),

		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "afrelay_http_request_duration_seconds",
				Help:    "Latency of relayed HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),

		SoapCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afrelay_soap_calls_total",
				Help: "Upstream AFIP SOAP calls by service, method and outcome",
			},
			[]string{"service", "method", "status", "error_type"},
		),

		OutboxJobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afrelay_outbox_jobs_total",
				Help: "CAEA outbox job transitions by job type and outcome",
			},
			[]string{"job_type", "status", "error_type"},
		),

		DomainEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "afrelay_domain_events_total",
				Help: "Domain events recorded by the monitor",
			},
			[]string{"event_type", "service", "status"},
		),

		TicketValid: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "afrelay_ticket_valid",
				Help: "Whether the service ticket on disk is usable (1) or not (0)",
			},
			[]string{"service"},
		),

		TicketExpiry: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "afrelay_ticket_expiry_seconds",
				Help: "Seconds until the service ticket expires; negative once past",
			},
			[]string{"service"},
		),
	}
}

// RecordHTTPRequest records one relayed request.
func (m *Metrics) RecordHTTPRequest(service, method, code string, seconds float64) {
	m.HTTPRequests.WithLabelValues(service, method, code).Inc()
	m.HTTPDuration.WithLabelValues(service).Observe(seconds)
}

// RecordSoapCall records one upstream SOAP call outcome.
func (m *Metrics) RecordSoapCall(service, method, status, errorType string) {
	m.SoapCalls.WithLabelValues(service, method, status, errorType).Inc()
}

// RecordOutboxJob records one outbox job transition.
func (m *Metrics) RecordOutboxJob(jobType, status, errorType string) {
	m.OutboxJobs.WithLabelValues(jobType, status, errorType).Inc()
}

// RecordDomainEvent counts one event on the monitor feed.
func (m *Metrics) RecordDomainEvent(eventType, service, status string) {
	m.DomainEvents.WithLabelValues(eventType, service, status).Inc()
}

// RecordTicketState publishes ticket freshness for one service.
func (m *Metrics) RecordTicketState(service string, valid bool, secondsToExpiry float64) {
	v := 0.0
	if valid {
		v = 1.0
	}
	m.TicketValid.WithLabelValues(service).Set(v)
	m.TicketExpiry.WithLabelValues(service).Set(secondsToExpiry)
}
