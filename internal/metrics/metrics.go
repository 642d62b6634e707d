// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts requests served by the jobs API.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// ClientRequestsTotal counts calls made by the jobs API client, by
	// logical operation and normalized outcome.
	ClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_api_client_requests_total",
			Help: "Total number of jobs API calls issued by the client.",
		},
		[]string{"operation", "outcome"},
	)

	// PostingsExpiredTotal counts postings deactivated by the expiry sweep.
	PostingsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postings_expired_total",
			Help: "Total number of job postings deactivated by the expiry sweep.",
		},
	)
)

// Client request outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeFieldErrors = "field_errors"
	OutcomeMessage     = "message"
	OutcomeTransport   = "transport"
)
