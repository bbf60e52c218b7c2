// Package metrics exposes the Prometheus collectors of the payment flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Payment callbacks handled, by outcome",
		},
		[]string{"outcome"},
	)

	payAppRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payapp_requests_total",
			Help: "Calls made to the PayApp API",
		},
		[]string{"op", "result"},
	)

	payAppDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payapp_request_duration_seconds",
			Help:    "Duration of PayApp API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// ObserveVerification counts one handled callback.
func ObserveVerification(outcome string) {
	verifications.WithLabelValues(outcome).Inc()
}

// ObservePayApp records one remote call.
func ObservePayApp(op string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	payAppRequests.WithLabelValues(op, result).Inc()
	payAppDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
