package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "acompanha", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "acompanha", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// StoreOperations counts document store critical sections by operation (read|update) and result.
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "acompanha", Subsystem: "store", Name: "operations_total", Help: "Document store operations by op and status."},
		[]string{"op", "status"},
	)
	// StoreLockWait observes how long callers waited in the FIFO queue.
	StoreLockWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "acompanha", Subsystem: "store", Name: "lock_wait_seconds", Help: "Time spent waiting to acquire the document queue.", Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10)},
		[]string{"op"},
	)
	// StoreInitializations counts first-run creations of the empty document.
	StoreInitializations = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "acompanha", Subsystem: "store", Name: "initializations_total", Help: "Number of times the empty document was created."},
	)
	// StoreDocumentBytes is the size of the last persisted document.
	StoreDocumentBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "acompanha", Subsystem: "store", Name: "document_bytes", Help: "Size in bytes of the last document written."},
	)

	// HTTPRequestDuration observes handled requests by route template, method and status.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "acompanha", Subsystem: "http", Name: "request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
		[]string{"route", "method", "status"},
	)

	// AuthFailures counts rejected requests at the session/CSRF gate.
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "acompanha", Name: "auth_failures_total", Help: "Requests rejected by the session or CSRF gate."},
		[]string{"reason"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreLockWait)
	reg.MustRegister(StoreInitializations)
	reg.MustRegister(StoreDocumentBytes)
	reg.MustRegister(AuthFailures)
	reg.MustRegister(HTTPRequestDuration)
}
