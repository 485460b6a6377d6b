package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "folio"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// ContentWrites counts finished content writes by collection and result (ok|failed).
	ContentWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "content_writes_total", Help: "Content writes by collection and result."},
		[]string{"collection", "result"},
	)
	// ContentWriteFailures counts writes that failed after every retry.
	ContentWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "content_write_failures_total", Help: "Content writes that failed after all retries."},
		[]string{"collection"},
	)
	// ContentRejections counts saves refused before reaching the store (validation, read-only).
	ContentRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "content_rejections_total", Help: "Content saves rejected before any write."},
		[]string{"collection"},
	)
	ActiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "active_subscriptions", Help: "Open document and query subscriptions."},
	)
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "media_uploads_total", Help: "Media uploads by backend and result."},
		[]string{"backend", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ContentWrites)
	reg.MustRegister(ContentWriteFailures)
	reg.MustRegister(ContentRejections)
	reg.MustRegister(ActiveSubscriptions)
	reg.MustRegister(MediaUploads)
}
