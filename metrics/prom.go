package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastebin_paste_delivered_total",
			Help: "no. of pastes delivered to readers",
		},
		[]string{"mode"}, // one_time | multi_view
	)
	PasteNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_paste_not_found_total",
		Help: "no. of reads that found nothing",
	})
	PasteExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_paste_expired_total",
		Help: "no. of reads that hit an expired paste",
	})
	LazyExpiryDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pastebin_lazy_expiry_deletes_total",
		Help: "no. of expired records deleted by the read-time check",
	})
	ValidationRejects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastebin_validation_rejects_total",
			Help: "no. of creates rejected by validation",
		},
		[]string{"code"},
	)
	SecurityPatternHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastebin_security_pattern_hits_total",
			Help: "no. of suspicious-pattern detections",
		},
		[]string{"pattern", "severity"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pastebin_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pastebin_rate_limit_hits_total",
			Help: "no. of rate limit violations",
		},
		[]string{"endpoint"},
	)
	RecentErrorRatePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pastebin_recent_error_rate_percent",
		Help: "5min rolling avg error rate percentage",
	})
)
