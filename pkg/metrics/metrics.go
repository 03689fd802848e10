package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	SOAPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rkd_soap_requests_total",
			Help: "Total number of SOAP requests sent to RKD",
		},
		[]string{"action", "outcome"},
	)
	SOAPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rkd_soap_request_duration_seconds",
			Help:    "SOAP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	TokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rkd_token_refresh_total",
			Help: "Total number of service token requests by outcome",
		},
		[]string{"outcome"},
	)
	TokenRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rkd_token_refresh_duration_seconds",
			Help:    "Service token request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	RedisOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	RedisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_errors_total",
			Help: "Total number of failed Redis operations",
		},
		[]string{"operation"},
	)
)

var once sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(SOAPRequestsTotal)
		prometheus.MustRegister(SOAPRequestDuration)
		prometheus.MustRegister(TokenRefreshTotal)
		prometheus.MustRegister(TokenRefreshDuration)
		prometheus.MustRegister(RedisOperationDuration)
		prometheus.MustRegister(RedisErrorsTotal)
	})
}
