package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Served from a fresh cache entry without a network call.
	CacheHitsTotal prometheus.Counter

	// Lookups that needed a fetch (absent or stale entry).
	CacheMissesTotal prometheus.Counter

	// Entries dropped to stay within capacity. Watch for: steady growth means callers query more than 10 cities.
	CacheEvictionsTotal prometheus.Counter

	// Upstream call rate by outcome (success, client_error, server_error, error).
	WeatherAPICallsTotal *prometheus.CounterVec

	// Upstream latency. Watch for: p99 approaching the transport timeout.
	WeatherAPIDuration *prometheus.HistogramVec

	// Fetch failures surfaced to callers or the poller, by category (network, api, missing_field).
	FetchErrorsTotal *prometheus.CounterVec

	// Background refresh ticks and per-city refresh failures.
	PollRunsTotal   prometheus.Counter
	PollErrorsTotal prometheus.Counter

	// Clients currently held by registries.
	ClientsActive prometheus.Gauge

	// HTTP facade.
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weatherCacheHitsTotal",
		Help: "Total number of weather lookups served from a fresh cache entry",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weatherCacheMissesTotal",
		Help: "Total number of weather lookups that required an upstream fetch",
	})
	CacheEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weatherCacheEvictionsTotal",
		Help: "Total number of cache entries evicted to respect capacity",
	})
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	FetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherFetchErrorsTotal",
			Help: "Total number of failed weather fetches by category",
		},
		[]string{"category"},
	)
	PollRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weatherPollRunsTotal",
		Help: "Total number of background refresh ticks",
	})
	PollErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "weatherPollErrorsTotal",
		Help: "Total number of per-city failures during background refresh",
	})
	ClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "weatherClientsActive",
		Help: "Number of weather clients currently registered",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "httpRequestsInFlight",
		Help: "Number of HTTP requests currently being served",
	})
	RateLimitDeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rateLimitDeniedTotal",
		Help: "Total number of requests denied by rate limiter (429)",
	})

	registry.MustRegister(
		CacheHitsTotal, CacheMissesTotal, CacheEvictionsTotal,
		WeatherAPICallsTotal, WeatherAPIDuration, FetchErrorsTotal,
		PollRunsTotal, PollErrorsTotal, ClientsActive,
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		RateLimitDeniedTotal,
	)
}

// StatusLabel buckets an HTTP status code for weatherApiCallsTotal.
func StatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
