package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	linkhubRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkhub_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	linkhubRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkhub_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	linkhubUsersRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhub_users_registered_total",
		Help: "Total accounts created.",
	})

	linkhubLinksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhub_links_created_total",
		Help: "Total links created.",
	})

	linkhubClicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkhub_clicks_total",
		Help: "Total click tracking calls by result.",
	}, []string{"result"})

	linkhubLinkProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkhub_link_probes_total",
		Help: "Total link destination health probes by result.",
	}, []string{"result"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		linkhubRequestsTotal.WithLabelValues(method, path, status).Inc()
		linkhubRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordRegistration records a successful account creation.
func RecordRegistration() {
	linkhubUsersRegisteredTotal.Inc()
}

// RecordLinkCreated records a successful link creation.
func RecordLinkCreated() {
	linkhubLinksCreatedTotal.Inc()
}

// RecordClick records a click tracking outcome.
func RecordClick(result string) {
	linkhubClicksTotal.WithLabelValues(result).Inc()
}

// RecordLinkProbe records a link destination probe result.
func RecordLinkProbe(success bool) {
	if success {
		linkhubLinkProbesTotal.WithLabelValues("success").Inc()
	} else {
		linkhubLinkProbesTotal.WithLabelValues("failure").Inc()
	}
}
