// Package metrics exposes the process's Prometheus instrumentation. All
// metrics register with the default registry at init; mount Handler at
// GET /metrics to scrape them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPRequests counts API requests by method, templated path and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rinkside_http_requests_total",
	Help: "API requests handled.",
}, []string{"method", "path", "status"})

// HTTPDuration tracks API request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "rinkside_http_request_duration_seconds",
	Help:    "API request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path"})

// LiveListeners is the number of games with an active live listener.
var LiveListeners = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rinkside_live_listeners",
	Help: "Games currently followed by a live listener.",
})

// WSClients is the number of connected websocket clients.
var WSClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "rinkside_ws_clients",
	Help: "Connected websocket clients.",
})

// BusMessages counts published bus messages by type.
var BusMessages = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rinkside_bus_messages_total",
	Help: "Messages published on the internal bus.",
}, []string{"type"})

// ReportWrites counts persisted live report updates.
var ReportWrites = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rinkside_report_writes_total",
	Help: "Live report updates persisted.",
})

// Notifications counts APNs pushes by kind and outcome.
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rinkside_notifications_total",
	Help: "APNs pushes attempted.",
}, []string{"kind", "result"})

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency for every API call. Uses the
// templated route path to keep label cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		HTTPRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
