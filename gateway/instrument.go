package gateway

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "restomarket",
		Subsystem: "request",
		Name:      "requests_count",
		Help:      "Number of requests per each endpoint",
	}, []string{"code", "method", "handler", "url"})

	responseTime = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "restomarket",
		Subsystem: "response",
		Name:      "response_time_hist",
		Help:      "restomarket response duration in milliseconds",
	})

	responseSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "restomarket",
		Subsystem: "response",
		Name:      "size_histogram",
		Help:      "restomarket response size",
	})

	requestSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "restomarket",
		Subsystem: "request",
		Name:      "size_hist",
		Help:      "Request size instrumenter",
	})
)

func init() {
	prometheus.MustRegister(requestsCount, responseTime, responseSize, requestSize)
}

// Instrumentation records per-request prometheus metrics.
func Instrumentation() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := float64(time.Since(start)) * 1e-6 // to millisecond

		status := strconv.Itoa(c.Writer.Status())
		requestsCount.WithLabelValues(status, c.Request.Method, c.HandlerName(), c.Request.URL.Path).Inc()
		responseTime.Observe(duration)
		responseSize.Observe(float64(c.Writer.Size()))
		requestSize.Observe(float64(c.Request.ContentLength))
	}
}
