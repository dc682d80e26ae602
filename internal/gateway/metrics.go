package gateway

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attestprotocol/attest/internal/evidence"
)

var (
	attestRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attest_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	attestRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attest_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	attestOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attest_evidence_operations_total",
		Help: "Evidence operations by kind and outcome.",
	}, []string{"operation", "outcome"})
)

// PrometheusMiddleware returns a Gin middleware recording per-request
// metrics.
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

		attestRequestsTotal.WithLabelValues(method, path, status).Inc()
		attestRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler serving Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordOperation records one evidence operation outcome, labelled by
// its taxonomy bucket.
func RecordOperation(operation string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, evidence.ErrTimeout):
		outcome = "timeout"
	case errors.Is(err, evidence.ErrContractRejected):
		outcome = "contract_rejected"
	case errors.Is(err, evidence.ErrEvidence):
		outcome = "undecodable"
	default:
		outcome = "execution_error"
	}
	attestOperationsTotal.WithLabelValues(operation, outcome).Inc()
}
