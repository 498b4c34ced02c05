package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 毕业状态检测相关指标
	StudentsAnalyzed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "detector_students_analyzed_total",
			Help: "Total number of student status analyses",
		},
	)

	StatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_status_changes_total",
			Help: "Status transitions produced by the detector",
		},
		[]string{"to"},
	)

	SweepFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "detector_sweep_failures_total",
			Help: "Per-student analysis failures during batch sweeps",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(StudentsAnalyzed)
	prometheus.MustRegister(StatusChanges)
	prometheus.MustRegister(SweepFailures)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
