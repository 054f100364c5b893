package monitoring

import (
	"strconv"
	"sync"
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

	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_sessions_started_total",
			Help: "Number of exam sessions started",
		},
	)

	AnswersSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_answers_saved_total",
			Help: "Number of answers written (including overwrites)",
		},
	)

	SessionsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_sessions_submitted_total",
			Help: "Number of exam sessions closed",
		},
		[]string{"mode"},
	)

	MatricesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exam_matrices_generated_total",
			Help: "Number of matrices generated",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "exam_ws_connections",
			Help: "Number of open exam timer websocket connections",
		},
	)

	ResultsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_results_created_total",
			Help: "Number of exam results written",
		},
		[]string{"passed"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SessionsStarted,
			AnswersSaved,
			SessionsSubmitted,
			MatricesGenerated,
			ResultsCreated,
			WSConnections,
		)
	})
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
