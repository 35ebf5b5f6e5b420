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

	CatalogUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_uploads_total",
			Help: "Admin catalog uploads by outcome",
		},
		[]string{"program", "category", "result"},
	)

	QuizScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_scored_total",
			Help: "Quiz attempts scored",
		},
		[]string{"program"},
	)

	CalculatorRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculator_runs_total",
			Help: "Plant population calculations",
		},
		[]string{"state"},
	)
)

var initOnce sync.Once

// Init 可以被多次调用（测试里会重复构建路由）
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, CatalogUploads, QuizScored, CalculatorRuns)
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
