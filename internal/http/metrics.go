package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sujalbistaa/postscore/internal/models"
	"github.com/sujalbistaa/postscore/internal/scoring"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	scoresTotal         *prometheus.CounterVec
	scoreValues         *prometheus.HistogramVec
	cacheEvents         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postscore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "postscore_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		scoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postscore_scores_total",
				Help: "Score requests by platform and outcome",
			},
			[]string{"platform", "outcome"},
		),
		scoreValues: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "postscore_score_value",
				Help:    "Distribution of returned scores",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
			[]string{"platform"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postscore_score_cache_events_total",
				Help: "Score cache hits, misses and errors",
			},
			[]string{"event"},
		),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.scoresTotal,
		m.scoreValues,
		m.cacheEvents,
		collectors.NewGoCollector(),
	)
	return m
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// ObserveScore counts one scoring outcome; res is nil on failure.
func (m *Metrics) ObserveScore(platform models.Platform, outcome string, res *scoring.Result) {
	if m == nil {
		return
	}
	m.scoresTotal.WithLabelValues(string(platform), outcome).Inc()
	if res != nil {
		m.scoreValues.WithLabelValues(string(platform)).Observe(float64(res.Score))
	}
}

// CacheHooks feeds score cache traffic into the cache counter.
func (m *Metrics) CacheHooks() scoring.CacheHooks {
	if m == nil {
		return scoring.CacheHooks{}
	}
	return scoring.CacheHooks{
		OnHit:   func() { m.cacheEvents.WithLabelValues("hit").Inc() },
		OnMiss:  func() { m.cacheEvents.WithLabelValues("miss").Inc() },
		OnError: func() { m.cacheEvents.WithLabelValues("error").Inc() },
	}
}
