// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Ingestion metrics
	ArticlesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_articles_ingested_total",
			Help: "Articles inserted by the ingestion cycle",
		},
		[]string{"source"},
	)

	ArticlesDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_articles_duplicate_total",
			Help: "Feed items skipped because their URL was already stored",
		},
		[]string{"source"},
	)

	FeedFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_feed_fetch_failures_total",
			Help: "Feed fetch or parse failures",
		},
		[]string{"source"},
	)

	// Retention metrics
	RetentionDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_retention_deleted_total",
			Help: "Rows removed by the retention sweep",
		},
		[]string{"kind"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsflow_job_duration_seconds",
			Help:    "Background job run time in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"job"},
	)

	// NATS metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsflow_events_published_total",
			Help: "Events published to NATS",
		},
		[]string{"subject", "status"},
	)
)
