// Package metrics exposes the gateway's Prometheus instrumentation and the
// standalone metrics listener.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RelayQueries counts individual relay queries by outcome.
	RelayQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nostrvalley",
		Name:      "relay_queries_total",
		Help:      "Individual relay queries issued by the aggregation layer.",
	}, []string{"relay", "outcome"})

	// EventsFetched counts raw events returned by relays, before dedup.
	EventsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nostrvalley",
		Name:      "events_fetched_total",
		Help:      "Raw events returned by relays before deduplication.",
	})

	// EventsDeduplicated counts events dropped as duplicate ids.
	EventsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nostrvalley",
		Name:      "events_deduplicated_total",
		Help:      "Events dropped by id deduplication.",
	})

	// QueryDuration observes wall time of aggregated multi-relay queries.
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nostrvalley",
		Name:      "aggregate_query_duration_seconds",
		Help:      "Wall time of aggregated multi-relay queries.",
		Buckets:   prometheus.DefBuckets,
	})

	// PublishResults counts publish attempts by outcome.
	PublishResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nostrvalley",
		Name:      "publish_total",
		Help:      "Publish attempts by outcome.",
	}, []string{"outcome"})

	// FeedCacheHits counts feed cache lookups by result.
	FeedCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nostrvalley",
		Name:      "feed_cache_lookups_total",
		Help:      "Feed cache lookups by result.",
	}, []string{"feed", "result"})
)

// MetricsServer serves the Prometheus registry on its own listener so the
// public API surface stays free of operational endpoints.
type MetricsServer struct {
	log *slog.Logger
	srv *http.Server
}

// New creates a metrics server listening on addr. An empty addr disables
// the server; Start and Shutdown become no-ops.
func New(addr string, log *slog.Logger) *MetricsServer {
	if log == nil {
		log = slog.Default()
	}
	if addr == "" {
		return &MetricsServer{log: log}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{
		log: log,
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Start begins serving in the background.
func (m *MetricsServer) Start() {
	if m.srv == nil {
		return
	}
	go func() {
		if err := m.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.log.Error("Metrics server failed", "err", err)
		}
	}()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	if m.srv == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}
