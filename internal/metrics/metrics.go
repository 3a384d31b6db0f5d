package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tasnim.dev/vpc-topology/internal/topology"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry             *prometheus.Registry
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	snapshotBuilds       *prometheus.CounterVec
	snapshotDuration     prometheus.Histogram
	unknownRouteTargets  prometheus.Counter
	unclassifiedENIs     prometheus.Counter
	associationConflicts prometheus.Counter
	ruleCacheLookups     *prometheus.CounterVec
}

// New creates a fresh Metrics registry with HTTP, snapshot and cache metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vpctopo",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests processed",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vpctopo",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		snapshotBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vpctopo",
			Name:      "snapshot_builds_total",
			Help:      "Topology snapshot builds by result",
		}, []string{"result"}),
		snapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vpctopo",
			Name:      "snapshot_build_duration_seconds",
			Help:      "Time spent normalizing and laying out a discovery response",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		unknownRouteTargets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vpctopo",
			Name:      "unknown_route_targets_total",
			Help:      "Routes whose target could not be classified",
		}),
		unclassifiedENIs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vpctopo",
			Name:      "unclassified_enis_total",
			Help:      "Network interfaces with no recognised owning resource",
		}),
		associationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vpctopo",
			Name:      "association_conflicts_total",
			Help:      "Subnets associated with more than one route table",
		}),
		ruleCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vpctopo",
			Name:      "rule_cache_lookups_total",
			Help:      "Security group rule cache lookups by result (hit, miss, shared, error)",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpRequestDuration,
		m.snapshotBuilds,
		m.snapshotDuration,
		m.unknownRouteTargets,
		m.unclassifiedENIs,
		m.associationConflicts,
		m.ruleCacheLookups,
	)
	return m
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveSnapshotBuild records one Build call. stats is ignored when err is set.
func (m *Metrics) ObserveSnapshotBuild(stats topology.Stats, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.snapshotDuration.Observe(duration.Seconds())
	if err != nil {
		m.snapshotBuilds.WithLabelValues("error").Inc()
		return
	}
	m.snapshotBuilds.WithLabelValues("ok").Inc()
	m.unknownRouteTargets.Add(float64(stats.UnknownRouteTargets))
	m.unclassifiedENIs.Add(float64(stats.UnclassifiedENIs))
	m.associationConflicts.Add(float64(stats.AssociationConflicts))
}

// IncRuleCacheLookup counts a rule cache lookup with the given result.
func (m *Metrics) IncRuleCacheLookup(result string) {
	if m == nil {
		return
	}
	m.ruleCacheLookups.WithLabelValues(result).Inc()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
