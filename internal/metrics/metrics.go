// Package metrics exposes refresh and HTTP metrics to Prometheus.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"edgefinder/internal/store"
)

// Recorder holds the service's Prometheus collectors.
type Recorder struct {
	refreshesTotal  *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	generation      prometheus.Gauge
	marketsLoaded   prometheus.Gauge
	rejectedMarkets prometheus.Gauge
	opportunities   *prometheus.GaugeVec
	predictions     prometheus.Gauge
	lastSuccess     prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		refreshesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgefinder_refreshes_total",
				Help: "Finished refreshes by source and status",
			},
			[]string{"source", "status"},
		),
		refreshDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgefinder_refresh_duration_seconds",
				Help:    "Refresh duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"source"},
		),
		generation: f.NewGauge(prometheus.GaugeOpts{
			Name: "edgefinder_snapshot_generation",
			Help: "Generation of the published snapshot",
		}),
		marketsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "edgefinder_markets_loaded",
			Help: "Markets in the published snapshot",
		}),
		rejectedMarkets: f.NewGauge(prometheus.GaugeOpts{
			Name: "edgefinder_markets_rejected",
			Help: "Markets rejected by validation in the last successful refresh",
		}),
		opportunities: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "edgefinder_opportunities",
				Help: "Opportunities in the published snapshot by edge type",
			},
			[]string{"edge_type"},
		),
		predictions: f.NewGauge(prometheus.GaugeOpts{
			Name: "edgefinder_predictions",
			Help: "Predictions in the published snapshot",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "edgefinder_last_success_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		}),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgefinder_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgefinder_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"route", "method", "class"},
		),
	}
}

// RefreshCompleted implements store.Observer.
func (r *Recorder) RefreshCompleted(_ context.Context, run store.Run, snap *store.Snapshot) error {
	r.refreshesTotal.WithLabelValues(run.Source, run.Status).Inc()
	r.refreshDuration.WithLabelValues(run.Source).Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	if snap == nil {
		return nil
	}

	r.generation.Set(float64(snap.Generation))
	r.marketsLoaded.Set(float64(len(snap.Markets)))
	r.rejectedMarkets.Set(float64(len(snap.Rejected)))
	r.predictions.Set(float64(len(snap.Predictions)))
	r.lastSuccess.Set(float64(snap.UpdatedAt.Unix()))

	r.opportunities.Reset()
	for edgeType, n := range snap.Stats.OpportunitiesByType {
		r.opportunities.WithLabelValues(edgeType).Set(float64(n))
	}
	return nil
}

// ObserveHTTP records one request. route should be the route template to
// keep label cardinality low.
func (r *Recorder) ObserveHTTP(route, method string, status int, dur time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method, statusClass(status)).Observe(dur.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Compile-time interface check.
var _ store.Observer = (*Recorder)(nil)
