package metrics

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"edgefinder/internal/domain"
	"edgefinder/internal/store"
)

func TestRecorder_RefreshCompleted(t *testing.T) {
	r := New(prometheus.NewRegistry())
	start := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	snap := &store.Snapshot{
		Generation:  4,
		Markets:     make([]domain.Market, 12),
		Predictions: make([]domain.Prediction, 12),
		Rejected:    make([]domain.Rejection, 1),
		UpdatedAt:   start.Add(3 * time.Second),
		Stats: domain.Stats{
			OpportunitiesByType: map[string]int{"arbitrage": 2, "volume_signal": 1},
		},
	}
	run := store.Run{Source: "polymarket", Status: store.RunSucceeded, StartedAt: start, FinishedAt: start.Add(3 * time.Second)}
	if err := r.RefreshCompleted(context.Background(), run, snap); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(r.refreshesTotal.WithLabelValues("polymarket", "succeeded")); got != 1 {
		t.Errorf("refreshes_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.generation); got != 4 {
		t.Errorf("generation = %v, want 4", got)
	}
	if got := testutil.ToFloat64(r.marketsLoaded); got != 12 {
		t.Errorf("markets_loaded = %v, want 12", got)
	}
	if got := testutil.ToFloat64(r.opportunities.WithLabelValues("arbitrage")); got != 2 {
		t.Errorf("arbitrage opportunities = %v, want 2", got)
	}

	failed := store.Run{Source: "polymarket", Status: store.RunFailed, StartedAt: start, FinishedAt: start.Add(time.Second)}
	if err := r.RefreshCompleted(context.Background(), failed, nil); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(r.refreshesTotal.WithLabelValues("polymarket", "failed")); got != 1 {
		t.Errorf("failed refreshes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.generation); got != 4 {
		t.Errorf("a failed refresh must not move the generation gauge, got %v", got)
	}
}

func TestRecorder_ObserveHTTP(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.ObserveHTTP("/api/markets", http.MethodGet, http.StatusOK, 20*time.Millisecond)
	r.ObserveHTTP("/api/markets", http.MethodGet, http.StatusOK, 30*time.Millisecond)
	r.ObserveHTTP("/api/refresh", http.MethodPost, http.StatusConflict, time.Millisecond)

	if got := testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/markets", "GET", "200")); got != 2 {
		t.Errorf("GET /api/markets 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/refresh", "POST", "409")); got != 1 {
		t.Errorf("POST /api/refresh 409 = %v, want 1", got)
	}
}

func TestStatusClass(t *testing.T) {
	for code, want := range map[int]string{101: "1xx", 204: "2xx", 304: "3xx", 404: "4xx", 503: "5xx"} {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %s, want %s", code, got, want)
		}
	}
}
