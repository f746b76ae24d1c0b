package performance

import (
	"context"
	"testing"
	"time"

	"edgefinder/internal/collector"
	"edgefinder/internal/db"
	"edgefinder/internal/store"
)

func TestTracker_EmptyLog(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}

	r, err := NewTracker(database).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.TotalRuns != 0 || r.SuccessRate != 0 || r.LastSuccess != nil || r.LastFailure != nil {
		t.Errorf("unexpected report on empty log: %+v", r)
	}
	LogReport(r)
}

func TestTracker_SummarizesRuns(t *testing.T) {
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	c := collector.NewCollector(database)
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	runs := []store.Run{
		{ID: "1", Source: "polymarket", Status: store.RunSucceeded, StartedAt: base, FinishedAt: base.Add(2 * time.Second), Markets: 100, Opportunities: 10},
		{ID: "2", Source: "polymarket", Status: store.RunSucceeded, StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + 4*time.Second), Markets: 80, Opportunities: 6},
		{ID: "3", Source: "polymarket", Status: store.RunFailed, StartedAt: base.Add(2 * time.Hour), FinishedAt: base.Add(2*time.Hour + 3*time.Second), Error: "timeout"},
		{ID: "4", Source: "demo", Status: store.RunSucceeded, StartedAt: base.Add(3 * time.Hour), FinishedAt: base.Add(3*time.Hour + 3*time.Second), Markets: 5, Opportunities: 4},
	}
	for _, r := range runs {
		if err := c.RecordRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	r, err := NewTracker(database).Generate(ctx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if r.TotalRuns != 4 || r.Succeeded != 3 || r.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 4/3/1", r.TotalRuns, r.Succeeded, r.Failed)
	}
	if r.SuccessRate != 0.75 {
		t.Errorf("success rate = %v, want 0.75", r.SuccessRate)
	}
	if r.AvgDuration != 3*time.Second {
		t.Errorf("avg duration = %v, want 3s", r.AvgDuration)
	}
	if r.LastSuccess == nil || !r.LastSuccess.Equal(runs[3].FinishedAt) {
		t.Errorf("last success = %v", r.LastSuccess)
	}
	if r.LastFailure == nil || r.LastError != "timeout" {
		t.Errorf("last failure = %v %q", r.LastFailure, r.LastError)
	}

	poly := r.SourceStats["polymarket"]
	if poly.Runs != 3 || poly.Succeeded != 2 || poly.AvgMarkets != 90 || poly.AvgOpportunities != 8 {
		t.Errorf("polymarket stats = %+v", poly)
	}
	LogReport(r)
}
