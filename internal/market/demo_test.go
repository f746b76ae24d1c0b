package market

import (
	"context"
	"testing"
	"time"
)

func TestDemoSource_FreshBatchEachFetch(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDemoSource().WithClock(func() time.Time { return now })

	first, err := d.Fetch(context.Background(), FetchOptions{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(first) != 5 {
		t.Fatalf("got %d markets, want 5", len(first))
	}
	for _, m := range first {
		if err := m.Validate(); err != nil {
			t.Errorf("demo market %s invalid: %v", m.ID, err)
		}
	}
	if got := *first[1].DaysUntil(now); got != 10 {
		t.Errorf("demo-2 days until resolution = %d, want 10", got)
	}
	if !first[2].IsMultiOutcome() {
		t.Error("demo-3 should be multi-outcome")
	}

	first[0].YesPrice = 0.99
	first[2].Outcomes[0].Price = 0.99
	second, _ := d.Fetch(context.Background(), FetchOptions{})
	if second[0].YesPrice != 0.42 || second[2].Outcomes[0].Price != 0.22 {
		t.Error("mutating one batch leaked into the next")
	}
}
