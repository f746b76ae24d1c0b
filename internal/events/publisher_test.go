package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"edgefinder/internal/domain"
	"edgefinder/internal/store"
)

type capturePublisher struct {
	topic string
	key   []byte
	value any
}

func (c *capturePublisher) Publish(_ context.Context, topic string, key []byte, value any) error {
	c.topic, c.key, c.value = topic, key, value
	return nil
}

func TestRefreshPublisher_Success(t *testing.T) {
	pub := &capturePublisher{}
	p := NewRefreshPublisher(pub, "edgefinder.refresh")

	var opps []domain.EdgeOpportunity
	for i, c := range []int{60, 90, 70, 90, 50, 85, 65} {
		opps = append(opps, domain.EdgeOpportunity{ID: string(rune('a' + i)), Confidence: c})
	}
	snap := &store.Snapshot{
		Generation:    3,
		Opportunities: opps,
		Stats:         domain.Stats{HighConfidenceOpportunities: 3},
	}
	run := store.Run{ID: "run-1", Source: "polymarket", Status: store.RunSucceeded, Generation: 3, Opportunities: 7}

	if err := p.RefreshCompleted(context.Background(), run, snap); err != nil {
		t.Fatal(err)
	}
	if pub.topic != "edgefinder.refresh" || string(pub.key) != "polymarket" {
		t.Errorf("topic/key = %s/%s", pub.topic, pub.key)
	}

	ev := pub.value.(RefreshEvent)
	if ev.Type != EventRefreshSucceeded || ev.HighConfidence != 3 {
		t.Errorf("unexpected event %+v", ev)
	}
	var ids string
	for _, o := range ev.TopOpportunities {
		ids += o.ID
	}
	if ids != "bdfcg" {
		t.Errorf("top opportunities = %q, want bdfcg", ids)
	}
	if len(snap.Opportunities) != 7 || snap.Opportunities[0].ID != "a" {
		t.Error("snapshot opportunities were reordered")
	}
}

func TestRefreshPublisher_Failure(t *testing.T) {
	pub := &capturePublisher{}
	p := NewRefreshPublisher(pub, "edgefinder.refresh")
	run := store.Run{ID: "run-2", Source: "polymarket", Status: store.RunFailed, Error: "upstream fetch failed",
		StartedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	if err := p.RefreshCompleted(context.Background(), run, nil); err != nil {
		t.Fatal(err)
	}
	ev := pub.value.(RefreshEvent)
	if ev.Type != EventRefreshFailed || ev.Error == "" || ev.TopOpportunities != nil {
		t.Errorf("unexpected event %+v", ev)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["run_id"] != "run-2" || decoded["status"] != "failed" {
		t.Errorf("wire form = %s", data)
	}
	if _, ok := decoded["top_opportunities"]; ok {
		t.Error("failed events should omit top_opportunities")
	}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Error("expected error without brokers")
	}
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if p.writer.Compression != kafka.Zstd {
		t.Errorf("compression = %v, want zstd", p.writer.Compression)
	}
}

func TestParseCompression(t *testing.T) {
	tests := map[string]kafka.Compression{
		"gzip":    kafka.Gzip,
		"snappy":  kafka.Snappy,
		"lz4":     kafka.Lz4,
		"zstd":    kafka.Zstd,
		"unknown": kafka.Gzip,
	}
	for in, want := range tests {
		if got := parseCompression(in); got != want {
			t.Errorf("parseCompression(%q) = %v, want %v", in, got, want)
		}
	}
}
