package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDefaultConfig_ScorerWeightsSumToOne(t *testing.T) {
	s := DefaultConfig().Scorer
	sum := s.LiquidityWeight + s.InefficiencyWeight + s.ResearchabilityWeight + s.TimingWeight
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("expected weights to sum to 1, got %f", sum)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Refresh.MaxMarkets != 100 {
		t.Errorf("expected default max_markets 100, got %d", cfg.Refresh.MaxMarkets)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[refresh]
source = "demo"
interval = "2m"

[detector.arbitrage]
tolerance = 0.05

[stats]
high_confidence = 75
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Refresh.Source != "demo" {
		t.Errorf("expected source demo, got %s", cfg.Refresh.Source)
	}
	if cfg.Refresh.Interval.Duration != 2*time.Minute {
		t.Errorf("expected 2m interval, got %v", cfg.Refresh.Interval.Duration)
	}
	if cfg.Detector.Arbitrage.Tolerance != 0.05 {
		t.Errorf("expected tolerance 0.05, got %f", cfg.Detector.Arbitrage.Tolerance)
	}
	if !cfg.Detector.Arbitrage.Enabled {
		t.Error("expected untouched fields to keep their defaults")
	}
	if cfg.Stats.HighConfidence != 75 {
		t.Errorf("expected high_confidence 75, got %d", cfg.Stats.HighConfidence)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EDGEFINDER_MAX_MARKETS", "250")
	t.Setenv("EDGEFINDER_REFRESH_INTERVAL", "90s")
	t.Setenv("EDGEFINDER_KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Refresh.MaxMarkets != 250 {
		t.Errorf("expected 250, got %d", cfg.Refresh.MaxMarkets)
	}
	if cfg.Refresh.Interval.Duration != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.Refresh.Interval.Duration)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_RejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[refresh\nsource ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Refresh.Source = "kalshi"
	cfg.Refresh.MaxMarkets = 0
	cfg.Research.Deadband = 2
	cfg.Kafka.Enabled = true

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"refresh.source", "refresh.max_markets", "research.deadband", "kafka.brokers"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got %v", want, err)
		}
	}
}

func TestValidate_WeightErrorsAreOrdered(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scorer.LiquidityWeight = -1
	cfg.Scorer.InefficiencyWeight = -1
	cfg.Scorer.ResearchabilityWeight = -1
	cfg.Scorer.TimingWeight = -1

	first := cfg.Validate()
	if first == nil {
		t.Fatal("expected validation error")
	}
	for i := 0; i < 20; i++ {
		if err := cfg.Validate(); err.Error() != first.Error() {
			t.Fatalf("error text changed between runs:\n%v\n%v", first, err)
		}
	}
	msg := first.Error()
	if !(strings.Index(msg, "liquidity_weight") < strings.Index(msg, "inefficiency_weight") &&
		strings.Index(msg, "inefficiency_weight") < strings.Index(msg, "researchability_weight") &&
		strings.Index(msg, "researchability_weight") < strings.Index(msg, "timing_weight")) {
		t.Errorf("weights reported out of order: %v", msg)
	}
}

func TestValidate_LockTTLMustCoverRefreshTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Refresh.Timeout = Duration{10 * time.Minute}
	cfg.Refresh.LockTTL = Duration{5 * time.Minute}

	if err := cfg.Validate(); err != nil {
		t.Errorf("lock ttl is irrelevant without redis, got %v", err)
	}

	cfg.Redis.Enabled = true
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "refresh.lock_ttl") {
		t.Fatalf("expected lock_ttl error, got %v", err)
	}

	cfg.Refresh.LockTTL = Duration{10 * time.Minute}
	if err := cfg.Validate(); err != nil {
		t.Errorf("equal ttl and timeout should pass, got %v", err)
	}
}
