package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	General    GeneralConfig    `toml:"general"`
	Server     ServerConfig     `toml:"server"`
	Refresh    RefreshConfig    `toml:"refresh"`
	Scorer     ScorerConfig     `toml:"scorer"`
	Detector   DetectorConfig   `toml:"detector"`
	Research   ResearchConfig   `toml:"research"`
	Stats      StatsConfig      `toml:"stats"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Manifold   ManifoldConfig   `toml:"manifold"`
	Redis      RedisConfig      `toml:"redis"`
	Kafka      KafkaConfig      `toml:"kafka"`
	Report     ReportConfig     `toml:"report"`
}

type GeneralConfig struct {
	DBPath   string `toml:"db_path"`
	LogLevel string `toml:"log_level"`
}

type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// RefreshConfig controls the refresh cycle. Source is one of polymarket,
// manifold or demo.
type RefreshConfig struct {
	Source          string   `toml:"source"`
	Interval        Duration `toml:"interval"`
	Timeout         Duration `toml:"timeout"`
	OnStart         bool     `toml:"on_start"`
	MaxMarkets      int      `toml:"max_markets"`
	MinVolume       float64  `toml:"min_volume"`
	FetchOrderbooks bool     `toml:"fetch_orderbooks"`
	LockTTL         Duration `toml:"lock_ttl"`
}

type ScorerConfig struct {
	LiquidityWeight       float64 `toml:"liquidity_weight"`
	InefficiencyWeight    float64 `toml:"inefficiency_weight"`
	ResearchabilityWeight float64 `toml:"researchability_weight"`
	TimingWeight          float64 `toml:"timing_weight"`
	MinLiquidity          float64 `toml:"min_liquidity"`
	IdealLiquidity        float64 `toml:"ideal_liquidity"`
}

type DetectorConfig struct {
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Mispricing MispricingConfig `toml:"mispricing"`
	Temporal   TemporalConfig   `toml:"temporal"`
	Volume     VolumeConfig     `toml:"volume"`
	Liquidity  LiquidityConfig  `toml:"liquidity"`
}

type ArbitrageConfig struct {
	Enabled         bool    `toml:"enabled"`
	Tolerance       float64 `toml:"tolerance"`
	MultiTolerance  float64 `toml:"multi_tolerance"`
	BaseConfidence  float64 `toml:"base_confidence"`
	ConfidenceSlope float64 `toml:"confidence_slope"`
	MaxConfidence   float64 `toml:"max_confidence"`
	FeePct          float64 `toml:"fee_pct"`
}

type MispricingConfig struct {
	Enabled           bool    `toml:"enabled"`
	MinDivergence     float64 `toml:"min_divergence"`
	LongshotThreshold float64 `toml:"longshot_threshold"`
	LongshotDiscount  float64 `toml:"longshot_discount"`
	BaseConfidence    float64 `toml:"base_confidence"`
	ConfidenceSlope   float64 `toml:"confidence_slope"`
	MaxConfidence     float64 `toml:"max_confidence"`
}

type TemporalConfig struct {
	Enabled            bool    `toml:"enabled"`
	LadderGap          float64 `toml:"ladder_gap"`
	LadderConfidence   float64 `toml:"ladder_confidence"`
	NearResolutionDays int     `toml:"near_resolution_days"`
	UncertaintyBand    float64 `toml:"uncertainty_band"`
	NearConfidence     float64 `toml:"near_confidence"`
}

type VolumeConfig struct {
	Enabled         bool    `toml:"enabled"`
	MinRatio        float64 `toml:"min_ratio"`
	BaseConfidence  float64 `toml:"base_confidence"`
	ConfidenceSlope float64 `toml:"confidence_slope"`
	MaxConfidence   float64 `toml:"max_confidence"`
}

type LiquidityConfig struct {
	Enabled      bool    `toml:"enabled"`
	MinSpreadPct float64 `toml:"min_spread_pct"`
	MaxLiquidity float64 `toml:"max_liquidity"`
	MinVolume    float64 `toml:"min_volume"`
	Confidence   float64 `toml:"confidence"`
}

type ResearchConfig struct {
	Deadband          float64 `toml:"deadband"`
	StrongEdge        float64 `toml:"strong_edge"`
	PoliticsReversion float64 `toml:"politics_reversion"`
}

type StatsConfig struct {
	HighConfidence int `toml:"high_confidence"`
}

type PolymarketConfig struct {
	GammaURL             string   `toml:"gamma_url"`
	ClobURL              string   `toml:"clob_url"`
	EventURL             string   `toml:"event_url"`
	RequestsPerSecond    float64  `toml:"requests_per_second"`
	RequestTimeout       Duration `toml:"request_timeout"`
	OrderbookConcurrency int      `toml:"orderbook_concurrency"`
	SpreadCacheTTL       Duration `toml:"spread_cache_ttl"`
}

type ManifoldConfig struct {
	ContractType string `toml:"contract_type"`
}

type RedisConfig struct {
	Enabled   bool   `toml:"enabled"`
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	PoolSize  int    `toml:"pool_size"`
	KeyPrefix string `toml:"key_prefix"`
}

type KafkaConfig struct {
	Enabled     bool     `toml:"enabled"`
	Brokers     []string `toml:"brokers"`
	Topic       string   `toml:"topic"`
	Compression string   `toml:"compression"`
}

type ReportConfig struct {
	Interval Duration `toml:"interval"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			DBPath:   "./data/edgefinder.db",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{30 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
			AllowedOrigins:  []string{"*"},
		},
		Refresh: RefreshConfig{
			Source:          "polymarket",
			Interval:        Duration{0},
			Timeout:         Duration{5 * time.Minute},
			MaxMarkets:      100,
			MinVolume:       500,
			FetchOrderbooks: true,
			LockTTL:         Duration{10 * time.Minute},
		},
		Scorer: ScorerConfig{
			LiquidityWeight:       0.25,
			InefficiencyWeight:    0.30,
			ResearchabilityWeight: 0.25,
			TimingWeight:          0.20,
			MinLiquidity:          1000,
			IdealLiquidity:        50000,
		},
		Detector: DetectorConfig{
			Arbitrage: ArbitrageConfig{
				Enabled:         true,
				Tolerance:       0.02,
				MultiTolerance:  0.05,
				BaseConfidence:  60,
				ConfidenceSlope: 400,
				MaxConfidence:   99,
				FeePct:          2,
			},
			Mispricing: MispricingConfig{
				Enabled:           true,
				MinDivergence:     0.03,
				LongshotThreshold: 0.15,
				LongshotDiscount:  0.50,
				BaseConfidence:    50,
				ConfidenceSlope:   300,
				MaxConfidence:     85,
			},
			Temporal: TemporalConfig{
				Enabled:            true,
				LadderGap:          0.03,
				LadderConfidence:   85,
				NearResolutionDays: 3,
				UncertaintyBand:    0.15,
				NearConfidence:     60,
			},
			Volume: VolumeConfig{
				Enabled:         true,
				MinRatio:        3.0,
				BaseConfidence:  55,
				ConfidenceSlope: 5,
				MaxConfidence:   80,
			},
			Liquidity: LiquidityConfig{
				Enabled:      true,
				MinSpreadPct: 3.0,
				MaxLiquidity: 25000,
				MinVolume:    0,
				Confidence:   65,
			},
		},
		Research: ResearchConfig{
			Deadband:          0.02,
			StrongEdge:        0.10,
			PoliticsReversion: 0.03,
		},
		Stats: StatsConfig{
			HighConfidence: 80,
		},
		Polymarket: PolymarketConfig{
			GammaURL:             "https://gamma-api.polymarket.com",
			ClobURL:              "https://clob.polymarket.com",
			EventURL:             "https://polymarket.com/event/",
			RequestsPerSecond:    2,
			RequestTimeout:       Duration{15 * time.Second},
			OrderbookConcurrency: 4,
			SpreadCacheTTL:       Duration{5 * time.Minute},
		},
		Manifold: ManifoldConfig{
			ContractType: "",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "edgefinder:",
		},
		Kafka: KafkaConfig{
			Topic:       "edgefinder.refresh",
			Compression: "gzip",
		},
		Report: ReportConfig{
			Interval: Duration{1 * time.Hour},
		},
	}
}

var validSources = map[string]bool{"polymarket": true, "manifold": true, "demo": true}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []string

	if !validSources[strings.ToLower(c.Refresh.Source)] {
		errs = append(errs, fmt.Sprintf("refresh.source %q is not one of polymarket, manifold, demo", c.Refresh.Source))
	}
	if c.Refresh.MaxMarkets < 1 {
		errs = append(errs, "refresh.max_markets must be positive")
	}
	if c.Refresh.MinVolume < 0 {
		errs = append(errs, "refresh.min_volume must not be negative")
	}
	if c.Refresh.Interval.Duration < 0 {
		errs = append(errs, "refresh.interval must not be negative")
	}
	if c.Refresh.Timeout.Duration <= 0 {
		errs = append(errs, "refresh.timeout must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	s := c.Scorer
	weights := []struct {
		name  string
		value float64
	}{
		{"liquidity_weight", s.LiquidityWeight},
		{"inefficiency_weight", s.InefficiencyWeight},
		{"researchability_weight", s.ResearchabilityWeight},
		{"timing_weight", s.TimingWeight},
	}
	for _, w := range weights {
		if w.value < 0 {
			errs = append(errs, fmt.Sprintf("scorer.%s must not be negative", w.name))
		}
	}
	if s.IdealLiquidity <= s.MinLiquidity {
		errs = append(errs, "scorer.ideal_liquidity must exceed scorer.min_liquidity")
	}

	if c.Detector.Arbitrage.Tolerance < 0 || c.Detector.Arbitrage.MultiTolerance < 0 {
		errs = append(errs, "detector.arbitrage tolerances must not be negative")
	}
	if c.Detector.Volume.MinRatio <= 0 {
		errs = append(errs, "detector.volume.min_ratio must be positive")
	}
	if c.Research.Deadband < 0 || c.Research.Deadband >= 1 {
		errs = append(errs, "research.deadband must be in [0,1)")
	}
	if c.Stats.HighConfidence < 0 || c.Stats.HighConfidence > 100 {
		errs = append(errs, "stats.high_confidence must be in [0,100]")
	}
	if c.Polymarket.RequestsPerSecond <= 0 {
		errs = append(errs, "polymarket.requests_per_second must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required when redis is enabled")
	}
	// The refresh lock must outlive the longest refresh it guards.
	if c.Redis.Enabled && c.Refresh.LockTTL.Duration < c.Refresh.Timeout.Duration {
		errs = append(errs, fmt.Sprintf("refresh.lock_ttl %s must be at least refresh.timeout %s",
			c.Refresh.LockTTL.Duration, c.Refresh.Timeout.Duration))
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		errs = append(errs, "kafka.brokers and kafka.topic are required when kafka is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
