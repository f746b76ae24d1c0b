package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load decodes the TOML file at path over DefaultConfig, then applies
// EDGEFINDER_* environment overrides (a .env file in the working directory is
// loaded first). A missing file is not an error. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.General.DBPath, "EDGEFINDER_DB_PATH")
	setStr(&cfg.General.LogLevel, "EDGEFINDER_LOG_LEVEL")

	setStr(&cfg.Server.Host, "EDGEFINDER_HOST")
	setInt(&cfg.Server.Port, "EDGEFINDER_PORT")
	setStringSlice(&cfg.Server.AllowedOrigins, "EDGEFINDER_ALLOWED_ORIGINS")
	// FRONTEND_URL is kept for deployments that only configure the dashboard origin.
	if v := os.Getenv("FRONTEND_URL"); v != "" && !contains(cfg.Server.AllowedOrigins, "*") {
		cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, v)
	}

	setStr(&cfg.Refresh.Source, "EDGEFINDER_REFRESH_SOURCE")
	setDuration(&cfg.Refresh.Interval, "EDGEFINDER_REFRESH_INTERVAL")
	setDuration(&cfg.Refresh.Timeout, "EDGEFINDER_REFRESH_TIMEOUT")
	setBool(&cfg.Refresh.OnStart, "EDGEFINDER_REFRESH_ON_START")
	setInt(&cfg.Refresh.MaxMarkets, "EDGEFINDER_MAX_MARKETS")
	setFloat64(&cfg.Refresh.MinVolume, "EDGEFINDER_MIN_VOLUME")
	setBool(&cfg.Refresh.FetchOrderbooks, "EDGEFINDER_FETCH_ORDERBOOKS")

	setFloat64(&cfg.Research.Deadband, "EDGEFINDER_DEADBAND")
	setInt(&cfg.Stats.HighConfidence, "EDGEFINDER_HIGH_CONFIDENCE")

	setStr(&cfg.Polymarket.GammaURL, "EDGEFINDER_GAMMA_URL")
	setStr(&cfg.Polymarket.ClobURL, "EDGEFINDER_CLOB_URL")
	setFloat64(&cfg.Polymarket.RequestsPerSecond, "EDGEFINDER_REQUESTS_PER_SECOND")

	setBool(&cfg.Redis.Enabled, "EDGEFINDER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "EDGEFINDER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "EDGEFINDER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "EDGEFINDER_REDIS_DB")

	setBool(&cfg.Kafka.Enabled, "EDGEFINDER_KAFKA_ENABLED")
	setStringSlice(&cfg.Kafka.Brokers, "EDGEFINDER_KAFKA_BROKERS")
	setStr(&cfg.Kafka.Topic, "EDGEFINDER_KAFKA_TOPIC")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		*dst = cleaned
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
