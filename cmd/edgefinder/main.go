package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonnyspicer/mango"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"edgefinder/internal/cache/redis"
	"edgefinder/internal/collector"
	"edgefinder/internal/config"
	"edgefinder/internal/db"
	"edgefinder/internal/engine"
	"edgefinder/internal/events"
	"edgefinder/internal/market"
	"edgefinder/internal/metrics"
	"edgefinder/internal/performance"
	"edgefinder/internal/scheduler"
	"edgefinder/internal/server"
	"edgefinder/internal/store"
)

var version = "dev"

func main() {
	defaultPath := "config.toml"
	if p := os.Getenv("EDGEFINDER_CONFIG_PATH"); p != "" {
		defaultPath = p
	}
	configPath := flag.String("config", defaultPath, "Path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.General.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	slog.Info("edgefinder starting", "version", version, "source", cfg.Refresh.Source)

	if err := run(cfg); err != nil {
		slog.Error("edgefinder stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("edgefinder stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.General.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database initialized", "path", cfg.General.DBPath)

	coll := collector.NewCollector(database)
	tracker := performance.NewTracker(database)
	recorder := metrics.New(prometheus.DefaultRegisterer)

	storeOpts := []store.Option{
		store.WithTimeout(cfg.Refresh.Timeout.Duration),
		store.WithObservers(coll, recorder),
	}

	var spreadBacking market.SpreadStore
	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			PoolSize:  cfg.Redis.PoolSize,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rc.Close()

		storeOpts = append(storeOpts, store.WithLocker(redis.NewLockManager(rc), "refresh", cfg.Refresh.LockTTL.Duration))
		spreadBacking = redis.NewSpreadCache(rc)
		slog.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	if cfg.Kafka.Enabled {
		producer, err := events.NewProducer(
			events.WithBrokers(cfg.Kafka.Brokers),
			events.WithCompression(cfg.Kafka.Compression),
		)
		if err != nil {
			return fmt.Errorf("creating kafka producer: %w", err)
		}
		defer producer.Close()

		storeOpts = append(storeOpts, store.WithObservers(events.NewRefreshPublisher(producer, cfg.Kafka.Topic)))
		slog.Info("kafka publishing enabled", "topic", cfg.Kafka.Topic)
	}

	spreads := market.NewSpreadCache(cfg.Polymarket.SpreadCacheTTL.Duration, spreadBacking)
	source, err := newSource(cfg, spreads)
	if err != nil {
		return err
	}

	eng := engine.NewFromConfig(cfg)
	st := store.New(eng, cfg.Stats, storeOpts...)
	defer st.Close()

	if err := restoreSnapshot(ctx, coll, st); err != nil {
		slog.Warn("could not restore last snapshot", "error", err)
	}

	api := server.NewAPIHandler(st, source, market.NewDemoSource(), cfg.Refresh,
		server.WithRunLog(coll, tracker),
		server.WithVersion(version),
	)
	srv := server.NewServer(api,
		server.WithHost(cfg.Server.Host),
		server.WithPort(cfg.Server.Port),
		server.WithTimeouts(cfg.Server.ReadTimeout.Duration, cfg.Server.WriteTimeout.Duration, cfg.Server.ShutdownTimeout.Duration),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		server.WithMetrics(recorder),
	)
	sched := scheduler.New(st, source, tracker, cfg.Refresh, cfg.Report)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		if err := sched.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		pruneSpreads(gctx, spreads, cfg.Polymarket.SpreadCacheTTL.Duration)
		return nil
	})

	return g.Wait()
}

func newSource(cfg *config.Config, spreads *market.SpreadCache) (market.Source, error) {
	switch strings.ToLower(cfg.Refresh.Source) {
	case "polymarket":
		return market.NewPolymarketSource(cfg.Polymarket, spreads), nil
	case "manifold":
		return market.NewManifoldSource(mango.DefaultClientInstance(), cfg.Manifold), nil
	case "demo":
		return market.NewDemoSource(), nil
	default:
		return nil, fmt.Errorf("unknown refresh source %q", cfg.Refresh.Source)
	}
}

func restoreSnapshot(ctx context.Context, coll *collector.Collector, st *store.Store) error {
	snap, err := coll.LoadLatest(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	if st.Restore(snap) {
		slog.Info("restored snapshot", "generation", snap.Generation, "markets", len(snap.Markets), "source", snap.Source)
	}
	return nil
}

func pruneSpreads(ctx context.Context, spreads *market.SpreadCache, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := spreads.Prune(); n > 0 {
				slog.Debug("pruned spread cache", "entries", n)
			}
		}
	}
}
