package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
	"edgefinder/internal/market"
	"edgefinder/internal/performance"
	"edgefinder/internal/store"
)

// Refresher runs one synchronous refresh.
type Refresher interface {
	Run(ctx context.Context, src market.Source, opts market.FetchOptions) (*store.Snapshot, error)
}

// ReportGenerator summarizes past refresh runs.
type ReportGenerator interface {
	Generate(ctx context.Context) (*performance.Report, error)
}

// Scheduler drives periodic refreshes and run reports.
type Scheduler struct {
	refresher Refresher
	source    market.Source
	reporter  ReportGenerator
	refresh   config.RefreshConfig
	report    config.ReportConfig
}

// New creates a new Scheduler. reporter may be nil.
func New(r Refresher, src market.Source, reporter ReportGenerator, refresh config.RefreshConfig, report config.ReportConfig) *Scheduler {
	return &Scheduler{
		refresher: r,
		source:    src,
		reporter:  reporter,
		refresh:   refresh,
		report:    report,
	}
}

// Run starts all periodic loops and blocks until context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"source", s.source.Name(),
		"refresh_interval", s.refresh.Interval.Duration,
		"report_interval", s.report.Interval.Duration,
		"on_start", s.refresh.OnStart,
	)

	if s.refresh.OnStart {
		s.runRefresh(ctx)
	}

	refreshC, stopRefresh := tick(s.refresh.Interval.Duration)
	defer stopRefresh()
	var reportC <-chan time.Time
	if s.reporter != nil {
		var stopReport func()
		reportC, stopReport = tick(s.report.Interval.Duration)
		defer stopReport()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler shutting down")
			return ctx.Err()
		case <-refreshC:
			s.runRefresh(ctx)
		case <-reportC:
			s.runReport(ctx)
		}
	}
}

// tick returns a nil channel, which never fires, for a zero interval.
func tick(d time.Duration) (<-chan time.Time, func()) {
	if d <= 0 {
		return nil, func() {}
	}
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (s *Scheduler) options() market.FetchOptions {
	return market.FetchOptions{
		MaxMarkets:      s.refresh.MaxMarkets,
		MinVolume:       s.refresh.MinVolume,
		FetchOrderbooks: s.refresh.FetchOrderbooks,
	}
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	_, err := s.refresher.Run(ctx, s.source, s.options())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrRefreshInProgress):
		slog.Debug("scheduled refresh skipped", "reason", err)
	case ctx.Err() != nil:
	default:
		slog.Error("scheduled refresh failed", "source", s.source.Name(), "error", err)
	}
}

func (s *Scheduler) runReport(ctx context.Context) {
	report, err := s.reporter.Generate(ctx)
	if err != nil {
		slog.Error("refresh report failed", "error", err)
		return
	}
	performance.LogReport(report)
}
