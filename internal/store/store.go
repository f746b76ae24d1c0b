// Package store owns the published snapshot: the markets, opportunities,
// predictions and stats of the last successful refresh. A refresh builds a
// complete new snapshot off to the side and publishes it with one atomic
// swap, so readers always see a single generation.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
	"edgefinder/internal/engine"
	"edgefinder/internal/market"
	"edgefinder/internal/stats"
)

// Processor turns a raw batch into engine output.
type Processor interface {
	Process(ctx context.Context, raw []domain.Market) (*engine.Result, error)
}

// Locker guards refreshes across processes. Acquire returns
// domain.ErrLockHeld when another holder owns key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Observer is told about every finished refresh. snap is nil when the run failed.
type Observer interface {
	RefreshCompleted(ctx context.Context, run Run, snap *Snapshot) error
}

// Snapshot is one published refresh generation. It is never mutated after
// publication.
type Snapshot struct {
	Generation    uint64                   `json:"generation"`
	RunID         string                   `json:"run_id"`
	Source        string                   `json:"source"`
	Markets       []domain.Market          `json:"markets"`
	Opportunities []domain.EdgeOpportunity `json:"opportunities"`
	Predictions   []domain.Prediction      `json:"predictions"`
	Rejected      []domain.Rejection       `json:"rejected"`
	Stats         domain.Stats             `json:"stats"`
	UpdatedAt     time.Time                `json:"updated_at"`

	byID map[string]int
}

func (s *Snapshot) index() {
	s.byID = make(map[string]int, len(s.Markets))
	for i, m := range s.Markets {
		s.byID[m.ID] = i
	}
}

// Run describes one refresh attempt.
type Run struct {
	ID            string    `json:"id"`
	Source        string    `json:"source"`
	Status        string    `json:"status"`
	Generation    uint64    `json:"generation"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Markets       int       `json:"markets"`
	Rejected      int       `json:"rejected"`
	Opportunities int       `json:"opportunities"`
	Predictions   int       `json:"predictions"`
	Error         string    `json:"error,omitempty"`
}

const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Status is the poll target for refresh completion.
type Status struct {
	IsLoading     bool       `json:"is_loading"`
	Generation    uint64     `json:"generation"`
	MarketsLoaded int        `json:"markets_loaded"`
	Rejected      int        `json:"rejected"`
	LastUpdated   *time.Time `json:"last_updated"`
	Source        string     `json:"source,omitempty"`
	RunID         string     `json:"run_id,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// Option configures a Store.
type Option func(*Store)

// WithLocker adds a cross-process refresh lock.
func WithLocker(l Locker, key string, ttl time.Duration) Option {
	return func(s *Store) {
		s.locker = l
		s.lockKey = key
		s.lockTTL = ttl
	}
}

// WithObservers registers refresh observers, called in order.
func WithObservers(obs ...Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, obs...)
	}
}

// WithTimeout bounds a single refresh.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

type Store struct {
	engine    Processor
	statsCfg  config.StatsConfig
	locker    Locker
	lockKey   string
	lockTTL   time.Duration
	observers []Observer
	timeout   time.Duration
	now       func() time.Time

	root   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshot atomic.Pointer[Snapshot]
	loading  atomic.Bool

	mu        sync.Mutex
	runID     string
	lastError string
}

func New(p Processor, statsCfg config.StatsConfig, opts ...Option) *Store {
	s := &Store{
		engine:   p,
		statsCfg: statsCfg,
		timeout:  5 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.root, s.cancel = context.WithCancel(context.Background())

	empty := &Snapshot{Stats: stats.Compute(statsCfg, nil, nil, nil, 0, time.Time{})}
	empty.index()
	s.snapshot.Store(empty)
	return s
}

// Start begins a refresh in the background and returns its run id. It
// returns domain.ErrRefreshInProgress while another refresh is running.
func (s *Store) Start(ctx context.Context, src market.Source, opts market.FetchOptions) (string, error) {
	release, runID, err := s.begin(ctx)
	if err != nil {
		return "", err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.refresh(s.root, runID, src, opts, release); err != nil {
			slog.Error("refresh failed", "run_id", runID, "source", src.Name(), "error", err)
		}
	}()
	return runID, nil
}

// Run refreshes synchronously through the same single-flight gate as Start.
func (s *Store) Run(ctx context.Context, src market.Source, opts market.FetchOptions) (*Snapshot, error) {
	release, runID, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, runID, src, opts, release)
}

// Wait blocks until background refreshes have finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels any background refresh and waits for it.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Store) begin(ctx context.Context) (func(), string, error) {
	if !s.loading.CompareAndSwap(false, true) {
		return nil, "", domain.ErrRefreshInProgress
	}

	unlock := func() {}
	if s.locker != nil {
		u, err := s.locker.Acquire(ctx, s.lockKey, s.lockTTL)
		if err != nil {
			s.loading.Store(false)
			if errors.Is(err, domain.ErrLockHeld) {
				return nil, "", fmt.Errorf("%w: held by another instance", domain.ErrRefreshInProgress)
			}
			return nil, "", fmt.Errorf("acquiring refresh lock: %w", err)
		}
		unlock = u
	}

	runID := uuid.NewString()
	s.mu.Lock()
	s.runID = runID
	s.mu.Unlock()

	release := func() {
		unlock()
		s.loading.Store(false)
	}
	return release, runID, nil
}

func (s *Store) refresh(ctx context.Context, runID string, src market.Source, opts market.FetchOptions, release func()) (*Snapshot, error) {
	defer release()

	run := Run{ID: runID, Source: src.Name(), StartedAt: s.now()}
	slog.Info("refresh started", "run_id", runID, "source", run.Source,
		"max_markets", opts.MaxMarkets, "min_volume", opts.MinVolume, "fetch_orderbooks", opts.FetchOrderbooks)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.build(ctx, runID, src, opts)
	run.FinishedAt = s.now()
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		s.notify(ctx, run, nil)
		return nil, err
	}

	prev := s.snapshot.Load()
	snap.Generation = prev.Generation + 1
	snap.UpdatedAt = run.FinishedAt
	snap.Stats = stats.Compute(s.statsCfg, snap.Markets, snap.Opportunities, snap.Predictions, snap.Generation, snap.UpdatedAt)

	// Cleared first so no reader pairs the new generation with a stale error.
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.snapshot.Store(snap)

	run.Status = RunSucceeded
	run.Generation = snap.Generation
	run.Markets = len(snap.Markets)
	run.Rejected = len(snap.Rejected)
	run.Opportunities = len(snap.Opportunities)
	run.Predictions = len(snap.Predictions)

	slog.Info("refresh complete",
		"run_id", runID,
		"generation", snap.Generation,
		"markets", run.Markets,
		"opportunities", run.Opportunities,
		"predictions", run.Predictions,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	s.notify(ctx, run, snap)
	return snap, nil
}

func (s *Store) build(ctx context.Context, runID string, src market.Source, opts market.FetchOptions) (*Snapshot, error) {
	raw, err := src.Fetch(ctx, opts)
	if err != nil {
		if !errors.Is(err, domain.ErrUpstreamFetch) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
		}
		return nil, fmt.Errorf("fetching from %s: %w", src.Name(), err)
	}

	res, err := s.engine.Process(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("processing batch: %w", err)
	}

	snap := &Snapshot{
		RunID:         runID,
		Source:        src.Name(),
		Markets:       res.Markets,
		Opportunities: res.Opportunities,
		Predictions:   res.Predictions,
		Rejected:      res.Rejected,
	}
	snap.index()
	return snap, nil
}

func (s *Store) notify(ctx context.Context, run Run, snap *Snapshot) {
	// Observers run after a timeout or cancellation too.
	ctx = context.WithoutCancel(ctx)
	for _, o := range s.observers {
		if err := o.RefreshCompleted(ctx, run, snap); err != nil {
			slog.Warn("refresh observer failed", "run_id", run.ID, "error", err)
		}
	}
}

// Restore publishes a previously persisted snapshot. It is a no-op once any
// refresh has been published.
func (s *Store) Restore(snap *Snapshot) bool {
	if snap == nil {
		return false
	}
	cur := s.snapshot.Load()
	if cur.Generation != 0 {
		return false
	}
	restored := *snap
	restored.index()
	restored.Stats = stats.Compute(s.statsCfg, restored.Markets, restored.Opportunities, restored.Predictions, restored.Generation, restored.UpdatedAt)
	return s.snapshot.CompareAndSwap(cur, &restored)
}

// Snapshot returns the current published snapshot.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Status reports the refresh state. The loading flag is read before the
// snapshot so a finished refresh is never reported with the old generation.
func (s *Store) Status() Status {
	loading := s.loading.Load()
	snap := s.snapshot.Load()

	s.mu.Lock()
	runID, lastError := s.runID, s.lastError
	s.mu.Unlock()

	st := Status{
		IsLoading:     loading,
		Generation:    snap.Generation,
		MarketsLoaded: len(snap.Markets),
		Rejected:      len(snap.Rejected),
		LastUpdated:   snap.Stats.LastUpdated,
		Source:        snap.Source,
		RunID:         runID,
		LastError:     lastError,
	}
	return st
}
