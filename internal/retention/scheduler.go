// Package retention purges snapshots older than the configured maximum age.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/poolstats/internal/core/storage"
	"golang.org/x/sync/errgroup"
)

// Result reports how many rows one purge removed.
type Result struct {
	Cutoff          time.Time
	PoolSnapshots   int64
	WorkerSnapshots int64
}

// Scheduler runs retention purges on a periodic interval.
// It is stateless: each tick derives its cutoff from the current time.
type Scheduler struct {
	interval time.Duration
	maxAge   time.Duration
	store    storage.SnapshotWriter
	nowFn    func() time.Time
}

// NewScheduler creates a purge scheduler deleting snapshots older than maxAge.
func NewScheduler(interval, maxAge time.Duration, store storage.SnapshotWriter) *Scheduler {
	return &Scheduler{
		interval: interval,
		maxAge:   maxAge,
		store:    store,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Start purges once immediately and then on every tick.
// Runs until context is cancelled; no final purge runs on shutdown.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Retention] Starting retention scheduler",
		"interval", s.interval,
		"max_age", s.maxAge,
	)

	s.purge(ctx)

	for {
		select {
		case <-ticker.C:
			s.purge(ctx)
		case <-ctx.Done():
			slog.Info("[Retention] Stopping (context cancelled)")
			return nil
		}
	}
}

func (s *Scheduler) purge(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("[Retention] Purge failed", "error", err)
		return
	}

	slog.Info("[Retention] Purge complete",
		"cutoff", res.Cutoff,
		"pool_snapshots", res.PoolSnapshots,
		"worker_snapshots", res.WorkerSnapshots,
	)
}

// RunOnce deletes pool and worker snapshots created before now - maxAge.
// The two tables are purged concurrently; each delete is one statement.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	res := Result{Cutoff: s.nowFn().UTC().Add(-s.maxAge)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.DeletePoolSnapshotsBefore(gctx, res.Cutoff)
		if err != nil {
			return fmt.Errorf("purge pool snapshots: %w", err)
		}
		res.PoolSnapshots = n
		return nil
	})
	g.Go(func() error {
		n, err := s.store.DeleteWorkerSnapshotsBefore(gctx, res.Cutoff)
		if err != nil {
			return fmt.Errorf("purge worker snapshots: %w", err)
		}
		res.WorkerSnapshots = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}
