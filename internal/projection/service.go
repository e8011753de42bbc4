package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
	"github.com/aevon-lab/poolstats/internal/core/aggregation"
	"github.com/aevon-lab/poolstats/internal/core/storage"
	"github.com/shopspring/decimal"
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
// They are always returned before any store round trip.
var ErrInvalidQuery = errors.New("invalid stats query")

// poolGranularities are the bucket widths served at pool scope.
var poolGranularities = map[aggregation.Granularity]bool{
	aggregation.Hour: true,
	aggregation.Day:  true,
}

// Service implements the statistics query layer.
// Every call is a pure function of store contents and nowFn; nothing is cached.
type Service struct {
	store    storage.Store
	settings Settings
	nowFn    func() time.Time
}

// NewService creates a new query service.
func NewService(store storage.Store, settings Settings) *Service {
	return &Service{
		store:    store,
		settings: settings,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// LatestPoolStats returns the newest pool snapshot, or nil when the pool has
// never been sampled.
func (s *Service) LatestPoolStats(ctx context.Context, poolID string) (*v1.PoolSnapshot, error) {
	if err := requireID("pool_id", poolID); err != nil {
		return nil, err
	}

	snap, err := s.store.LatestPoolSnapshot(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("load latest pool snapshot: %w", err)
	}
	return snap, nil
}

// PoolPerformance returns the pool time series at hour or day granularity.
func (s *Service) PoolPerformance(ctx context.Context, q PerformanceQuery) ([]v1.PoolPerformance, error) {
	if err := validateRange(q); err != nil {
		return nil, err
	}
	if !poolGranularities[q.Granularity] {
		return nil, invalidQueryf("invalid pool granularity: %s (must be 1h or 1d)", q.Granularity)
	}

	series, err := s.store.PoolPerformance(ctx, q.PoolID, q.Start.UTC(), q.End.UTC(), q.Granularity)
	if err != nil {
		return nil, fmt.Errorf("query pool performance: %w", err)
	}
	if series == nil {
		series = []v1.PoolPerformance{}
	}
	return series, nil
}

// MinerPerformance returns the miner time series: one bucket per distinct
// bucket start, each mapping worker name to its averaged performance.
func (s *Service) MinerPerformance(ctx context.Context, q PerformanceQuery) ([]v1.PerformanceBucket, error) {
	if err := validateRange(q); err != nil {
		return nil, err
	}
	if err := requireID("miner", q.Miner); err != nil {
		return nil, err
	}
	if _, err := aggregation.ParseGranularity(string(q.Granularity)); err != nil {
		return nil, invalidQueryf("%v", err)
	}

	rows, err := s.store.MinerPerformance(ctx, q.PoolID, q.Miner, q.Start.UTC(), q.End.UTC(), q.Granularity)
	if err != nil {
		return nil, fmt.Errorf("query miner performance: %w", err)
	}
	return aggregation.AssembleBuckets(rows), nil
}

// MinerStatus composes the current status view of a miner from one
// consistent read. Performance is omitted when the miner's latest snapshot is
// older than the staleness window.
func (s *Service) MinerStatus(ctx context.Context, poolID, miner string) (*v1.MinerStatus, error) {
	if err := requireID("pool_id", poolID); err != nil {
		return nil, err
	}
	if err := requireID("miner", miner); err != nil {
		return nil, err
	}

	now := s.nowFn().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var status v1.MinerStatus
	err := s.store.ReadConsistent(ctx, func(r storage.Reader) error {
		var err error

		if status.PendingShares, err = r.PendingShareDifficulty(ctx, poolID, miner); err != nil {
			return fmt.Errorf("load pending shares: %w", err)
		}
		if status.PendingBalance, err = r.Balance(ctx, poolID, miner); err != nil {
			return fmt.Errorf("load balance: %w", err)
		}
		if status.TotalPaid, err = r.PaymentsSince(ctx, poolID, miner, time.Time{}); err != nil {
			return fmt.Errorf("load total paid: %w", err)
		}
		if status.TodayPaid, err = r.PaymentsSince(ctx, poolID, miner, midnight); err != nil {
			return fmt.Errorf("load paid today: %w", err)
		}
		if status.LastPayment, err = r.LastPayment(ctx, poolID, miner); err != nil {
			return fmt.Errorf("load last payment: %w", err)
		}
		if status.Performance, err = s.currentPerformance(ctx, r, poolID, miner, now); err != nil {
			return fmt.Errorf("load current performance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &status, nil
}

// currentPerformance assembles every worker snapshot taken at the miner's
// latest fresh instant into one bucket. It returns nil when there is none.
func (s *Service) currentPerformance(
	ctx context.Context,
	r storage.Reader,
	poolID string,
	miner string,
	now time.Time,
) (*v1.PerformanceBucket, error) {
	latest, ok, err := s.latestFresh(ctx, r, poolID, miner, now)
	if err != nil || !ok {
		return nil, err
	}

	snaps, err := r.MinerSnapshotsAt(ctx, poolID, miner, latest)
	if err != nil {
		return nil, err
	}
	return aggregation.CurrentBucket(latest, snaps), nil
}

// latestFresh returns the newest snapshot instant of the miner unless it is
// older than the staleness window. Exactly one window old is still fresh.
func (s *Service) latestFresh(
	ctx context.Context,
	r storage.Reader,
	poolID string,
	miner string,
	now time.Time,
) (time.Time, bool, error) {
	latest, ok, err := r.LatestMinerSnapshotTime(ctx, poolID, miner)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	if age := now.Sub(latest); age > s.settings.StalenessWindow {
		slog.Debug("[Projection] Latest miner snapshot is stale",
			"pool_id", poolID,
			"miner", miner,
			"latest", latest,
			"age", age)
		return time.Time{}, false, nil
	}
	return latest, true, nil
}

// WorkerHashrates returns the latest positive hashrate of every
// (miner, worker) ever recorded for the pool. No staleness cutoff applies.
func (s *Service) WorkerHashrates(ctx context.Context, poolID string) ([]v1.MinerWorkerHashrate, error) {
	if err := requireID("pool_id", poolID); err != nil {
		return nil, err
	}

	rows, err := s.store.WorkerHashrates(ctx, poolID)
	if err != nil {
		return nil, fmt.Errorf("query worker hashrates: %w", err)
	}
	if rows == nil {
		rows = []v1.MinerWorkerHashrate{}
	}
	return rows, nil
}

// Leaderboard returns one page of miners ranked by their peak summed
// hashrate in [since, now).
func (s *Service) Leaderboard(ctx context.Context, q LeaderboardQuery) ([]v1.LeaderboardEntry, error) {
	if err := requireID("pool_id", q.PoolID); err != nil {
		return nil, err
	}
	if q.Page < 0 {
		return nil, invalidQueryf("page must be >= 0, got %d", q.Page)
	}
	if q.PageSize <= 0 {
		return nil, invalidQueryf("page_size must be > 0, got %d", q.PageSize)
	}
	if s.settings.MaxPageSize > 0 && q.PageSize > s.settings.MaxPageSize {
		return nil, invalidQueryf("page_size must be <= %d, got %d", s.settings.MaxPageSize, q.PageSize)
	}
	if q.Page > math.MaxInt/q.PageSize {
		return nil, invalidQueryf("page %d is out of range for page_size %d", q.Page, q.PageSize)
	}

	now := s.nowFn().UTC()
	since := q.Since.UTC()
	if q.Since.IsZero() {
		since = now.Add(-s.settings.LeaderboardWindow)
	}
	if since.After(now) {
		return nil, invalidQueryf("since must not be in the future")
	}

	entries, err := s.store.LeaderboardPage(ctx, q.PoolID, since, now, q.Page, q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	if entries == nil {
		entries = []v1.LeaderboardEntry{}
	}
	return entries, nil
}

// TotalPoolPayments sums every payment the pool has made.
func (s *Service) TotalPoolPayments(ctx context.Context, poolID string) (decimal.Decimal, error) {
	if err := requireID("pool_id", poolID); err != nil {
		return decimal.Zero, err
	}

	total, err := s.store.PoolPaymentsTotal(ctx, poolID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query pool payments: %w", err)
	}
	return total, nil
}

func validateRange(q PerformanceQuery) error {
	if err := requireID("pool_id", q.PoolID); err != nil {
		return err
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return invalidQueryf("start and end are required")
	}
	if q.End.Before(q.Start) {
		return invalidQueryf("end time must not be before start time")
	}
	return nil
}

func requireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidQueryf("%s is required", name)
	}
	return nil
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
