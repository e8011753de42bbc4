package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
	"github.com/aevon-lab/poolstats/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

// ErrStore marks a failed store round trip (connection loss, timeout,
// malformed query). It is never retried inside this module.
var ErrStore = errors.New("store failure")

// StoreError carries the failing operation and the driver cause.
// errors.Is(err, ErrStore) matches it; errors.Unwrap yields the cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// Fail wraps err as a StoreError for op. A nil err stays nil.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// SnapshotWriter is the append + retention side of the snapshot tables.
// Every method is a single auto-committing statement.
type SnapshotWriter interface {
	InsertPoolSnapshot(ctx context.Context, snap *v1.PoolSnapshot) error
	InsertWorkerSnapshot(ctx context.Context, snap *v1.MinerWorkerSnapshot) error

	// DeletePoolSnapshotsBefore purges pool snapshots created strictly before cutoff.
	DeletePoolSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteWorkerSnapshotsBefore purges worker snapshots created strictly before cutoff.
	DeleteWorkerSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StatsReader reads the snapshot tables.
// "Nothing found" is always an empty slice or a zero/false result, never an error.
type StatsReader interface {
	// LatestPoolSnapshot returns nil when the pool has never been sampled.
	LatestPoolSnapshot(ctx context.Context, poolID string) (*v1.PoolSnapshot, error)

	// PoolPerformance returns pool snapshots in [start, end] averaged per bucket.
	PoolPerformance(
		ctx context.Context,
		poolID string,
		start time.Time,
		end time.Time,
		granularity aggregation.Granularity,
	) ([]v1.PoolPerformance, error)

	// MinerPerformance returns one averaged row per (bucket, worker) for the
	// miner's snapshots in [start, end], ordered by bucket then worker.
	MinerPerformance(
		ctx context.Context,
		poolID string,
		miner string,
		start time.Time,
		end time.Time,
		granularity aggregation.Granularity,
	) ([]aggregation.WorkerAverage, error)

	// LatestMinerSnapshotTime returns the newest snapshot instant of the miner
	// across all its workers. ok is false when the miner has none.
	LatestMinerSnapshotTime(ctx context.Context, poolID, miner string) (created time.Time, ok bool, err error)

	// MinerSnapshotsAt returns every worker snapshot of the miner taken at exactly created.
	MinerSnapshotsAt(ctx context.Context, poolID, miner string, created time.Time) ([]v1.MinerWorkerSnapshot, error)

	// WorkerHashrates returns the latest snapshot per (miner, worker) with hashrate > 0.
	WorkerHashrates(ctx context.Context, poolID string) ([]v1.MinerWorkerHashrate, error)

	// LeaderboardPage ranks miners by peak summed hashrate in [since, until)
	// and returns rows [page*pageSize, (page+1)*pageSize).
	LeaderboardPage(
		ctx context.Context,
		poolID string,
		since time.Time,
		until time.Time,
		page int,
		pageSize int,
	) ([]v1.LeaderboardEntry, error)
}

// LedgerReader reads the share, balance and payment ledgers owned by the
// payment side of the pool. A miner without records yields zero values.
type LedgerReader interface {
	PendingShareDifficulty(ctx context.Context, poolID, miner string) (float64, error)
	Balance(ctx context.Context, poolID, miner string) (decimal.Decimal, error)

	// PaymentsSince sums the miner's payments created at or after since.
	// A zero since sums the full history.
	PaymentsSince(ctx context.Context, poolID, miner string, since time.Time) (decimal.Decimal, error)

	// LastPayment returns nil when the miner was never paid.
	LastPayment(ctx context.Context, poolID, miner string) (*v1.Payment, error)

	PoolPaymentsTotal(ctx context.Context, poolID string) (decimal.Decimal, error)
}

// Reader is everything a query may read.
type Reader interface {
	StatsReader
	LedgerReader
}

// Store is the full snapshot store.
type Store interface {
	SnapshotWriter
	Reader

	// ReadConsistent runs fn against a single read-only point-in-time view.
	// The view must not be used after fn returns.
	ReadConsistent(ctx context.Context, fn func(r Reader) error) error

	Ping(ctx context.Context) error
	Close() error
}
