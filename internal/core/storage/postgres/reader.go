package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
	"github.com/aevon-lab/poolstats/internal/core/aggregation"
	"github.com/aevon-lab/poolstats/internal/core/storage"
	"github.com/shopspring/decimal"
)

// reader implements storage.Reader on top of either the pool or a transaction.
type reader struct {
	q queryer
}

var _ storage.Reader = (*reader)(nil)

// LatestPoolSnapshot returns the newest pool sample, or nil when there is none.
func (r *reader) LatestPoolSnapshot(ctx context.Context, poolID string) (*v1.PoolSnapshot, error) {
	snap, err := scanPoolSnapshot(r.q.QueryRowContext(ctx, queryLatestPoolSnapshot, poolID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Fail("query latest pool snapshot", err)
	}
	return snap, nil
}

// PoolPerformance averages pool samples per bucket over [start, end].
func (r *reader) PoolPerformance(
	ctx context.Context,
	poolID string,
	start time.Time,
	end time.Time,
	granularity aggregation.Granularity,
) ([]v1.PoolPerformance, error) {
	query, err := poolPerformanceQuery(granularity)
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, query, poolID, start.UTC(), end.UTC())
	if err != nil {
		return nil, storage.Fail("query pool performance", err)
	}
	defer rows.Close()

	results := make([]v1.PoolPerformance, 0)
	for rows.Next() {
		var perf v1.PoolPerformance
		if err := rows.Scan(
			&perf.Created,
			&perf.PoolHashrate,
			&perf.NetworkHashrate,
			&perf.NetworkDifficulty,
			&perf.ConnectedMiners,
			&perf.ConnectedWorkers,
			&perf.SharesPerSecond,
		); err != nil {
			return nil, storage.Fail("scan pool performance row", err)
		}
		perf.Created = asUTC(perf.Created)
		results = append(results, perf)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Fail("iterate pool performance rows", err)
	}

	return results, nil
}

// MinerPerformance averages the miner's samples per (bucket, worker) over [start, end].
func (r *reader) MinerPerformance(
	ctx context.Context,
	poolID string,
	miner string,
	start time.Time,
	end time.Time,
	granularity aggregation.Granularity,
) ([]aggregation.WorkerAverage, error) {
	query, err := minerPerformanceQuery(granularity)
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, query, poolID, miner, start.UTC(), end.UTC())
	if err != nil {
		return nil, storage.Fail("query miner performance", err)
	}
	defer rows.Close()

	var results []aggregation.WorkerAverage
	for rows.Next() {
		var row aggregation.WorkerAverage
		if err := rows.Scan(&row.Bucket, &row.Worker, &row.Hashrate, &row.SharesPerSecond); err != nil {
			return nil, storage.Fail("scan miner performance row", err)
		}
		row.Bucket = asUTC(row.Bucket)
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Fail("iterate miner performance rows", err)
	}

	return results, nil
}

// LatestMinerSnapshotTime returns the newest sample instant for the miner.
func (r *reader) LatestMinerSnapshotTime(ctx context.Context, poolID, miner string) (time.Time, bool, error) {
	var latest sql.NullTime
	if err := r.q.QueryRowContext(ctx, queryLatestMinerSnapshotTime, poolID, miner).Scan(&latest); err != nil {
		return time.Time{}, false, storage.Fail("query latest miner snapshot", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time.UTC(), true, nil
}

// MinerSnapshotsAt returns all worker samples of the miner taken at created.
func (r *reader) MinerSnapshotsAt(ctx context.Context, poolID, miner string, created time.Time) ([]v1.MinerWorkerSnapshot, error) {
	rows, err := r.q.QueryContext(ctx, queryMinerSnapshotsAt, poolID, miner, created.UTC())
	if err != nil {
		return nil, storage.Fail("query miner snapshots", err)
	}
	defer rows.Close()

	var results []v1.MinerWorkerSnapshot
	for rows.Next() {
		snap, err := scanWorkerSnapshot(rows)
		if err != nil {
			return nil, storage.Fail("scan miner snapshot row", err)
		}
		results = append(results, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Fail("iterate miner snapshot rows", err)
	}

	return results, nil
}

// WorkerHashrates returns rank-1-by-recency per (miner, worker), hashrate > 0.
func (r *reader) WorkerHashrates(ctx context.Context, poolID string) ([]v1.MinerWorkerHashrate, error) {
	rows, err := r.q.QueryContext(ctx, queryWorkerHashrates, poolID)
	if err != nil {
		return nil, storage.Fail("query worker hashrates", err)
	}
	defer rows.Close()

	results := make([]v1.MinerWorkerHashrate, 0)
	for rows.Next() {
		var h v1.MinerWorkerHashrate
		if err := rows.Scan(&h.Miner, &h.Worker, &h.Hashrate); err != nil {
			return nil, storage.Fail("scan worker hashrate row", err)
		}
		results = append(results, h)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Fail("iterate worker hashrate rows", err)
	}

	return results, nil
}

// LeaderboardPage returns one page of miners ranked by peak hashrate.
func (r *reader) LeaderboardPage(
	ctx context.Context,
	poolID string,
	since time.Time,
	until time.Time,
	page int,
	pageSize int,
) ([]v1.LeaderboardEntry, error) {
	rows, err := r.q.QueryContext(ctx, queryLeaderboardPage,
		poolID, since.UTC(), until.UTC(), page*pageSize, pageSize)
	if err != nil {
		return nil, storage.Fail("query leaderboard", err)
	}
	defer rows.Close()

	results := make([]v1.LeaderboardEntry, 0, pageSize)
	for rows.Next() {
		var e v1.LeaderboardEntry
		if err := rows.Scan(&e.Miner, &e.Hashrate, &e.SharesPerSecond); err != nil {
			return nil, storage.Fail("scan leaderboard row", err)
		}
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Fail("iterate leaderboard rows", err)
	}

	return results, nil
}

// PendingShareDifficulty sums the difficulty of the miner's unprocessed shares.
func (r *reader) PendingShareDifficulty(ctx context.Context, poolID, miner string) (float64, error) {
	var total float64
	if err := r.q.QueryRowContext(ctx, queryPendingShareDifficulty, poolID, miner).Scan(&total); err != nil {
		return 0, storage.Fail("query pending shares", err)
	}
	return total, nil
}

// Balance returns the amount currently owed to the miner.
func (r *reader) Balance(ctx context.Context, poolID, miner string) (decimal.Decimal, error) {
	return r.sumDecimal(ctx, "query balance", queryBalance, poolID, miner)
}

// PaymentsSince sums the miner's payments created at or after since.
func (r *reader) PaymentsSince(ctx context.Context, poolID, miner string, since time.Time) (decimal.Decimal, error) {
	return r.sumDecimal(ctx, "query payments", queryPaymentsSince, poolID, miner, since.UTC())
}

// PoolPaymentsTotal sums every payment the pool has made.
func (r *reader) PoolPaymentsTotal(ctx context.Context, poolID string) (decimal.Decimal, error) {
	return r.sumDecimal(ctx, "query pool payments", queryPoolPaymentsTotal, poolID)
}

// LastPayment returns the miner's most recent payment, or nil.
func (r *reader) LastPayment(ctx context.Context, poolID, miner string) (*v1.Payment, error) {
	var (
		p        v1.Payment
		amount   string
		confData sql.NullString
	)

	err := r.q.QueryRowContext(ctx, queryLastPayment, poolID, miner).Scan(
		&p.PoolID,
		&p.Coin,
		&p.Address,
		&amount,
		&confData,
		&p.Created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Fail("query last payment", err)
	}

	p.Amount, err = parseNumeric(amount)
	if err != nil {
		return nil, storage.Fail("query last payment", err)
	}
	p.TransactionConfirmationData = confData.String
	p.Created = p.Created.UTC()
	return &p, nil
}

func (r *reader) sumDecimal(ctx context.Context, op, query string, args ...interface{}) (decimal.Decimal, error) {
	var value string
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return decimal.Zero, storage.Fail(op, err)
	}
	d, err := parseNumeric(value)
	if err != nil {
		return decimal.Zero, storage.Fail(op, err)
	}
	return d, nil
}

// asUTC reinterprets a "timestamp without time zone" bucket as UTC.
func asUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
