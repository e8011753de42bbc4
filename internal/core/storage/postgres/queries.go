package postgres

import (
	"fmt"

	"github.com/aevon-lab/poolstats/internal/core/aggregation"
)

// SQL for the snapshot tables and the ledgers they are joined with.
// All bucket keys are computed in UTC.

const (
	queryTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)
	`

	queryInsertPoolSnapshot = `
		INSERT INTO pool_snapshots (
			poolid, connectedminers, connectedworkers, poolhashrate, networkhashrate,
			networkdifficulty, lastnetworkblocktime, blockheight, connectedpeers,
			sharespersecond, created
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	// worker is NOT NULL in the schema; the write path stores "" for an unnamed worker.
	queryInsertWorkerSnapshot = `
		INSERT INTO worker_snapshots (poolid, miner, worker, hashrate, sharespersecond, created)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	queryDeletePoolSnapshotsBefore   = `DELETE FROM pool_snapshots WHERE created < $1`
	queryDeleteWorkerSnapshotsBefore = `DELETE FROM worker_snapshots WHERE created < $1`

	queryLatestPoolSnapshot = `
		SELECT
			poolid, connectedminers, connectedworkers, poolhashrate, networkhashrate,
			networkdifficulty, lastnetworkblocktime, blockheight, connectedpeers,
			sharespersecond, created
		FROM pool_snapshots
		WHERE poolid = $1
		ORDER BY created DESC
		LIMIT 1
	`

	queryLatestMinerSnapshotTime = `
		SELECT MAX(created)
		FROM worker_snapshots
		WHERE poolid = $1 AND miner = $2
	`

	queryMinerSnapshotsAt = `
		SELECT poolid, miner, worker, hashrate, sharespersecond, created
		FROM worker_snapshots
		WHERE poolid = $1 AND miner = $2 AND created = $3
		ORDER BY worker ASC
	`

	// queryWorkerHashrates keeps rank 1 of every (miner, worker) partition by
	// recency and only then filters out idle workers.
	queryWorkerHashrates = `
		WITH ranked AS (
			SELECT
				miner, worker, hashrate,
				ROW_NUMBER() OVER (PARTITION BY miner, worker ORDER BY created DESC) AS rk
			FROM worker_snapshots
			WHERE poolid = $1
		)
		SELECT miner, worker, hashrate
		FROM ranked
		WHERE rk = 1 AND hashrate > 0
		ORDER BY miner ASC, worker ASC
	`

	// queryLeaderboardPage ranks each miner by the instant its summed worker
	// hashrate peaked inside [since, until), not by its latest sample.
	queryLeaderboardPage = `
		WITH per_instant AS (
			SELECT
				miner, created,
				SUM(hashrate) AS hashrate,
				SUM(sharespersecond) AS sharespersecond
			FROM worker_snapshots
			WHERE poolid = $1 AND created >= $2 AND created < $3
			GROUP BY miner, created
		),
		ranked AS (
			SELECT
				miner, hashrate, sharespersecond,
				ROW_NUMBER() OVER (PARTITION BY miner ORDER BY hashrate DESC, created DESC) AS rk
			FROM per_instant
		)
		SELECT miner, hashrate, sharespersecond
		FROM ranked
		WHERE rk = 1
		ORDER BY hashrate DESC, miner ASC
		OFFSET $4
		LIMIT $5
	`

	queryPendingShareDifficulty = `
		SELECT COALESCE(SUM(difficulty), 0)
		FROM shares
		WHERE poolid = $1 AND miner = $2
	`

	queryBalance = `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM balances
		WHERE poolid = $1 AND address = $2
	`

	queryPaymentsSince = `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM payments
		WHERE poolid = $1 AND address = $2 AND created >= $3
	`

	queryLastPayment = `
		SELECT poolid, coin, address, amount::text, transactionconfirmationdata, created
		FROM payments
		WHERE poolid = $1 AND address = $2
		ORDER BY created DESC
		LIMIT 1
	`

	queryPoolPaymentsTotal = `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM payments
		WHERE poolid = $1
	`
)

const (
	poolPerformanceTemplate = `
		SELECT
			%s AS bucket,
			AVG(poolhashrate),
			AVG(networkhashrate),
			AVG(networkdifficulty),
			CAST(AVG(connectedminers) AS BIGINT),
			CAST(AVG(connectedworkers) AS BIGINT),
			AVG(sharespersecond)
		FROM pool_snapshots
		WHERE poolid = $1 AND created >= $2 AND created <= $3
		GROUP BY 1
		ORDER BY 1 ASC
	`

	minerPerformanceTemplate = `
		SELECT
			%s AS bucket,
			worker,
			AVG(hashrate),
			AVG(sharespersecond)
		FROM worker_snapshots
		WHERE poolid = $1 AND miner = $2 AND created >= $3 AND created <= $4
		GROUP BY 1, 2
		ORDER BY 1 ASC, 2 ASC
	`
)

// bucketExpressions maps a granularity to the SQL computing its bucket start.
// The three-minute bucket is the hour plus 3*floor(minute/3) minutes.
var bucketExpressions = map[aggregation.Granularity]string{
	aggregation.Minute: `date_trunc('minute', created AT TIME ZONE 'UTC')`,
	aggregation.ThreeMinutes: `date_trunc('hour', created AT TIME ZONE 'UTC')
				+ INTERVAL '3 minutes' * FLOOR(date_part('minute', created AT TIME ZONE 'UTC') / 3)`,
	aggregation.Hour: `date_trunc('hour', created AT TIME ZONE 'UTC')`,
	aggregation.Day:  `date_trunc('day', created AT TIME ZONE 'UTC')`,
}

func poolPerformanceQuery(g aggregation.Granularity) (string, error) {
	expr, ok := bucketExpressions[g]
	if !ok {
		return "", fmt.Errorf("unsupported granularity %q", g)
	}
	return fmt.Sprintf(poolPerformanceTemplate, expr), nil
}

func minerPerformanceQuery(g aggregation.Granularity) (string, error) {
	expr, ok := bucketExpressions[g]
	if !ok {
		return "", fmt.Errorf("unsupported granularity %q", g)
	}
	return fmt.Sprintf(minerPerformanceTemplate, expr), nil
}
