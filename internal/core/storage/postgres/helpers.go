package postgres

import (
	"context"
	"database/sql"
	"fmt"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
	"github.com/shopspring/decimal"
)

// queryer is the subset of *sql.DB and *sql.Tx the read path needs.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPoolSnapshot scans a pool_snapshots row in queryLatestPoolSnapshot column order.
func scanPoolSnapshot(row scanner) (*v1.PoolSnapshot, error) {
	var (
		snap      v1.PoolSnapshot
		lastBlock sql.NullTime
	)

	if err := row.Scan(
		&snap.PoolID,
		&snap.ConnectedMiners,
		&snap.ConnectedWorkers,
		&snap.PoolHashrate,
		&snap.NetworkHashrate,
		&snap.NetworkDifficulty,
		&lastBlock,
		&snap.BlockHeight,
		&snap.ConnectedPeers,
		&snap.SharesPerSecond,
		&snap.Created,
	); err != nil {
		return nil, err
	}

	snap.Created = snap.Created.UTC()
	if lastBlock.Valid {
		t := lastBlock.Time.UTC()
		snap.LastNetworkBlockTime = &t
	}
	return &snap, nil
}

// scanWorkerSnapshot scans a worker_snapshots row in queryMinerSnapshotsAt column order.
func scanWorkerSnapshot(row scanner) (v1.MinerWorkerSnapshot, error) {
	var snap v1.MinerWorkerSnapshot
	if err := row.Scan(
		&snap.PoolID,
		&snap.Miner,
		&snap.Worker,
		&snap.Hashrate,
		&snap.SharesPerSecond,
		&snap.Created,
	); err != nil {
		return v1.MinerWorkerSnapshot{}, err
	}
	snap.Created = snap.Created.UTC()
	return snap, nil
}

// parseNumeric converts a NUMERIC rendered as text into an exact decimal.
func parseNumeric(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", value, err)
	}
	return d, nil
}
