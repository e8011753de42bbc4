package v1

import (
	"fmt"
	"math"
	"time"
)

// PoolSnapshot is one periodic sample of pool-wide and network state.
// Snapshots are immutable once written and only removed by retention purges.
type PoolSnapshot struct {
	PoolID               string     `json:"pool_id"`
	Created              time.Time  `json:"created"`
	ConnectedMiners      int        `json:"connected_miners"`
	ConnectedWorkers     int        `json:"connected_workers"`
	PoolHashrate         float64    `json:"pool_hashrate"`
	NetworkHashrate      float64    `json:"network_hashrate"`
	NetworkDifficulty    float64    `json:"network_difficulty"`
	LastNetworkBlockTime *time.Time `json:"last_network_block_time,omitempty"`
	BlockHeight          int64      `json:"block_height"`
	ConnectedPeers       int        `json:"connected_peers"`
	SharesPerSecond      float64    `json:"shares_per_second"`
}

// Validate checks the write-path invariants of a pool snapshot.
func (s *PoolSnapshot) Validate() error {
	if s.PoolID == "" {
		return fmt.Errorf("pool_id is required")
	}
	if s.Created.IsZero() {
		return fmt.Errorf("created is required")
	}
	if s.ConnectedMiners < 0 || s.ConnectedWorkers < 0 || s.ConnectedPeers < 0 {
		return fmt.Errorf("connection counts must be >= 0")
	}
	if s.BlockHeight < 0 {
		return fmt.Errorf("block_height must be >= 0")
	}
	rates := []struct {
		name  string
		value float64
	}{
		{"pool_hashrate", s.PoolHashrate},
		{"network_hashrate", s.NetworkHashrate},
		{"network_difficulty", s.NetworkDifficulty},
		{"shares_per_second", s.SharesPerSecond},
	}
	for _, r := range rates {
		if err := checkRate(r.name, r.value); err != nil {
			return err
		}
	}
	return nil
}

// MinerWorkerSnapshot is one periodic sample of a single worker of a miner.
//
// Worker is never absent: a miner that connects without a worker name is
// recorded under the empty string, and every read path treats "" as a
// regular key.
type MinerWorkerSnapshot struct {
	PoolID          string    `json:"pool_id"`
	Miner           string    `json:"miner"`
	Worker          string    `json:"worker"`
	Created         time.Time `json:"created"`
	Hashrate        float64   `json:"hashrate"`
	SharesPerSecond float64   `json:"shares_per_second"`
}

// Validate checks the write-path invariants of a worker snapshot.
func (s *MinerWorkerSnapshot) Validate() error {
	if s.PoolID == "" {
		return fmt.Errorf("pool_id is required")
	}
	if s.Miner == "" {
		return fmt.Errorf("miner is required")
	}
	if s.Created.IsZero() {
		return fmt.Errorf("created is required")
	}
	if err := checkRate("hashrate", s.Hashrate); err != nil {
		return err
	}
	return checkRate("shares_per_second", s.SharesPerSecond)
}

// WorkerSnapshotInput is the wire shape accepted by the write path.
// Worker is a pointer so that an omitted or null worker can be told apart
// from a named one before normalization.
type WorkerSnapshotInput struct {
	Miner           string    `json:"miner"`
	Worker          *string   `json:"worker"`
	Created         time.Time `json:"created"`
	Hashrate        float64   `json:"hashrate"`
	SharesPerSecond float64   `json:"shares_per_second"`
}

// Normalize converts the input into a stored snapshot for poolID.
// This is the only place an unset worker becomes "".
func (in WorkerSnapshotInput) Normalize(poolID string) MinerWorkerSnapshot {
	worker := ""
	if in.Worker != nil {
		worker = *in.Worker
	}
	return MinerWorkerSnapshot{
		PoolID:          poolID,
		Miner:           in.Miner,
		Worker:          worker,
		Created:         in.Created.UTC(),
		Hashrate:        in.Hashrate,
		SharesPerSecond: in.SharesPerSecond,
	}
}

func checkRate(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	if v < 0 {
		return fmt.Errorf("%s must be >= 0", name)
	}
	return nil
}
