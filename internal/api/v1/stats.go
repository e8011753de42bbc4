package v1

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkerPerformance is the averaged performance of one worker in a bucket.
type WorkerPerformance struct {
	Hashrate        float64 `json:"hashrate"`
	SharesPerSecond float64 `json:"shares_per_second"`
}

// PerformanceBucket groups the workers of one miner that reported inside the
// same time bucket. Workers that did not report are absent, not zero-filled.
type PerformanceBucket struct {
	Created time.Time                    `json:"created"`
	Workers map[string]WorkerPerformance `json:"workers"`
}

// PoolPerformance is one bucket of averaged pool-level samples.
type PoolPerformance struct {
	Created           time.Time `json:"created"`
	PoolHashrate      float64   `json:"pool_hashrate"`
	NetworkHashrate   float64   `json:"network_hashrate"`
	NetworkDifficulty float64   `json:"network_difficulty"`
	ConnectedMiners   int       `json:"connected_miners"`
	ConnectedWorkers  int       `json:"connected_workers"`
	SharesPerSecond   float64   `json:"shares_per_second"`
}

// LeaderboardEntry ranks a miner by its peak summed hashrate in a window.
type LeaderboardEntry struct {
	Miner           string  `json:"miner"`
	Hashrate        float64 `json:"hashrate"`
	SharesPerSecond float64 `json:"shares_per_second"`
}

// MinerWorkerHashrate is the most recent positive hashrate of a (miner, worker).
type MinerWorkerHashrate struct {
	Miner    string  `json:"miner"`
	Worker   string  `json:"worker"`
	Hashrate float64 `json:"hashrate"`
}

// Payment is a payout record from the payment ledger.
type Payment struct {
	PoolID                      string          `json:"pool_id"`
	Coin                        string          `json:"coin"`
	Address                     string          `json:"address"`
	Amount                      decimal.Decimal `json:"amount"`
	TransactionConfirmationData string          `json:"transaction_confirmation_data"`
	Created                     time.Time       `json:"created"`
}

// MinerStatus is the denormalized "current status" view of a miner.
// Performance is nil when the latest snapshot is older than the staleness
// window or when the miner has never reported.
type MinerStatus struct {
	PendingShares  float64            `json:"pending_shares"`
	PendingBalance decimal.Decimal    `json:"pending_balance"`
	TotalPaid      decimal.Decimal    `json:"total_paid"`
	TodayPaid      decimal.Decimal    `json:"today_paid"`
	LastPayment    *Payment           `json:"last_payment,omitempty"`
	Performance    *PerformanceBucket `json:"performance,omitempty"`
}
