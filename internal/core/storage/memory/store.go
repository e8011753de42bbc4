// Package memory is an in-process storage.Store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
	"github.com/aevon-lab/poolstats/internal/core/aggregation"
	"github.com/aevon-lab/poolstats/internal/core/storage"
	"github.com/shopspring/decimal"
)

type share struct {
	poolID     string
	miner      string
	difficulty float64
}

type balance struct {
	poolID  string
	address string
	amount  decimal.Decimal
}

// Store keeps every table in slices guarded by one RWMutex.
// Reads see a consistent view because they hold the read lock for their
// whole duration, including everything run under ReadConsistent.
type Store struct {
	mu   sync.RWMutex
	data *tables
}

type tables struct {
	pools    []v1.PoolSnapshot
	workers  []v1.MinerWorkerSnapshot
	shares   []share
	balances []balance
	payments []v1.Payment
}

var _ storage.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: &tables{}}
}

// AddShare records an unprocessed share for the pending-shares ledger.
func (s *Store) AddShare(poolID, miner string, difficulty float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.shares = append(s.data.shares, share{poolID: poolID, miner: miner, difficulty: difficulty})
}

// SetBalance adds a balance row for address.
func (s *Store) SetBalance(poolID, address string, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.balances = append(s.data.balances, balance{poolID: poolID, address: address, amount: amount})
}

// AddPayment appends a payment record.
func (s *Store) AddPayment(p v1.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Created = p.Created.UTC()
	s.data.payments = append(s.data.payments, p)
}

func (s *Store) InsertPoolSnapshot(ctx context.Context, snap *v1.PoolSnapshot) error {
	if err := ctx.Err(); err != nil {
		return storage.Fail("insert pool snapshot", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	copy.Created = copy.Created.UTC()
	if copy.LastNetworkBlockTime != nil {
		t := copy.LastNetworkBlockTime.UTC()
		copy.LastNetworkBlockTime = &t
	}
	s.data.pools = append(s.data.pools, copy)
	return nil
}

func (s *Store) InsertWorkerSnapshot(ctx context.Context, snap *v1.MinerWorkerSnapshot) error {
	if err := ctx.Err(); err != nil {
		return storage.Fail("insert worker snapshot", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	copy.Created = copy.Created.UTC()
	s.data.workers = append(s.data.workers, copy)
	return nil
}

func (s *Store) DeletePoolSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storage.Fail("delete pool snapshots", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.pools[:0]
	for _, p := range s.data.pools {
		if !p.Created.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	removed := int64(len(s.data.pools) - len(kept))
	s.data.pools = kept
	return removed, nil
}

func (s *Store) DeleteWorkerSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storage.Fail("delete worker snapshots", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.workers[:0]
	for _, w := range s.data.workers {
		if !w.Created.Before(cutoff) {
			kept = append(kept, w)
		}
	}
	removed := int64(len(s.data.workers) - len(kept))
	s.data.workers = kept
	return removed, nil
}

// ReadConsistent holds the read lock while fn runs so no write interleaves.
func (s *Store) ReadConsistent(ctx context.Context, fn func(r storage.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return storage.Fail("begin read transaction", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// The Store's Reader methods take the read lock and delegate to tables,
// which assumes the caller already holds it.

func (s *Store) LatestPoolSnapshot(ctx context.Context, poolID string) (*v1.PoolSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.LatestPoolSnapshot(ctx, poolID)
}

func (s *Store) PoolPerformance(ctx context.Context, poolID string, start, end time.Time, g aggregation.Granularity) ([]v1.PoolPerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.PoolPerformance(ctx, poolID, start, end, g)
}

func (s *Store) MinerPerformance(ctx context.Context, poolID, miner string, start, end time.Time, g aggregation.Granularity) ([]aggregation.WorkerAverage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.MinerPerformance(ctx, poolID, miner, start, end, g)
}

func (s *Store) LatestMinerSnapshotTime(ctx context.Context, poolID, miner string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.LatestMinerSnapshotTime(ctx, poolID, miner)
}

func (s *Store) MinerSnapshotsAt(ctx context.Context, poolID, miner string, created time.Time) ([]v1.MinerWorkerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.MinerSnapshotsAt(ctx, poolID, miner, created)
}

func (s *Store) WorkerHashrates(ctx context.Context, poolID string) ([]v1.MinerWorkerHashrate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.WorkerHashrates(ctx, poolID)
}

func (s *Store) LeaderboardPage(ctx context.Context, poolID string, since, until time.Time, page, pageSize int) ([]v1.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.LeaderboardPage(ctx, poolID, since, until, page, pageSize)
}

func (s *Store) PendingShareDifficulty(ctx context.Context, poolID, miner string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.PendingShareDifficulty(ctx, poolID, miner)
}

func (s *Store) Balance(ctx context.Context, poolID, miner string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Balance(ctx, poolID, miner)
}

func (s *Store) PaymentsSince(ctx context.Context, poolID, miner string, since time.Time) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.PaymentsSince(ctx, poolID, miner, since)
}

func (s *Store) LastPayment(ctx context.Context, poolID, miner string) (*v1.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.LastPayment(ctx, poolID, miner)
}

func (s *Store) PoolPaymentsTotal(ctx context.Context, poolID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.PoolPaymentsTotal(ctx, poolID)
}

func (t *tables) LatestPoolSnapshot(ctx context.Context, poolID string) (*v1.PoolSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Fail("query latest pool snapshot", err)
	}
	var latest *v1.PoolSnapshot
	for i := range t.pools {
		p := &t.pools[i]
		if p.PoolID != poolID {
			continue
		}
		if latest == nil || p.Created.After(latest.Created) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

func (t *tables) PoolPerformance(ctx context.Context, poolID string, start, end time.Time, g aggregation.Granularity) ([]v1.PoolPerformance, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Fail("query pool performance", err)
	}
	var inRange []v1.PoolSnapshot
	for _, p := range t.pools {
		if p.PoolID == poolID && within(p.Created, start, end) {
			inRange = append(inRange, p)
		}
	}
	return aggregation.BucketizePool(inRange, g), nil
}

func (t *tables) MinerPerformance(ctx context.Context, poolID, miner string, start, end time.Time, g aggregation.Granularity) ([]aggregation.WorkerAverage, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Fail("query miner performance", err)
	}
	var inRange []v1.MinerWorkerSnapshot
	for _, w := range t.workers {
		if w.PoolID == poolID && w.Miner == miner && within(w.Created, start, end) {
			inRange = append(inRange, w)
		}
	}
	return aggregation.AverageByWorker(inRange, g), nil
}

func (t *tables) LatestMinerSnapshotTime(ctx context.Context, poolID, miner string) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, storage.Fail("query latest miner snapshot", err)
	}
	var (
		latest time.Time
		found  bool
	)
	for _, w := range t.workers {
		if w.PoolID != poolID || w.Miner != miner {
			continue
		}
		if !found || w.Created.After(latest) {
			latest = w.Created
			found = true
		}
	}
	return latest, found, nil
}

func (t *tables) MinerSnapshotsAt(ctx context.Context, poolID, miner string, created time.Time) ([]v1.MinerWorkerSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Fail("query miner snapshots", err)
	}
	var results []v1.MinerWorkerSnapshot
	for _, w := range t.workers {
		if w.PoolID == poolID && w.Miner == miner && w.Created.Equal(created) {
			results = append(results, w)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Worker < results[j].Worker })
	return results, nil
}

func (t *tables) WorkerHashrates(ctx context.Context, poolID string) ([]v1.MinerWorkerHashrate, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Fail("query worker hashrates", err)
	}
	return aggregation.LatestPerWorker(t.poolWorkers(poolID)), nil
}

func (t *tables) LeaderboardPage(ctx context.Context, poolID string, since, until time.Time, page, pageSize int) ([]v1.LeaderboardEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Fail("query leaderboard", err)
	}
	ranked := aggregation.PeakPerMiner(t.poolWorkers(poolID), since, until)
	return aggregation.Paginate(ranked, page, pageSize), nil
}

func (t *tables) PendingShareDifficulty(ctx context.Context, poolID, miner string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, storage.Fail("query pending shares", err)
	}
	var total float64
	for _, s := range t.shares {
		if s.poolID == poolID && s.miner == miner {
			total += s.difficulty
		}
	}
	return total, nil
}

func (t *tables) Balance(ctx context.Context, poolID, miner string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, storage.Fail("query balance", err)
	}
	total := decimal.Zero
	for _, b := range t.balances {
		if b.poolID == poolID && b.address == miner {
			total = total.Add(b.amount)
		}
	}
	return total, nil
}

func (t *tables) PaymentsSince(ctx context.Context, poolID, miner string, since time.Time) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, storage.Fail("query payments", err)
	}
	total := decimal.Zero
	for _, p := range t.payments {
		if p.PoolID == poolID && p.Address == miner && !p.Created.Before(since) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (t *tables) LastPayment(ctx context.Context, poolID, miner string) (*v1.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.Fail("query last payment", err)
	}
	var last *v1.Payment
	for i := range t.payments {
		p := &t.payments[i]
		if p.PoolID != poolID || p.Address != miner {
			continue
		}
		if last == nil || p.Created.After(last.Created) {
			last = p
		}
	}
	if last == nil {
		return nil, nil
	}
	copy := *last
	return &copy, nil
}

func (t *tables) PoolPaymentsTotal(ctx context.Context, poolID string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, storage.Fail("query pool payments", err)
	}
	total := decimal.Zero
	for _, p := range t.payments {
		if p.PoolID == poolID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (t *tables) poolWorkers(poolID string) []v1.MinerWorkerSnapshot {
	var out []v1.MinerWorkerSnapshot
	for _, w := range t.workers {
		if w.PoolID == poolID {
			out = append(out, w)
		}
	}
	return out
}

// within reports whether t lies in the closed range [start, end].
func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
