package aggregation

import (
	"math"
	"sort"
	"time"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
)

type minerWorker struct {
	miner  string
	worker string
}

// LatestPerWorker keeps the most recent snapshot of every (miner, worker)
// partition, then drops partitions whose latest hashrate is not positive.
// An earlier positive sample never resurrects a partition that has gone to 0.
func LatestPerWorker(snapshots []v1.MinerWorkerSnapshot) []v1.MinerWorkerHashrate {
	latest := make(map[minerWorker]v1.MinerWorkerSnapshot)
	for _, s := range snapshots {
		key := minerWorker{miner: s.Miner, worker: s.Worker}
		if cur, ok := latest[key]; !ok || s.Created.After(cur.Created) {
			latest[key] = s
		}
	}

	results := make([]v1.MinerWorkerHashrate, 0, len(latest))
	for key, s := range latest {
		if s.Hashrate <= 0 {
			continue
		}
		results = append(results, v1.MinerWorkerHashrate{
			Miner:    key.miner,
			Worker:   key.worker,
			Hashrate: s.Hashrate,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Miner != results[j].Miner {
			return results[i].Miner < results[j].Miner
		}
		return results[i].Worker < results[j].Worker
	})
	return results
}

// PeakPerMiner ranks miners by their best summed hashrate in [since, until).
//
// A miner's hashrate at an instant is the sum over its workers at that
// instant; each miner is represented by the instant where that sum peaked,
// not by its most recent sample. Entries are ordered by hashrate descending,
// ties broken by miner ascending.
func PeakPerMiner(snapshots []v1.MinerWorkerSnapshot, since, until time.Time) []v1.LeaderboardEntry {
	type instantKey struct {
		miner   string
		created time.Time
	}

	type instantSum struct {
		entry   v1.LeaderboardEntry
		created time.Time
	}

	sums := make(map[instantKey]*instantSum)
	for _, s := range snapshots {
		if s.Created.Before(since) || !s.Created.Before(until) {
			continue
		}
		key := instantKey{miner: s.Miner, created: s.Created.UTC()}
		sum, ok := sums[key]
		if !ok {
			sum = &instantSum{entry: v1.LeaderboardEntry{Miner: s.Miner}, created: key.created}
			sums[key] = sum
		}
		sum.entry.Hashrate += s.Hashrate
		sum.entry.SharesPerSecond += s.SharesPerSecond
	}

	// On an equal peak the later instant wins so the choice is deterministic.
	peaks := make(map[string]*instantSum)
	for _, sum := range sums {
		cur, ok := peaks[sum.entry.Miner]
		if !ok || sum.entry.Hashrate > cur.entry.Hashrate ||
			(sum.entry.Hashrate == cur.entry.Hashrate && sum.created.After(cur.created)) {
			peaks[sum.entry.Miner] = sum
		}
	}

	results := make([]v1.LeaderboardEntry, 0, len(peaks))
	for _, peak := range peaks {
		results = append(results, peak.entry)
	}
	SortLeaderboard(results)
	return results
}

// SortLeaderboard orders entries by hashrate descending, then miner ascending.
func SortLeaderboard(entries []v1.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Hashrate != entries[j].Hashrate {
			return entries[i].Hashrate > entries[j].Hashrate
		}
		return entries[i].Miner < entries[j].Miner
	})
}

// Paginate returns the page-th slice of pageSize items (offset = page*pageSize).
// Out-of-range pages, including ones whose offset overflows int, are empty.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 0 || pageSize <= 0 || page > math.MaxInt/pageSize {
		return []T{}
	}
	offset := page * pageSize
	if offset >= len(items) {
		return []T{}
	}
	end := offset + pageSize
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
