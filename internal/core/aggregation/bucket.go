package aggregation

import (
	"math"
	"sort"
	"time"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
)

// WorkerAverage is the averaged performance of one worker inside one bucket.
// It is the flat row shape both stores produce for miner time series.
type WorkerAverage struct {
	Bucket          time.Time
	Worker          string
	Hashrate        float64
	SharesPerSecond float64
}

type workerKey struct {
	bucket time.Time
	worker string
}

type runningAvg struct {
	hashrate float64
	sps      float64
	n        int
}

// AverageByWorker groups snapshots by (bucket, worker) and averages hashrate
// and shares per second inside each group. Rows are ordered by bucket, then
// worker.
func AverageByWorker(snapshots []v1.MinerWorkerSnapshot, g Granularity) []WorkerAverage {
	return averageBy(snapshots, func(t time.Time) time.Time { return BucketFor(t, g) })
}

func averageBy(snapshots []v1.MinerWorkerSnapshot, keyFn func(time.Time) time.Time) []WorkerAverage {
	groups := make(map[workerKey]*runningAvg)
	for _, s := range snapshots {
		key := workerKey{bucket: keyFn(s.Created), worker: s.Worker}
		acc, ok := groups[key]
		if !ok {
			acc = &runningAvg{}
			groups[key] = acc
		}
		acc.hashrate += s.Hashrate
		acc.sps += s.SharesPerSecond
		acc.n++
	}

	rows := make([]WorkerAverage, 0, len(groups))
	for key, acc := range groups {
		rows = append(rows, WorkerAverage{
			Bucket:          key.bucket,
			Worker:          key.worker,
			Hashrate:        acc.hashrate / float64(acc.n),
			SharesPerSecond: acc.sps / float64(acc.n),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Bucket.Equal(rows[j].Bucket) {
			return rows[i].Bucket.Before(rows[j].Bucket)
		}
		return rows[i].Worker < rows[j].Worker
	})
	return rows
}

// AssembleBuckets folds per-worker rows into one PerformanceBucket per
// distinct bucket start, ascending. An empty input yields an empty slice.
func AssembleBuckets(rows []WorkerAverage) []v1.PerformanceBucket {
	index := make(map[time.Time]int)
	buckets := make([]v1.PerformanceBucket, 0)

	for _, row := range rows {
		bucketStart := row.Bucket.UTC()
		i, ok := index[bucketStart]
		if !ok {
			i = len(buckets)
			index[bucketStart] = i
			buckets = append(buckets, v1.PerformanceBucket{
				Created: bucketStart,
				Workers: make(map[string]v1.WorkerPerformance),
			})
		}
		buckets[i].Workers[row.Worker] = v1.WorkerPerformance{
			Hashrate:        row.Hashrate,
			SharesPerSecond: row.SharesPerSecond,
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Created.Before(buckets[j].Created)
	})
	return buckets
}

// Bucketize runs the full bucketing pipeline over raw worker snapshots.
func Bucketize(snapshots []v1.MinerWorkerSnapshot, g Granularity) []v1.PerformanceBucket {
	return AssembleBuckets(AverageByWorker(snapshots, g))
}

// CurrentBucket assembles the snapshots sharing one instant into a single
// bucket stamped with that instant. Returns nil when there are none.
func CurrentBucket(created time.Time, snapshots []v1.MinerWorkerSnapshot) *v1.PerformanceBucket {
	if len(snapshots) == 0 {
		return nil
	}
	instant := created.UTC()
	buckets := AssembleBuckets(averageBy(snapshots, func(time.Time) time.Time { return instant }))
	return &buckets[0]
}

// BucketizePool averages pool snapshots per bucket. Connection counts are
// averaged and then rounded to the nearest integer.
func BucketizePool(snapshots []v1.PoolSnapshot, g Granularity) []v1.PoolPerformance {
	type poolAcc struct {
		poolHashrate, networkHashrate, networkDifficulty float64
		miners, workers, sps                             float64
		n                                                int
	}

	groups := make(map[time.Time]*poolAcc)
	for _, s := range snapshots {
		key := BucketFor(s.Created, g)
		acc, ok := groups[key]
		if !ok {
			acc = &poolAcc{}
			groups[key] = acc
		}
		acc.poolHashrate += s.PoolHashrate
		acc.networkHashrate += s.NetworkHashrate
		acc.networkDifficulty += s.NetworkDifficulty
		acc.miners += float64(s.ConnectedMiners)
		acc.workers += float64(s.ConnectedWorkers)
		acc.sps += s.SharesPerSecond
		acc.n++
	}

	results := make([]v1.PoolPerformance, 0, len(groups))
	for created, acc := range groups {
		n := float64(acc.n)
		results = append(results, v1.PoolPerformance{
			Created:           created,
			PoolHashrate:      acc.poolHashrate / n,
			NetworkHashrate:   acc.networkHashrate / n,
			NetworkDifficulty: acc.networkDifficulty / n,
			ConnectedMiners:   int(math.Round(acc.miners / n)),
			ConnectedWorkers:  int(math.Round(acc.workers / n)),
			SharesPerSecond:   acc.sps / n,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Created.Before(results[j].Created)
	})
	return results
}
