package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
	"github.com/aevon-lab/poolstats/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// ErrInvalidSnapshot marks write-path validation failures (HTTP 400).
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// maxWorkerBatch bounds the number of worker snapshots accepted per request.
const maxWorkerBatch = 10000

// Service is the snapshot write path. It is the only place where an absent
// worker name is normalized to the empty string.
type Service struct {
	store            storage.SnapshotWriter
	maxBodySizeBytes int
}

func NewService(store storage.SnapshotWriter, maxBodySizeMB int) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/pools/:pool_id/snapshots/pool", s.PoolSnapshotHandler)
	r.POST("/v1/pools/:pool_id/snapshots/workers", s.WorkerSnapshotsHandler)
}

// RecordPoolSnapshot validates and appends one pool snapshot for poolID.
func (s *Service) RecordPoolSnapshot(ctx context.Context, poolID string, snap v1.PoolSnapshot) error {
	if snap.PoolID != "" && snap.PoolID != poolID {
		return invalidSnapshotf("pool_id %q does not match path pool %q", snap.PoolID, poolID)
	}
	snap.PoolID = poolID
	snap.Created = snap.Created.UTC()

	if err := snap.Validate(); err != nil {
		return invalidSnapshotf("%v", err)
	}

	if err := s.store.InsertPoolSnapshot(ctx, &snap); err != nil {
		return fmt.Errorf("persist pool snapshot: %w", err)
	}
	return nil
}

// RecordWorkerSnapshots normalizes and validates the whole batch before
// writing any of it, then appends each snapshot with its own statement.
// It returns the number of snapshots written.
func (s *Service) RecordWorkerSnapshots(ctx context.Context, poolID string, inputs []v1.WorkerSnapshotInput) (int, error) {
	if len(inputs) == 0 {
		return 0, invalidSnapshotf("at least one worker snapshot is required")
	}
	if len(inputs) > maxWorkerBatch {
		return 0, invalidSnapshotf("batch of %d exceeds the limit of %d", len(inputs), maxWorkerBatch)
	}

	snaps := make([]v1.MinerWorkerSnapshot, 0, len(inputs))
	for i, in := range inputs {
		snap := in.Normalize(poolID)
		if err := snap.Validate(); err != nil {
			return 0, invalidSnapshotf("snapshot %d: %v", i, err)
		}
		snaps = append(snaps, snap)
	}

	for i := range snaps {
		if err := s.store.InsertWorkerSnapshot(ctx, &snaps[i]); err != nil {
			slog.Error("[Ingestion] Worker snapshot batch interrupted",
				"pool_id", poolID,
				"written", i,
				"total", len(snaps),
				"error", err)
			return i, fmt.Errorf("persist worker snapshot %d: %w", i, err)
		}
	}

	return len(snaps), nil
}

func invalidSnapshotf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, fmt.Sprintf(format, args...))
}
