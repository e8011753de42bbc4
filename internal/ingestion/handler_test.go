package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
	httperr "github.com/aevon-lab/poolstats/internal/core/errors"
	"github.com/aevon-lab/poolstats/internal/core/storage"
	storagemocks "github.com/aevon-lab/poolstats/internal/mocks/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func post(r *gin.Engine, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestPoolSnapshotHandler_Success(t *testing.T) {
	created := time.Date(2026, 2, 7, 11, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(v1.PoolSnapshot{
		Created:          created,
		ConnectedMiners:  4,
		ConnectedWorkers: 9,
		PoolHashrate:     1e12,
		BlockHeight:      800000,
	})

	mockStore := storagemocks.NewSnapshotWriter(t)
	mockStore.EXPECT().
		InsertPoolSnapshot(mock.Anything, mock.MatchedBy(func(s *v1.PoolSnapshot) bool {
			return s.PoolID == "btc1" && s.Created.Equal(created) && s.ConnectedWorkers == 9
		})).
		Return(nil).
		Once()

	resp := post(newTestRouter(NewService(mockStore, 1)), "/v1/pools/btc1/snapshots/pool", body)

	require.Equal(t, http.StatusAccepted, resp.Code)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "accepted", result["status"])
}

func TestPoolSnapshotHandler_RejectsMismatchedPool(t *testing.T) {
	body, _ := json.Marshal(v1.PoolSnapshot{PoolID: "ltc1", Created: time.Now().UTC()})

	mockStore := storagemocks.NewSnapshotWriter(t)
	resp := post(newTestRouter(NewService(mockStore, 1)), "/v1/pools/btc1/snapshots/pool", body)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidSnapshotError, errResp.ErrorType)
}

func TestPoolSnapshotHandler_InvalidJSON(t *testing.T) {
	mockStore := storagemocks.NewSnapshotWriter(t)
	resp := post(newTestRouter(NewService(mockStore, 1)), "/v1/pools/btc1/snapshots/pool", []byte("not json"))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
}

func TestWorkerSnapshotsHandler_NormalizesMissingWorker(t *testing.T) {
	body := []byte(`[
		{"miner": "bc1qa", "created": "2026-02-07T11:00:00Z", "hashrate": 100, "shares_per_second": 1},
		{"miner": "bc1qa", "worker": null, "created": "2026-02-07T11:00:00Z", "hashrate": 50},
		{"miner": "bc1qa", "worker": "rig7", "created": "2026-02-07T12:00:00+01:00", "hashrate": 25}
	]`)

	var got []v1.MinerWorkerSnapshot
	mockStore := storagemocks.NewSnapshotWriter(t)
	mockStore.EXPECT().
		InsertWorkerSnapshot(mock.Anything, mock.Anything).
		Run(func(_ context.Context, snap *v1.MinerWorkerSnapshot) {
			got = append(got, *snap)
		}).
		Return(nil).
		Times(3)

	resp := post(newTestRouter(NewService(mockStore, 1)), "/v1/pools/btc1/snapshots/workers", body)

	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Len(t, got, 3)
	require.Equal(t, "", got[0].Worker)
	require.Equal(t, "", got[1].Worker)
	require.Equal(t, "rig7", got[2].Worker)
	for _, snap := range got {
		require.Equal(t, "btc1", snap.PoolID)
		require.Equal(t, time.UTC, snap.Created.Location())
	}
	require.True(t, got[2].Created.Equal(time.Date(2026, 2, 7, 11, 0, 0, 0, time.UTC)))
}

func TestWorkerSnapshotsHandler_ValidatesWholeBatchFirst(t *testing.T) {
	body := []byte(`[
		{"miner": "bc1qa", "created": "2026-02-07T11:00:00Z", "hashrate": 100},
		{"miner": "", "created": "2026-02-07T11:00:00Z", "hashrate": 100}
	]`)

	mockStore := storagemocks.NewSnapshotWriter(t)
	resp := post(newTestRouter(NewService(mockStore, 1)), "/v1/pools/btc1/snapshots/workers", body)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidSnapshotError, errResp.ErrorType)
	require.Contains(t, errResp.Message, "snapshot 1")
}

func TestWorkerSnapshotsHandler_StoreFailure(t *testing.T) {
	body := []byte(`[
		{"miner": "bc1qa", "created": "2026-02-07T11:00:00Z", "hashrate": 1},
		{"miner": "bc1qb", "created": "2026-02-07T11:00:00Z", "hashrate": 2}
	]`)

	mockStore := storagemocks.NewSnapshotWriter(t)
	mockStore.EXPECT().InsertWorkerSnapshot(mock.Anything, mock.Anything).Return(nil).Once()
	mockStore.EXPECT().
		InsertWorkerSnapshot(mock.Anything, mock.Anything).
		Return(storage.Fail("insert worker snapshot", errors.New("connection reset"))).
		Once()

	resp := post(newTestRouter(NewService(mockStore, 1)), "/v1/pools/btc1/snapshots/workers", body)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInternalError, errResp.ErrorType)
	require.Equal(t, map[string]interface{}{"written": float64(1)}, errResp.Details)
}

func TestWorkerSnapshotsHandler_BodyTooLarge(t *testing.T) {
	mockStore := storagemocks.NewSnapshotWriter(t)
	body := []byte(`[{"miner": "` + strings.Repeat("a", 1024*1024) + `"}]`)

	resp := post(newTestRouter(NewService(mockStore, 1)), "/v1/pools/btc1/snapshots/workers", body)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}

func TestRecordWorkerSnapshots_EmptyBatch(t *testing.T) {
	svc := NewService(storagemocks.NewSnapshotWriter(t), 1)

	_, err := svc.RecordWorkerSnapshots(context.Background(), "btc1", nil)
	require.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestRecordPoolSnapshot_RejectsNegativeRate(t *testing.T) {
	svc := NewService(storagemocks.NewSnapshotWriter(t), 1)

	err := svc.RecordPoolSnapshot(context.Background(), "btc1", v1.PoolSnapshot{
		Created:      time.Now().UTC(),
		PoolHashrate: -1,
	})
	require.ErrorIs(t, err, ErrInvalidSnapshot)
}
