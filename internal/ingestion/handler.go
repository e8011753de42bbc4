package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/aevon-lab/poolstats/internal/api/v1"
	httperr "github.com/aevon-lab/poolstats/internal/core/errors"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist snapshot"
)

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// PoolSnapshotHandler handles POST /v1/pools/:pool_id/snapshots/pool
func (s *Service) PoolSnapshotHandler(c *gin.Context) {
	var snap v1.PoolSnapshot
	if err := s.bindBody(c, &snap); err != nil {
		writeError(c, err)
		return
	}

	poolID := c.Param("pool_id")
	if err := s.RecordPoolSnapshot(c.Request.Context(), poolID, snap); err != nil {
		writeError(c, classify(err, poolID))
		return
	}

	slog.Debug("[Ingestion] Pool snapshot recorded", "pool_id", poolID, "created", snap.Created)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "count": 1})
}

// WorkerSnapshotsHandler handles POST /v1/pools/:pool_id/snapshots/workers
// The body is a JSON array of worker snapshots; "worker" may be omitted or null.
func (s *Service) WorkerSnapshotsHandler(c *gin.Context) {
	var inputs []v1.WorkerSnapshotInput
	if err := s.bindBody(c, &inputs); err != nil {
		writeError(c, err)
		return
	}

	poolID := c.Param("pool_id")
	written, err := s.RecordWorkerSnapshots(c.Request.Context(), poolID, inputs)
	if err != nil {
		ingErr := classify(err, poolID)
		if ingErr.statusCode == http.StatusInternalServerError {
			ingErr.details = map[string]interface{}{"written": written}
		}
		writeError(c, ingErr)
		return
	}

	slog.Debug("[Ingestion] Worker snapshots recorded", "pool_id", poolID, "count", written)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "count": written})
}

// bindBody reads the size-limited request body and binds it as JSON into dst.
func (s *Service) bindBody(c *gin.Context, dst interface{}) *ingestionError {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
			details:    err.Error(),
		}
	}

	return nil
}

// classify maps a service error to its HTTP shape.
func classify(err error, poolID string) *ingestionError {
	if errors.Is(err, ErrInvalidSnapshot) {
		slog.Warn("[Ingestion] Snapshot rejected", "pool_id", poolID, "error", err)
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidSnapshotError,
			message:    err.Error(),
		}
	}

	slog.Error("[Ingestion] Failed to persist snapshot", "pool_id", poolID, "error", err)
	return &ingestionError{
		statusCode: http.StatusInternalServerError,
		errorType:  httperr.HttpInternalError,
		message:    msgPersistFailed,
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
