package projection

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aevon-lab/poolstats/internal/core/aggregation"
	httperr "github.com/aevon-lab/poolstats/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all query API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	pools := r.Group("/v1/pools/:pool_id")
	pools.GET("/stats", s.HandleLatestPoolStats)
	pools.GET("/performance", s.HandlePoolPerformance)
	pools.GET("/miners", s.HandleLeaderboard)
	pools.GET("/workers/hashrates", s.HandleWorkerHashrates)
	pools.GET("/miners/:address", s.HandleMinerStatus)
	pools.GET("/miners/:address/performance", s.HandleMinerPerformance)
	pools.GET("/payments/total", s.HandlePaymentsTotal)
}

// HandleLatestPoolStats handles GET /v1/pools/:pool_id/stats
func (s *Service) HandleLatestPoolStats(c *gin.Context) {
	poolID := c.Param("pool_id")

	snap, err := s.LatestPoolStats(c.Request.Context(), poolID)
	if err != nil {
		writeQueryError(c, "Failed to load pool stats", err)
		return
	}
	if snap == nil {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "No stats recorded for pool",
			Details:   poolID,
		})
		return
	}

	c.JSON(http.StatusOK, snap)
}

// HandlePoolPerformance handles GET /v1/pools/:pool_id/performance
// Query parameters: start, end, granularity (1h default, or 1d)
func (s *Service) HandlePoolPerformance(c *gin.Context) {
	q, ok := bindPerformanceQuery(c, aggregation.Hour)
	if !ok {
		return
	}

	series, err := s.PoolPerformance(c.Request.Context(), q)
	if err != nil {
		writeQueryError(c, "Failed to query pool performance", err)
		return
	}

	c.JSON(http.StatusOK, series)
}

// HandleMinerPerformance handles GET /v1/pools/:pool_id/miners/:address/performance
// Query parameters: start, end, granularity (1m, 3m, 1h default, or 1d)
func (s *Service) HandleMinerPerformance(c *gin.Context) {
	q, ok := bindPerformanceQuery(c, aggregation.Hour)
	if !ok {
		return
	}
	q.Miner = c.Param("address")

	buckets, err := s.MinerPerformance(c.Request.Context(), q)
	if err != nil {
		writeQueryError(c, "Failed to query miner performance", err)
		return
	}

	c.JSON(http.StatusOK, buckets)
}

// HandleMinerStatus handles GET /v1/pools/:pool_id/miners/:address
func (s *Service) HandleMinerStatus(c *gin.Context) {
	status, err := s.MinerStatus(c.Request.Context(), c.Param("pool_id"), c.Param("address"))
	if err != nil {
		writeQueryError(c, "Failed to load miner status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// HandleWorkerHashrates handles GET /v1/pools/:pool_id/workers/hashrates
func (s *Service) HandleWorkerHashrates(c *gin.Context) {
	rows, err := s.WorkerHashrates(c.Request.Context(), c.Param("pool_id"))
	if err != nil {
		writeQueryError(c, "Failed to query worker hashrates", err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// HandleLeaderboard handles GET /v1/pools/:pool_id/miners
// Query parameters: since, page, page_size
func (s *Service) HandleLeaderboard(c *gin.Context) {
	var params leaderboardParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	pageSize := s.settings.DefaultPageSize
	if params.PageSize != nil {
		pageSize = *params.PageSize
	}

	entries, err := s.Leaderboard(c.Request.Context(), LeaderboardQuery{
		PoolID:   c.Param("pool_id"),
		Since:    params.Since,
		Page:     params.Page,
		PageSize: pageSize,
	})
	if err != nil {
		writeQueryError(c, "Failed to query leaderboard", err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// HandlePaymentsTotal handles GET /v1/pools/:pool_id/payments/total
func (s *Service) HandlePaymentsTotal(c *gin.Context) {
	poolID := c.Param("pool_id")

	total, err := s.TotalPoolPayments(c.Request.Context(), poolID)
	if err != nil {
		writeQueryError(c, "Failed to query pool payments", err)
		return
	}

	c.JSON(http.StatusOK, PaymentsTotalResponse{PoolID: poolID, Total: total})
}

func bindPerformanceQuery(c *gin.Context, fallback aggregation.Granularity) (PerformanceQuery, bool) {
	var params performanceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return PerformanceQuery{}, false
	}

	granularity := fallback
	if params.Granularity != "" {
		granularity = aggregation.Granularity(params.Granularity)
	}

	return PerformanceQuery{
		PoolID:      c.Param("pool_id"),
		Start:       params.Start,
		End:         params.End,
		Granularity: granularity,
	}, true
}

func writeQueryError(c *gin.Context, message string, err error) {
	if errors.Is(err, ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   message,
			Details:   err.Error(),
		})
		return
	}

	slog.Error("[Projection] Query failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   message,
		Details:   err.Error(),
	})
}
