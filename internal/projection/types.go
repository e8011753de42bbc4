package projection

import (
	"time"

	"github.com/aevon-lab/poolstats/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

// PerformanceQuery selects a bucketed time series over the closed range
// [Start, End]. Miner is empty for pool-level series.
type PerformanceQuery struct {
	PoolID      string
	Miner       string
	Start       time.Time
	End         time.Time
	Granularity aggregation.Granularity
}

// LeaderboardQuery selects one page of the miner leaderboard.
// A zero Since means "now minus the configured leaderboard window".
type LeaderboardQuery struct {
	PoolID   string
	Since    time.Time
	Page     int
	PageSize int
}

// Settings carries the tunables of the query service.
type Settings struct {
	StalenessWindow   time.Duration
	LeaderboardWindow time.Duration
	DefaultPageSize   int
	MaxPageSize       int
}

// DefaultSettings mirrors the defaults of the stats config section.
func DefaultSettings() Settings {
	return Settings{
		StalenessWindow:   20 * time.Minute,
		LeaderboardWindow: 24 * time.Hour,
		DefaultPageSize:   15,
		MaxPageSize:       100,
	}
}

// performanceParams is the query string of both performance endpoints.
type performanceParams struct {
	Start       time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End         time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Granularity string    `form:"granularity"`
}

// leaderboardParams is the query string of the leaderboard endpoint.
type leaderboardParams struct {
	Since    time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Page     int       `form:"page"`
	PageSize *int      `form:"page_size"`
}

// PaymentsTotalResponse is the body of the pool payments endpoint.
type PaymentsTotalResponse struct {
	PoolID string          `json:"pool_id"`
	Total  decimal.Decimal `json:"total"`
}
