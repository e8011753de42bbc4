package aggregation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxWindowDays keeps an "Xd" window representable as a time.Duration.
const maxWindowDays = int(math.MaxInt64 / (24 * time.Hour))

// Granularity is the bucket width of a performance time series.
type Granularity string

const (
	Minute       Granularity = "1m"
	ThreeMinutes Granularity = "3m"
	Hour         Granularity = "1h"
	Day          Granularity = "1d"
)

// ParseGranularity validates a granularity label.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Minute, ThreeMinutes, Hour, Day:
		return g, nil
	default:
		return "", fmt.Errorf("invalid granularity %q (must be 1m, 3m, 1h or 1d)", s)
	}
}

// Duration returns the width of one bucket.
func (g Granularity) Duration() time.Duration {
	switch g {
	case Minute:
		return time.Minute
	case ThreeMinutes:
		return 3 * time.Minute
	case Hour:
		return time.Hour
	case Day:
		return 24 * time.Hour
	default:
		return 0
	}
}

// BucketFor returns the start of the bucket t falls into, in UTC.
//
// Minute, hour and day buckets truncate to the boundary. Three-minute buckets
// split each hour into 20 sub-buckets and report the sub-bucket start:
// 12:07:30 → 12:06:00, 12:09:00 → 12:09:00.
func BucketFor(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case Minute:
		return t.Truncate(time.Minute)
	case ThreeMinutes:
		hour := t.Truncate(time.Hour)
		return hour.Add(time.Duration(3*(t.Minute()/3)) * time.Minute)
	case Hour:
		return t.Truncate(time.Hour)
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// ParseWindowSize parses a duration string.
// Supports Go duration syntax (e.g., "10s", "20m", "1h") plus "Xd" for days.
func ParseWindowSize(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("window size must not be empty")
	}

	// Handle "d" suffix (days); time.ParseDuration has no day unit.
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid window size %q: %w", s, err)
		}
		if days <= 0 {
			return 0, fmt.Errorf("window size must be positive, got %q", s)
		}
		if days > maxWindowDays {
			return 0, fmt.Errorf("window size %q is too large", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid window size %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("window size must be positive, got %q", s)
	}
	return d, nil
}
