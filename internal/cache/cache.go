// Package cache provides an optional Redis-backed response cache for the
// read-only stats endpoints. Entries expire after a fixed TTL; nothing is
// invalidated on write, so a response may lag ingestion by at most one TTL.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "poolstats:resp:"

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Client wraps the Redis operations of the response cache.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	slog.Info("[Cache] Redis response cache enabled", "addr", cfg.Addr, "ttl", cfg.TTL)
	return &Client{rdb: rdb, ttl: cfg.TTL}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks Redis connectivity.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the cached body for key. ok is false on a miss.
func (c *Client) Get(ctx context.Context, key string) (body []byte, ok bool, err error) {
	body, err = c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached response: %w", err)
	}
	return body, true, nil
}

// Set stores body under key for the configured TTL.
func (c *Client) Set(ctx context.Context, key string, body []byte) error {
	if err := c.rdb.Set(ctx, keyPrefix+key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached response: %w", err)
	}
	return nil
}

// bodyRecorder tees the response body so it can be cached after the handler ran.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware serves GET responses from Redis and caches successful ones.
// Redis failures are logged and the request falls through to the handler.
func (c *Client) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := ctx.Request.URL.RequestURI()
		reqCtx := ctx.Request.Context()

		body, ok, err := c.Get(reqCtx, key)
		if err != nil {
			slog.Warn("[Cache] Lookup failed", "key", key, "error", err)
		}
		if ok {
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
			ctx.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: ctx.Writer}
		ctx.Writer = rec
		ctx.Header("X-Cache", "MISS")
		ctx.Next()

		if rec.Status() != http.StatusOK {
			return
		}
		if err := c.Set(reqCtx, key, rec.buf.Bytes()); err != nil {
			slog.Warn("[Cache] Store failed", "key", key, "error", err)
		}
	}
}
