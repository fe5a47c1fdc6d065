package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/hoanghai1803/faves/internal/config"
)

// NewLimiter builds the request limiter described by cfg. Counters live in
// process memory unless cfg.RedisURL is set, in which case they are shared
// through Redis. The returned close function releases the Redis client.
func NewLimiter(ctx context.Context, cfg config.RateLimitConfig) (*limiter.Limiter, func() error, error) {
	rate := limiter.Rate{
		Period: cfg.Period(),
		Limit:  cfg.Requests,
	}

	if cfg.RedisURL == "" {
		return limiter.New(memory.NewStore(), rate), func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   "faves_limiter",
		MaxRetry: 3,
	})
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("creating redis limiter store: %w", err)
	}

	slog.Info("rate limiter using redis", "addr", opts.Addr, "db", opts.DB)
	return limiter.New(store, rate), client.Close, nil
}

// RateLimit returns middleware that limits requests per client IP using l.
// Responses carry X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset; exhausted clients get 429 with a JSON error body.
func RateLimit(l *limiter.Limiter) func(http.Handler) http.Handler {
	mw := stdlib.NewMiddleware(l,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Too many requests, try again later"})
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("rate limiter failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
		}),
	)
	return mw.Handler
}
